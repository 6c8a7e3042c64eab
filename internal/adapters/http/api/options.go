package api

// Default limits used when no option overrides them.
const (
	defaultMaxLeaderboardLimit = 100
	defaultLeaderboardLimit    = 10
	defaultMaxHistoryLimit     = 500
	defaultHistoryLimit        = 20
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps GET /leaderboard?limit.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLeaderboardLimit = n
		}
	}
}

// WithMaxHistoryLimit caps GET /players/{id}/throws?limit.
func WithMaxHistoryLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxHistoryLimit = n
		}
	}
}
