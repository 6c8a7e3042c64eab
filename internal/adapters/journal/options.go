package journal

// Option applies a configuration option to the SQLJournal.
type Option func(*SQLJournal)

// WithMaxOpenConns caps the connection pool. SQLite always uses one connection.
func WithMaxOpenConns(n int) Option {
	return func(j *SQLJournal) {
		if n > 0 {
			j.maxOpenConns = n
		}
	}
}

// WithMaxHistory caps how many throws History returns per call.
func WithMaxHistory(limit int) Option {
	return func(j *SQLJournal) {
		if limit > 0 {
			j.maxHistory = limit
		}
	}
}
