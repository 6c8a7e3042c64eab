package scoring

import "errors"

var (
	// ErrInvalidBoard is returned when the board ellipse cannot be used.
	ErrInvalidBoard = errors.New("invalid board")
	// ErrBoardTooSmall is returned when rounding would collapse adjacent rings.
	ErrBoardTooSmall = errors.New("board too small")
)
