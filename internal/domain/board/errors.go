package board

import "errors"

// Sentinel kinds for board geometry errors.
var (
	ErrAngleOutOfRange = errors.New("angle not found in sector table")
)
