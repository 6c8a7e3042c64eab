package polar

import "errors"

// Sentinel kinds for polar resolution errors.
var (
	ErrInvalidPoint    = errors.New("invalid point")
	ErrAngleOutOfRange = errors.New("angle out of range")
	ErrInvalidEllipse  = errors.New("invalid ellipse")
)
