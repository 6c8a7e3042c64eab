package journal

import "errors"

// Sentinel kinds for journal errors.
var (
	ErrUnsupportedDriver = errors.New("unsupported journal driver")
	ErrInvalidLimit      = errors.New("invalid history limit")
	ErrClosed            = errors.New("journal closed")
)
