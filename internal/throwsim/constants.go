package throwsim

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Submission retry constants.
const (
	maxSubmitAttempts = 5
	retryBackoff      = 20 * time.Millisecond
)

// Runner configuration constants.
const (
	settlePollInterval   = 100 * time.Millisecond
	PercentageMultiplier = 100
)

// Generation constants.
const (
	boardAspect     = 0.95 // fitted boards are slightly squashed by the camera angle
	overshootFactor = 1.15 // throws land up to this far past the outer double
)
