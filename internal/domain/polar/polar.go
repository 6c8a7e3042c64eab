// Package polar converts impact points into polar coordinates relative to the
// board centre and resolves them into dartboard scores.
package polar

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/oche/internal/domain/board"
)

// InvalidRadius marks a RadiusAngle computed from an unusable point.
const InvalidRadius = -1.0

const (
	fullTurn     = 360.0
	radToDeg     = 180 / math.Pi
	quarterTurn  = math.Pi / 2
	threeQuarter = math.Pi + math.Pi/2
)

// Point is a pixel position. A negative component means "no detection".
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both coordinates are finite and non-negative.
func (p Point) Valid() bool {
	return p.X >= 0 && p.Y >= 0 && !math.IsInf(p.X, 1) && !math.IsInf(p.Y, 1)
}

// Ellipse is the fitted outer boundary of the scoring face. Width and Height are
// full axis lengths; Rotation is in degrees.
type Ellipse struct {
	Center   Point   `json:"center"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// Validate checks the ellipse is usable as a board boundary.
func (e Ellipse) Validate() error {
	switch {
	case !e.Center.Valid():
		return fmt.Errorf("%w: center %v", ErrInvalidEllipse, e.Center)
	case !(e.Width > 0) || math.IsInf(e.Width, 0):
		return fmt.Errorf("%w: width %v", ErrInvalidEllipse, e.Width)
	case !(e.Height > 0) || math.IsInf(e.Height, 0):
		return fmt.Errorf("%w: height %v", ErrInvalidEllipse, e.Height)
	case math.IsNaN(e.Rotation) || math.IsInf(e.Rotation, 0):
		return fmt.Errorf("%w: rotation %v", ErrInvalidEllipse, e.Rotation)
	}
	return nil
}

// HorizontalExtent returns the width of the axis-aligned box bounding the
// rotated ellipse. For an unrotated ellipse this is Width.
func (e Ellipse) HorizontalExtent() float64 {
	theta := e.Rotation / radToDeg
	a := e.Width / 2 * math.Cos(theta)
	b := e.Height / 2 * math.Sin(theta)
	return 2 * math.Sqrt(a*a+b*b)
}

// Limits derives the ring radii from the ellipse's horizontal extent.
func (e Ellipse) Limits() board.RingLimits {
	return board.ComputeLimits(e.HorizontalExtent())
}

// RadiusAngle is a point in polar form: distance in pixels and angle in degrees
// within [0, 360). 0° points right and angles grow counter-clockwise on screen.
type RadiusAngle struct {
	Radius float64 `json:"radius"`
	Angle  float64 `json:"angle"`
}

// IsInvalid reports whether ra is the invalid-input sentinel.
func (ra RadiusAngle) IsInvalid() bool {
	return ra.Radius == InvalidRadius
}

// Resolve returns point's radius and angle relative to center.
//
// The angle is taken from the vertical offset alone, with the quadrant picked
// by comparing coordinates. Image y grows downwards, so "above" the centre is
// point.Y < center.Y. Within each quadrant this is the exact polar angle.
func Resolve(center, point Point) RadiusAngle {
	if !center.Valid() || !point.Valid() {
		return RadiusAngle{Radius: InvalidRadius}
	}

	radius := math.Hypot(point.X-center.X, point.Y-center.Y)
	if radius == 0 {
		return RadiusAngle{}
	}

	// Guard acos/asin against ratios a rounding error above 1.
	ratio := math.Min(math.Abs(point.Y-center.Y)/radius, 1)

	var angle float64
	switch {
	case point.Y < center.Y && point.X < center.X: // upper left
		angle = math.Acos(ratio) + quarterTurn
	case point.Y < center.Y: // upper right
		angle = math.Asin(ratio)
	case point.X > center.X: // lower right
		angle = math.Acos(ratio) + threeQuarter
	default: // lower left
		angle = math.Asin(ratio) + math.Pi
	}

	return RadiusAngle{Radius: radius, Angle: normalizeDegrees(angle * radToDeg)}
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, fullTurn)
	if deg < 0 {
		deg += fullTurn
	}
	if deg >= fullTurn {
		deg = 0
	}
	return deg
}

// Classify resolves a polar coordinate into a score using the board's ring
// limits and the sector table.
func Classify(ra RadiusAngle, limits board.RingLimits, table *board.SectorTable) (Score, error) {
	if ra.Radius < 0 || math.IsNaN(ra.Radius) {
		return Score{}, ErrInvalidPoint
	}

	r := ra.Radius
	switch {
	case r <= float64(limits.Bullseye):
		return Score{Value: BullseyeValue, Ring: RingBullsEye}, nil
	case r <= float64(limits.Bull):
		return Score{Value: BullValue, Ring: RingBull}, nil
	case r > float64(limits.OuterDouble):
		return Score{Ring: RingMiss}, nil
	}

	value, err := table.ValueForAngle(ra.Angle)
	if err != nil {
		if errors.Is(err, board.ErrAngleOutOfRange) {
			return Score{}, fmt.Errorf("%w: %w", ErrAngleOutOfRange, err)
		}
		return Score{}, err
	}

	var ring Ring
	switch {
	case r <= float64(limits.InnerTriple):
		ring = RingInnerSingle
	case r <= float64(limits.OuterTriple):
		ring = RingTriple
	case r <= float64(limits.InnerDouble):
		ring = RingOuterSingle
	default:
		ring = RingDouble
	}
	return Score{Value: value, Ring: ring}, nil
}

// ScoreThrow runs the full pipeline for one impact on a fitted board.
func ScoreThrow(boundary Ellipse, impact Point, table *board.SectorTable) (RadiusAngle, Score, error) {
	if err := boundary.Validate(); err != nil {
		return RadiusAngle{Radius: InvalidRadius}, Score{}, err
	}
	ra := Resolve(boundary.Center, impact)
	score, err := Classify(ra, boundary.Limits(), table)
	return ra, score, err
}
