package board

import "math"

// Ring boundaries as a percentage of the full board diameter. The figures come
// from a 451 mm board with a 340 mm scoring face:
//
//	outer double 170 mm, outer triple 107 mm, multiplier ring width 8 mm,
//	bull diameter 31.8 mm, bullseye diameter 12.7 mm.
const (
	BullseyeRatio    = 2.815964523285 / 2
	BullRatio        = 7.05099778270 / 2
	MultiplierRatio  = 1.77383592017
	OuterTripleRatio = 23.7250554323
	InnerTripleRatio = OuterTripleRatio - MultiplierRatio
	OuterDoubleRatio = 37.6940133037
	InnerDoubleRatio = OuterDoubleRatio - MultiplierRatio
)

// MinBoardWidth is the narrowest board, in pixels, for which every pair of
// neighbouring rings is at least one pixel apart before rounding. Narrower
// boards can collapse the multiplier rings onto their neighbours.
const MinBoardWidth = 57

// RingLimits are the six ring radii of a board in pixels.
type RingLimits struct {
	Bullseye    int `json:"bullseye"`
	Bull        int `json:"bull"`
	InnerTriple int `json:"inner_triple"`
	OuterTriple int `json:"outer_triple"`
	InnerDouble int `json:"inner_double"`
	OuterDouble int `json:"outer_double"`
}

// ComputeLimits derives the ring radii from the board's horizontal extent.
func ComputeLimits(boardWidth float64) RingLimits {
	return RingLimits{
		Bullseye:    radiusFor(boardWidth, BullseyeRatio),
		Bull:        radiusFor(boardWidth, BullRatio),
		InnerTriple: radiusFor(boardWidth, InnerTripleRatio),
		OuterTriple: radiusFor(boardWidth, OuterTripleRatio),
		InnerDouble: radiusFor(boardWidth, InnerDoubleRatio),
		OuterDouble: radiusFor(boardWidth, OuterDoubleRatio),
	}
}

func radiusFor(boardWidth, ratio float64) int {
	return int(math.Round(boardWidth * ratio / 100))
}

// Increasing reports whether the radii grow strictly from bullseye to outer double.
func (l RingLimits) Increasing() bool {
	return l.Bullseye < l.Bull &&
		l.Bull < l.InnerTriple &&
		l.InnerTriple < l.OuterTriple &&
		l.OuterTriple < l.InnerDouble &&
		l.InnerDouble < l.OuterDouble
}
