// Package board holds the static geometry of a standard dartboard: the angular
// wedges that carry the face values and the radial ring boundaries.
package board

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Sector table geometry.
const (
	fullTurn        = 360.0
	sectorCount     = 20
	sectorWidth     = fullTurn / sectorCount
	topAngle        = 90.0 // angle of the wedge centred straight up
	boundaryEpsilon = 0.0001
)

// Layout lists the face values clockwise, starting with the wedge at the top.
var Layout = [sectorCount]int{20, 1, 18, 4, 13, 6, 10, 15, 2, 17, 3, 19, 7, 16, 8, 11, 14, 9, 12, 5}

// SectorRange is one angular span of the table in degrees.
//
// Min sits boundaryEpsilon above the lower boundary so that two neighbouring
// ranges never share a bound: an angle exactly on a boundary belongs to the
// lower range. Angles in the sliver between the boundary and Min belong to
// this range as well.
type SectorRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Value int     `json:"value"`

	lower float64
}

// Contains reports whether angle lies in the range.
func (r SectorRange) Contains(angle float64) bool {
	return angle > r.lower && angle <= r.Max
}

// SectorTable maps an angle to the face value printed in that wedge.
// It is immutable after construction and safe for concurrent use.
type SectorTable struct {
	ranges []SectorRange
	offset float64
}

// NewSectorTable builds the 20-wedge table. Angles follow the polar resolver's
// convention: 0° points right, 90° points up, angles grow counter-clockwise.
func NewSectorTable(opts ...SectorOption) *SectorTable {
	t := &SectorTable{}
	for _, opt := range opts {
		opt(t)
	}

	t.ranges = make([]SectorRange, 0, sectorCount+1)
	for i, value := range Layout {
		// Layout runs clockwise, i.e. towards smaller angles.
		center := normalize(topAngle - float64(i)*sectorWidth + t.offset)
		lower := normalize(center - sectorWidth/2)
		upper := lower + sectorWidth

		if upper <= fullTurn {
			t.ranges = append(t.ranges, newRange(lower, upper, value))
			continue
		}
		// The wedge straddles 0°: keep both halves.
		t.ranges = append(t.ranges,
			newRange(lower, fullTurn, value),
			newRange(0, upper-fullTurn, value),
		)
	}

	sort.Slice(t.ranges, func(i, j int) bool { return t.ranges[i].lower < t.ranges[j].lower })
	return t
}

func newRange(lower, upper float64, value int) SectorRange {
	return SectorRange{
		Min:   lower + boundaryEpsilon,
		Max:   upper,
		Value: value,
		lower: lower,
	}
}

var defaultTable = sync.OnceValue(func() *SectorTable { return NewSectorTable() })

// DefaultSectorTable returns the process-wide table with no rotation offset.
func DefaultSectorTable() *SectorTable {
	return defaultTable()
}

// ValueForAngle returns the face value of the wedge containing angle.
// angle must be normalised to [0, 360]; 0 and 360 denote the same ray.
func (t *SectorTable) ValueForAngle(angle float64) (int, error) {
	if math.IsNaN(angle) || angle < 0 || angle > fullTurn {
		return 0, fmt.Errorf("%w: %v", ErrAngleOutOfRange, angle)
	}
	if angle == 0 {
		angle = fullTurn
	}
	for _, r := range t.ranges {
		if r.Contains(angle) {
			return r.Value, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrAngleOutOfRange, angle)
}

// Ranges returns a copy of the table in ascending angle order.
func (t *SectorTable) Ranges() []SectorRange {
	out := make([]SectorRange, len(t.ranges))
	copy(out, t.ranges)
	return out
}

// Offset returns the rotation applied to the table in degrees.
func (t *SectorTable) Offset() float64 {
	return t.offset
}

// normalize maps any angle in degrees onto [0, 360).
func normalize(deg float64) float64 {
	deg = math.Mod(deg, fullTurn)
	if deg < 0 {
		deg += fullTurn
	}
	if deg >= fullTurn {
		deg = 0
	}
	return deg
}
