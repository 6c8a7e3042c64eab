package polar

import (
	"encoding/json"
	"fmt"
)

// Fixed values of the centre rings.
const (
	BullValue     = 25
	BullseyeValue = 50
)

// Ring identifies the scoring band a throw landed in.
type Ring int

// Rings from the outside in.
const (
	RingMiss Ring = iota
	RingDouble
	RingOuterSingle
	RingTriple
	RingInnerSingle
	RingBull
	RingBullsEye
)

var ringNames = map[Ring]string{
	RingMiss:        "miss",
	RingDouble:      "double",
	RingOuterSingle: "outer_single",
	RingTriple:      "triple",
	RingInnerSingle: "inner_single",
	RingBull:        "bull",
	RingBullsEye:    "bullseye",
}

// Rings lists every ring in declaration order.
func Rings() []Ring {
	return []Ring{RingMiss, RingDouble, RingOuterSingle, RingTriple, RingInnerSingle, RingBull, RingBullsEye}
}

func (r Ring) String() string {
	if name, ok := ringNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ring(%d)", int(r))
}

// MarshalJSON encodes the ring by name.
func (r Ring) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a ring name.
func (r *Ring) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	ring, err := ParseRing(name)
	if err != nil {
		return err
	}
	*r = ring
	return nil
}

// ParseRing returns the ring with the given name.
func ParseRing(name string) (Ring, error) {
	for ring, n := range ringNames {
		if n == name {
			return ring, nil
		}
	}
	return RingMiss, fmt.Errorf("unknown ring %q", name)
}

// Multiplier returns the factor applied to the sector value.
func (r Ring) Multiplier() int {
	switch r {
	case RingMiss:
		return 0
	case RingDouble:
		return 2
	case RingTriple:
		return 3
	default:
		return 1
	}
}

// Score is the outcome of a single throw.
type Score struct {
	Value int  `json:"value"`
	Ring  Ring `json:"ring"`
}

// Multiplier returns the ring multiplier.
func (s Score) Multiplier() int {
	return s.Ring.Multiplier()
}

// Points returns the number of points the throw is worth.
func (s Score) Points() int {
	return s.Value * s.Multiplier()
}

// String renders the score the way a caller would announce it, e.g. "T20".
func (s Score) String() string {
	switch s.Ring {
	case RingMiss:
		return "miss"
	case RingBullsEye:
		return "bullseye"
	case RingBull:
		return "bull"
	case RingDouble:
		return fmt.Sprintf("D%d", s.Value)
	case RingTriple:
		return fmt.Sprintf("T%d", s.Value)
	default:
		return fmt.Sprintf("S%d", s.Value)
	}
}
