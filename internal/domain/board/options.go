package board

// SectorOption applies a configuration option to a SectorTable.
type SectorOption func(*SectorTable)

// WithRotationOffset rotates every wedge counter-clockwise by deg degrees.
// Use it when the board, or the camera looking at it, is mounted off-vertical.
func WithRotationOffset(deg float64) SectorOption {
	return func(t *SectorTable) {
		t.offset = normalize(deg)
	}
}
