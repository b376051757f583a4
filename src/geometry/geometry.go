package geometry

// Point is a position in screen coordinates, origin at the top-left of the
// primary display.
type Point struct {
	X int
	Y int
}

// IsOrigin reports whether p is (0,0). The selection controller reserves the
// origin as the "no selection started" sentinel for its second corner.
func (p Point) IsOrigin() bool {
	return p.X == 0 && p.Y == 0
}

// Rect is an axis-aligned screen rectangle. Width and Height are always >= 1
// when produced by Normalize.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Normalize converts two arbitrary corner points into a valid rectangle:
// minimum corner, size clamped to at least 1x1 so the preview stays visible
// and capturable even when the corners coincide.
func Normalize(a, b Point) Rect {
	return Rect{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  max(abs(a.X-b.X), 1),
		Height: max(abs(a.Y-b.Y), 1),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
