package pointer

import (
	"quickcap/src/geometry"

	"github.com/go-vgo/robotgo"
)

// Source reads the current pointer position in screen coordinates. It is
// polled by the event loop; implementations never push events.
type Source interface {
	Position() (geometry.Point, error)
}

// Func adapts a plain function to a Source.
type Func func() (geometry.Point, error)

func (f Func) Position() (geometry.Point, error) { return f() }

// System returns a Source backed by the OS cursor position.
func System() Source {
	return systemSource{}
}

type systemSource struct{}

func (systemSource) Position() (geometry.Point, error) {
	x, y := robotgo.GetMousePos()
	return geometry.Point{X: x, Y: y}, nil
}
