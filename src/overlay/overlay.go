package overlay

import (
	"image/color"

	"quickcap/src/geometry"
)

// Intent is a user decision clicked directly on the preview overlay.
type Intent int

const (
	// IntentConfirm: primary button click, capture the current rectangle.
	IntentConfirm Intent = iota
	// IntentCancel: any other button, discard the selection.
	IntentCancel
)

// Style carries the already-validated presentation values from configuration.
type Style struct {
	Fill    color.RGBA
	Border  color.RGBA
	Opacity float64
}

// Overlay is the borderless, translucent, always-on-top selection preview.
// It is purely reactive: it renders exactly the rectangles it is given and
// never computes geometry itself. All methods are safe to call from the
// event-loop goroutine; implementations own their rendering thread.
type Overlay interface {
	// SetRect repositions and resizes the overlay to rect in screen
	// coordinates, showing it if hidden. On first show the overlay
	// acquires input focus so keyboard confirm/cancel reach the user's
	// hands immediately.
	SetRect(rect geometry.Rect)
	// Hide removes the overlay from screen. Idempotent.
	Hide()
	// Intents delivers clicks on the overlay surface. The channel is
	// never closed while the overlay is open.
	Intents() <-chan Intent
	// Close tears the overlay down. No methods may be called after.
	Close()
}

// New returns the platform overlay implementation.
func New(style Style) Overlay {
	return newPlatformOverlay(style)
}
