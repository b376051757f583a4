package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"

	"quickcap/src/geometry"
)

var (
	// ErrNoDisplay is returned when no active display is available, for
	// example under a headless session or when screen recording is denied.
	ErrNoDisplay = errors.New("no active displays found")
	// ErrOffscreen is returned when the requested rectangle is partially or
	// fully outside the virtual screen.
	ErrOffscreen = errors.New("rectangle outside the visible screen area")
)

// Image is an immutable pixel buffer produced by Grab. Callers get read-only
// views; nothing mutates the buffer after creation.
type Image struct {
	rgba *image.RGBA
	png  []byte
}

// Bounds returns the captured screen rectangle.
func (i *Image) Bounds() image.Rectangle { return i.rgba.Bounds() }

// RGBA returns the raw pixel data. Treat as read-only.
func (i *Image) RGBA() *image.RGBA { return i.rgba }

// PNG returns the PNG encoding of the captured pixels. Treat as read-only.
func (i *Image) PNG() []byte { return i.png }

// Grab reads the live pixel contents of rect from the OS at the rectangle's
// native resolution, with no scaling or color-space conversion. All failures
// come back as wrapped errors; Grab never panics past this boundary.
func Grab(rect geometry.Rect) (*Image, error) {
	if rect.Width < 1 || rect.Height < 1 {
		return nil, fmt.Errorf("invalid region dimensions: width=%d, height=%d", rect.Width, rect.Height)
	}

	union, err := VirtualBounds()
	if err != nil {
		return nil, err
	}

	bounds := image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height)
	if !bounds.In(union) {
		return nil, fmt.Errorf("%w: %v not inside %v", ErrOffscreen, bounds, union)
	}

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %w", err)
	}

	return FromRGBA(img)
}

// FromRGBA wraps an already-captured pixel buffer, encoding it as PNG. The
// buffer must not be mutated afterwards.
func FromRGBA(img *image.RGBA) (*Image, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return &Image{rgba: img, png: buf.Bytes()}, nil
}

// VirtualBounds returns the union of all active display bounds.
func VirtualBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, ErrNoDisplay
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}

// PrimaryBounds returns the bounds of the primary display (display 0).
func PrimaryBounds() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, ErrNoDisplay
	}
	return screenshot.GetDisplayBounds(0), nil
}
