//go:build !windows

package overlay

import (
	"log"
	"sync"

	"quickcap/src/geometry"
)

// stubOverlay logs what a real preview would do. The selection flow still
// works end to end on platforms without the native window: keyboard triggers
// drive the state machine and captures land on the clipboard, there is just
// no on-screen rectangle.
type stubOverlay struct {
	mu      sync.Mutex
	rect    geometry.Rect
	visible bool
	intents chan Intent
}

func newPlatformOverlay(style Style) Overlay {
	log.Printf("overlay: native preview window not implemented for this platform")
	return &stubOverlay{intents: make(chan Intent)}
}

func (o *stubOverlay) SetRect(rect geometry.Rect) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.visible {
		log.Printf("overlay: shown at %+v", rect)
	}
	o.rect = rect
	o.visible = true
}

func (o *stubOverlay) Hide() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.visible {
		log.Printf("overlay: hidden")
	}
	o.visible = false
}

func (o *stubOverlay) Intents() <-chan Intent { return o.intents }

func (o *stubOverlay) Close() {}
