package eventloop

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"quickcap/src/capture"
	"quickcap/src/clipboard"
	"quickcap/src/config"
	"quickcap/src/geometry"
	"quickcap/src/overlay"
	"quickcap/src/pointer"
)

// movablePointer is a pointer source whose position tests reposition at will.
type movablePointer struct {
	mu  sync.Mutex
	pos geometry.Point
	err error
}

func (m *movablePointer) Position() (geometry.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos, m.err
}

func (m *movablePointer) moveTo(x, y int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = geometry.Point{X: x, Y: y}
}

// fakeOverlay records rect updates and lets tests inject click intents.
type fakeOverlay struct {
	rects   chan geometry.Rect
	hides   chan struct{}
	intents chan overlay.Intent
}

func newFakeOverlay() *fakeOverlay {
	return &fakeOverlay{
		rects:   make(chan geometry.Rect, 64),
		hides:   make(chan struct{}, 16),
		intents: make(chan overlay.Intent, 4),
	}
}

// SetRect never blocks: when the buffer is full the oldest update is
// dropped, keeping the newest rect visible to waiting tests.
func (f *fakeOverlay) SetRect(r geometry.Rect) {
	for {
		select {
		case f.rects <- r:
			return
		default:
			select {
			case <-f.rects:
			default:
			}
		}
	}
}
func (f *fakeOverlay) Hide() {
	select {
	case f.hides <- struct{}{}:
	default:
	}
}
func (f *fakeOverlay) Intents() <-chan overlay.Intent { return f.intents }
func (f *fakeOverlay) Close()                         {}

// statusRecorder collects every status update in order.
type statusRecorder struct {
	mu     sync.Mutex
	labels []string
	ch     chan string
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{ch: make(chan string, 64)}
}

func (s *statusRecorder) set(label string) {
	s.mu.Lock()
	s.labels = append(s.labels, label)
	s.mu.Unlock()
	s.ch <- label
}

// waitFor blocks until label arrives or the deadline passes.
func (s *statusRecorder) waitFor(t *testing.T, label string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-s.ch:
			if got == label {
				return
			}
		case <-deadline:
			t.Fatalf("status %q never arrived; saw %v", label, s.all())
		}
	}
}

func (s *statusRecorder) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.labels...)
}

func testImage(t *testing.T) *capture.Image {
	t.Helper()
	img, err := capture.FromRGBA(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if err != nil {
		t.Fatalf("FromRGBA: %v", err)
	}
	return img
}

type publishRecord struct {
	formats []clipboard.Format
	png     []byte
}

type harness struct {
	loop      *Loop
	mouse     *movablePointer
	overlay   *fakeOverlay
	status    *statusRecorder
	published chan publishRecord
	cancel    context.CancelFunc
	stopped   chan struct{}

	publishMu  sync.Mutex
	publishErr error
}

// failPublish makes subsequent publish attempts fail with err; nil restores
// normal operation.
func (h *harness) failPublish(err error) {
	h.publishMu.Lock()
	h.publishErr = err
	h.publishMu.Unlock()
}

func startLoop(t *testing.T, grab func(geometry.Rect) (*capture.Image, error)) *harness {
	t.Helper()

	h := &harness{
		mouse:     &movablePointer{},
		overlay:   newFakeOverlay(),
		status:    newStatusRecorder(),
		published: make(chan publishRecord, 4),
		stopped:   make(chan struct{}),
	}

	cfg := config.Default()
	cfg.PollInterval = time.Millisecond

	h.loop = New(&cfg, Deps{
		Pointer: pointer.Source(h.mouse),
		Overlay: h.overlay,
		Capture: grab,
		Publish: func(c clipboard.Content) (<-chan struct{}, error) {
			h.publishMu.Lock()
			failErr := h.publishErr
			h.publishMu.Unlock()
			if failErr != nil {
				return nil, failErr
			}
			data, err := c.Provide(clipboard.FormatImage)
			if err != nil {
				return nil, err
			}
			h.published <- publishRecord{formats: c.Formats(), png: data}
			return nil, nil
		},
		Status: h.status.set,
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.stopped)
		h.loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.stopped:
		case <-time.After(2 * time.Second):
			t.Error("loop did not stop")
		}
	})
	return h
}

// waitForRect drains overlay updates until one matches want.
func waitForRect(t *testing.T, h *harness, want geometry.Rect) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-h.overlay.rects:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("overlay never showed %+v", want)
		}
	}
}

func TestFullSelectionAndCapture(t *testing.T) {
	captured := make(chan geometry.Rect, 1)
	h := startLoop(t, func(r geometry.Rect) (*capture.Image, error) {
		captured <- r
		return testImage(t), nil
	})

	// First trigger from idle seeds the anchor and starts tracking.
	h.mouse.moveTo(100, 100)
	h.loop.Trigger()
	h.status.waitFor(t, StatusCorner1)
	waitForRect(t, h, geometry.Rect{X: 100, Y: 100, Width: 1, Height: 1})

	// Second trigger pins corner 1; the moving end is now corner 2.
	h.loop.Trigger()
	h.status.waitFor(t, StatusCorner2)
	h.mouse.moveTo(300, 50)
	waitForRect(t, h, geometry.Rect{X: 100, Y: 50, Width: 200, Height: 50})

	// Third trigger locks the rectangle; confirm captures it.
	h.loop.Trigger()
	h.status.waitFor(t, StatusLocked)
	h.loop.Confirm()

	select {
	case r := <-captured:
		want := geometry.Rect{X: 100, Y: 50, Width: 200, Height: 50}
		if r != want {
			t.Errorf("captured rect = %+v, want %+v", r, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("capture never ran")
	}

	select {
	case rec := <-h.published:
		if len(rec.formats) != 1 || rec.formats[0] != clipboard.FormatImage {
			t.Errorf("offered formats = %v, want [image]", rec.formats)
		}
		if len(rec.png) == 0 {
			t.Error("published empty PNG")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("nothing was published")
	}
	h.status.waitFor(t, StatusCopied)
}

func TestConfirmWithoutSelectionPublishesNothing(t *testing.T) {
	h := startLoop(t, func(geometry.Rect) (*capture.Image, error) {
		t.Error("capture should not run without a selection")
		return nil, errors.New("unreachable")
	})

	h.loop.Confirm()
	time.Sleep(50 * time.Millisecond)

	select {
	case <-h.published:
		t.Fatal("published without a selection")
	default:
	}
}

func TestCancelHidesOverlayAndResets(t *testing.T) {
	h := startLoop(t, func(geometry.Rect) (*capture.Image, error) {
		t.Error("capture should not run after cancel")
		return nil, errors.New("unreachable")
	})

	h.mouse.moveTo(10, 10)
	h.loop.Trigger()
	waitForRect(t, h, geometry.Rect{X: 10, Y: 10, Width: 1, Height: 1})

	h.loop.Cancel()
	h.status.waitFor(t, StatusIdle)

	select {
	case <-h.overlay.hides:
	case <-time.After(2 * time.Second):
		t.Fatal("overlay was not hidden on cancel")
	}

	// A confirm after cancel has nothing to act on.
	h.loop.Confirm()
	time.Sleep(50 * time.Millisecond)
	select {
	case <-h.published:
		t.Fatal("published after cancel")
	default:
	}
}

func TestOverlayClickConfirms(t *testing.T) {
	h := startLoop(t, func(r geometry.Rect) (*capture.Image, error) {
		return testImage(t), nil
	})

	h.mouse.moveTo(5, 5)
	h.loop.Trigger()
	waitForRect(t, h, geometry.Rect{X: 5, Y: 5, Width: 1, Height: 1})

	h.overlay.intents <- overlay.IntentConfirm
	select {
	case <-h.published:
	case <-time.After(2 * time.Second):
		t.Fatal("overlay click did not publish")
	}
}

func TestOverlayClickCancels(t *testing.T) {
	h := startLoop(t, func(geometry.Rect) (*capture.Image, error) {
		t.Error("capture should not run on cancel click")
		return nil, errors.New("unreachable")
	})

	h.mouse.moveTo(5, 5)
	h.loop.Trigger()
	waitForRect(t, h, geometry.Rect{X: 5, Y: 5, Width: 1, Height: 1})

	h.overlay.intents <- overlay.IntentCancel
	h.status.waitFor(t, StatusIdle)
	select {
	case <-h.overlay.hides:
	case <-time.After(2 * time.Second):
		t.Fatal("overlay not hidden after cancel click")
	}
}

func TestCaptureFailureReportsNotCopied(t *testing.T) {
	h := startLoop(t, func(geometry.Rect) (*capture.Image, error) {
		return nil, errors.New("screen went away")
	})

	h.mouse.moveTo(20, 20)
	h.loop.Trigger()
	waitForRect(t, h, geometry.Rect{X: 20, Y: 20, Width: 1, Height: 1})
	h.loop.Confirm()

	h.status.waitFor(t, StatusNotCopied)
	select {
	case <-h.published:
		t.Fatal("published a failed capture")
	default:
	}
}

func TestClipboardFailureReportsNotCopied(t *testing.T) {
	h := startLoop(t, func(geometry.Rect) (*capture.Image, error) {
		return testImage(t), nil
	})
	h.failPublish(errors.New("clipboard owner vanished"))

	h.mouse.moveTo(30, 30)
	h.loop.Trigger()
	waitForRect(t, h, geometry.Rect{X: 30, Y: 30, Width: 1, Height: 1})
	h.loop.Confirm()

	h.status.waitFor(t, StatusNotCopied)
	select {
	case <-h.published:
		t.Fatal("published despite clipboard failure")
	default:
	}

	// The failure must not wedge the loop: the next selection still
	// captures and publishes.
	h.failPublish(nil)
	h.mouse.moveTo(40, 40)
	h.loop.Trigger()
	waitForRect(t, h, geometry.Rect{X: 40, Y: 40, Width: 1, Height: 1})
	h.loop.Confirm()
	select {
	case <-h.published:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not recover after clipboard failure")
	}
	h.status.waitFor(t, StatusCopied)
}

func TestPointerErrorSkipsSamples(t *testing.T) {
	h := startLoop(t, func(geometry.Rect) (*capture.Image, error) {
		return testImage(t), nil
	})

	h.mouse.moveTo(50, 50)
	h.loop.Trigger()
	waitForRect(t, h, geometry.Rect{X: 50, Y: 50, Width: 1, Height: 1})

	// While the pointer is unreadable the preview keeps its last rectangle.
	h.mouse.mu.Lock()
	h.mouse.err = errors.New("device gone")
	h.mouse.mu.Unlock()
	time.Sleep(20 * time.Millisecond)

	h.mouse.mu.Lock()
	h.mouse.err = nil
	h.mouse.pos = geometry.Point{X: 80, Y: 90}
	h.mouse.mu.Unlock()
	waitForRect(t, h, geometry.Rect{X: 50, Y: 50, Width: 30, Height: 40})
}

func TestRelockKeepsPinnedCorner(t *testing.T) {
	h := startLoop(t, func(geometry.Rect) (*capture.Image, error) {
		return testImage(t), nil
	})

	h.mouse.moveTo(10, 10)
	h.loop.Trigger()
	h.status.waitFor(t, StatusCorner1)
	h.loop.Trigger()
	h.status.waitFor(t, StatusCorner2)
	h.mouse.moveTo(60, 60)
	waitForRect(t, h, geometry.Rect{X: 10, Y: 10, Width: 50, Height: 50})
	h.loop.Trigger()
	h.status.waitFor(t, StatusLocked)

	// Triggering again from locked resumes from the kept corner, not from
	// scratch: the first tracked corner starts at the old corner 2.
	h.loop.Trigger()
	h.status.waitFor(t, StatusCorner1)
	h.mouse.moveTo(200, 200)
	waitForRect(t, h, geometry.Rect{X: 60, Y: 60, Width: 140, Height: 140})
}
