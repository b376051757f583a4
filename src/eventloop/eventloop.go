package eventloop

import (
	"context"
	"log"
	"time"

	"quickcap/src/capture"
	"quickcap/src/clipboard"
	"quickcap/src/config"
	"quickcap/src/geometry"
	"quickcap/src/overlay"
	"quickcap/src/pointer"
	"quickcap/src/selection"
	"quickcap/src/worker"
)

// Status labels surfaced through the tray tooltip, one per selection step
// plus the two capture outcomes.
const (
	StatusIdle      = "Selection"
	StatusCorner1   = "Extend"
	StatusCorner2   = "From"
	StatusLocked    = "Ready!"
	StatusCopied    = "Copied!"
	StatusNotCopied = "Not Copied!"
)

// A finished capture waits at most this long before it is abandoned.
const captureDeadline = 5 * time.Second

// PublishFunc places content on the system clipboard and returns the
// ownership-loss channel.
type PublishFunc func(clipboard.Content) (<-chan struct{}, error)

// StatusFunc receives transient status text for the user-facing surface.
type StatusFunc func(string)

// Deps are the loop's collaborators. Zero-value fields get production
// defaults; tests inject fakes.
type Deps struct {
	Pointer pointer.Source
	Overlay overlay.Overlay
	Capture worker.CaptureFunc
	Publish PublishFunc
	Status  StatusFunc
}

// Loop is the single-goroutine coordinator: every selection-state mutation,
// poll tick, input event, overlay click and capture result is handled
// serialized on the Run goroutine, in arrival order. That construction is
// what rules out data races on the controller's fields.
type Loop struct {
	ctrl      *selection.Controller
	pointer   pointer.Source
	overlay   overlay.Overlay
	pool      *worker.Pool
	publish   PublishFunc
	status    StatusFunc
	pollEvery time.Duration
	busy      bool

	triggerCh chan struct{}
	confirmCh chan struct{}
	cancelCh  chan struct{}
	results   chan result
}

type result struct {
	img    *capture.Image
	err    error
	cancel context.CancelFunc
}

// New creates an event loop for cfg. Nil fields in deps fall back to the
// real pointer source, platform overlay, screen capture, clipboard publish
// and a logging status sink.
func New(cfg *config.Config, deps Deps) *Loop {
	if deps.Pointer == nil {
		deps.Pointer = pointer.System()
	}
	if deps.Overlay == nil {
		deps.Overlay = overlay.New(overlay.Style{
			Fill:    cfg.FillColor,
			Border:  cfg.BorderColor,
			Opacity: cfg.Opacity,
		})
	}
	if deps.Publish == nil {
		deps.Publish = clipboard.Publish
	}
	if deps.Status == nil {
		deps.Status = func(s string) { log.Printf("status: %s", s) }
	}

	l := &Loop{
		pointer:   deps.Pointer,
		overlay:   deps.Overlay,
		pool:      worker.New(1, deps.Capture),
		publish:   deps.Publish,
		status:    deps.Status,
		pollEvery: cfg.PollInterval,
		triggerCh: make(chan struct{}, 4),
		confirmCh: make(chan struct{}, 4),
		cancelCh:  make(chan struct{}, 4),
		results:   make(chan result, 1),
	}
	l.ctrl = selection.New(overlayListener{deps.Overlay})
	return l
}

// overlayListener forwards controller notifications to the preview window.
// The overlay only ever renders rectangles it is handed here.
type overlayListener struct {
	overlay overlay.Overlay
}

func (f overlayListener) RectChanged(r geometry.Rect) { f.overlay.SetRect(r) }
func (f overlayListener) SelectionHidden()            { f.overlay.Hide() }

// Trigger, Confirm and Cancel post input events into the loop. Safe from any
// goroutine; they never block. A full queue drops the event, so mashing a
// hotkey while the loop is busy cannot wedge the hook callback.

func (l *Loop) Trigger() { post(l.triggerCh) }
func (l *Loop) Confirm() { post(l.confirmCh) }
func (l *Loop) Cancel()  { post(l.cancelCh) }

func post(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Run processes events until ctx is cancelled. It owns the poll ticker:
// while the controller is tracking a corner, each tick samples the pointer
// and feeds it to the state machine; while Idle or Locked the tick is a
// deliberate no-op.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.pollEvery)
	defer ticker.Stop()
	defer l.pool.Close()
	defer l.overlay.Close()

	l.status(StatusIdle)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.handleTick()
		case <-l.triggerCh:
			l.handleTrigger()
		case <-l.confirmCh:
			l.handleConfirm()
		case <-l.cancelCh:
			l.handleCancel()
		case intent := <-l.overlay.Intents():
			if intent == overlay.IntentConfirm {
				l.handleConfirm()
			} else {
				l.handleCancel()
			}
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handleTick() {
	if !l.ctrl.Tracking() {
		return
	}
	p, err := l.pointer.Position()
	if err != nil {
		log.Printf("eventloop: pointer read failed, skipping sample: %v", err)
		return
	}
	l.ctrl.PollSample(p)
}

func (l *Loop) handleTrigger() {
	p, err := l.pointer.Position()
	if err != nil {
		log.Printf("eventloop: pointer read failed, ignoring trigger: %v", err)
		return
	}
	l.ctrl.Trigger(p)
	l.status(stateLabel(l.ctrl.State()))
}

func (l *Loop) handleConfirm() {
	if l.busy {
		log.Printf("eventloop: capture in flight, confirm ignored")
		return
	}
	rect, ok := l.ctrl.Confirm()
	if !ok {
		return
	}
	l.status(StatusIdle)

	jobCtx, cancel := context.WithTimeout(context.Background(), captureDeadline)
	l.busy = true
	submitted := l.pool.Submit(jobCtx, rect, func(img *capture.Image, err error) {
		l.results <- result{img: img, err: err, cancel: cancel}
	})
	if !submitted {
		cancel()
		l.busy = false
		l.status(StatusNotCopied)
	}
}

func (l *Loop) handleCancel() {
	l.ctrl.Cancel()
	l.status(StatusIdle)
}

func (l *Loop) handleResult(res result) {
	defer func() {
		l.busy = false
		if res.cancel != nil {
			res.cancel()
		}
	}()

	if res.err != nil {
		log.Printf("eventloop: capture failed: %v", res.err)
		l.status(StatusNotCopied)
		return
	}

	lost, err := l.publish(clipboard.ImageContent{PNG: res.img.PNG()})
	if err != nil {
		log.Printf("eventloop: clipboard publish failed: %v", err)
		l.status(StatusNotCopied)
		return
	}
	l.status(StatusCopied)

	if lost != nil {
		// Ownership loss needs no action: the buffer is unshared. Logged
		// for traceability only.
		go func() {
			<-lost
			log.Printf("clipboard: ownership lost")
		}()
	}
}

func stateLabel(s selection.State) string {
	switch s {
	case selection.TrackingCorner1:
		return StatusCorner1
	case selection.TrackingCorner2:
		return StatusCorner2
	case selection.Locked:
		return StatusLocked
	}
	return StatusIdle
}
