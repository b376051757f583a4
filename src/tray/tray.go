package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"
)

const title = "QuickCap"

// Config wires the tray menu to the rest of the application.
type Config struct {
	// Tooltip is the initial hover text. UpdateTooltip changes it later.
	Tooltip string
	// OnAbout is invoked when the About menu item is clicked.
	OnAbout func()
	// OnExit is invoked after the tray has shut down, when the user picks
	// Quit from the menu.
	OnExit func()
}

// Tray is the system tray presence. The selection status labels are pushed
// into the tooltip so the current step is visible on hover.
type Tray struct {
	cfg Config

	mu      sync.Mutex
	ready   bool
	tooltip string
}

func New(cfg Config) *Tray {
	if cfg.Tooltip == "" {
		cfg.Tooltip = title
	}
	return &Tray{cfg: cfg, tooltip: cfg.Tooltip}
}

// Run starts the tray loop. It blocks until Quit is selected or Stop is
// called, so callers usually run it on its own goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Stop removes the tray icon and ends Run.
func (t *Tray) Stop() {
	systray.Quit()
}

// UpdateTooltip replaces the hover text. Safe from any goroutine, including
// before the tray is ready (the text is applied once it is).
func (t *Tray) UpdateTooltip(text string) {
	t.mu.Lock()
	t.tooltip = text
	ready := t.ready
	t.mu.Unlock()
	if ready {
		systray.SetTooltip(title + " - " + text)
	}
}

func (t *Tray) onReady() {
	systray.SetIcon([]byte(IconSVG))
	systray.SetTitle(title)

	t.mu.Lock()
	t.ready = true
	tooltip := t.tooltip
	t.mu.Unlock()
	systray.SetTooltip(title + " - " + tooltip)

	mAbout := systray.AddMenuItem("About", "Usage instructions")
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mAbout.ClickedCh:
				if t.cfg.OnAbout != nil {
					t.cfg.OnAbout()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
			}
		}
	}()

	log.Printf("tray: ready")
}

func (t *Tray) onExit() {
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}
