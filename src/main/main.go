package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"quickcap/src/clipboard"
	"quickcap/src/config"
	"quickcap/src/eventloop"
	"quickcap/src/hotkey"
	"quickcap/src/logutil"
	"quickcap/src/notification"
	"quickcap/src/singleinstance"
	"quickcap/src/tray"
)

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// Lock main goroutine to its own OS thread to prevent it from sharing
	// the overlay thread's message queue
	runtime.LockOSThread()

	// Load .env early so the port range is applied before the pre-flight scan
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logutil.Setup(cfg.EnableFileLogging)

	guard, err := singleinstance.Acquire(context.Background())
	if err != nil {
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			fmt.Println("quickcap is already running")
			os.Exit(1)
		}
		log.Fatalf("Failed to acquire single-instance lock: %v", err)
	}
	defer guard.Close()

	if err := clipboard.Init(); err != nil {
		log.Fatalf("Failed to initialize clipboard: %v", err)
	}

	log.Printf("QuickCap initialized")
	log.Printf("Trigger key: %s", cfg.TriggerKey)
	log.Printf("Poll interval: %v", cfg.PollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trayIcon := tray.New(tray.Config{
		Tooltip: fmt.Sprintf("Press %s to select a region", cfg.TriggerKey),
		OnAbout: func() { notification.ShowInfo("About QuickCap", aboutText(cfg.TriggerKey)) },
		OnExit:  func() { cancel() },
	})
	go trayIcon.Run()
	defer trayIcon.Stop()

	loop := eventloop.New(cfg, eventloop.Deps{
		Status: trayIcon.UpdateTooltip,
	})

	hotkey.Listen(hotkey.Bindings{
		TriggerKey: cfg.TriggerKey,
		OnTrigger:  loop.Trigger,
		OnConfirm:  loop.Confirm,
		OnCancel:   loop.Cancel,
	})

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("event loop stopped: %v", err)
	}
}

func aboutText(triggerKey string) string {
	return fmt.Sprintf(`QuickCap copies a screen region to the clipboard.

Press %[1]s to place the selection:
  1st press starts it at the pointer,
  2nd press pins the corner and stretches to the pointer,
  3rd press locks the rectangle in place.

Press Enter or left-click the preview to copy it.
Press Escape or any other click to discard it.

Pressing %[1]s again extends the locked rectangle from
its last corner.`, triggerKey)
}
