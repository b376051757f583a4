//go:build windows

package main

import "syscall"

// enableDPIAwareness sets per-monitor DPI awareness so overlay coordinates
// match physical pixels on scaled displays.
func enableDPIAwareness() {
	// Prefer per-monitor DPI awareness via Shcore.SetProcessDpiAwareness (Win 8.1+)
	shcore := syscall.NewLazyDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const PROCESS_PER_MONITOR_DPI_AWARE = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		_, _, _ = setProcessDpiAwareness.Call(uintptr(PROCESS_PER_MONITOR_DPI_AWARE))
		return
	}
	// Fallback: user32.SetProcessDPIAware (Vista+)
	user32 := syscall.NewLazyDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err == nil {
		_, _, _ = setProcessDPIAware.Call()
	}
}
