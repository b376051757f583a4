//go:build windows

package overlay

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"quickcap/src/geometry"
)

// Custom thread messages for the overlay window thread.
const (
	wmApplyRect = win.WM_USER + 1
	wmHide      = win.WM_USER + 2
)

var (
	user32DLL                    = windows.NewLazySystemDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
)

// winOverlay renders the selection preview as a layered topmost popup window.
// The window lives on its own locked OS thread running a message loop;
// SetRect/Hide post messages into that loop, so callers never block on GDI.
type winOverlay struct {
	style   Style
	intents chan Intent

	mu      sync.Mutex
	pending geometry.Rect

	hwnd    win.HWND
	visible bool
	focused bool

	ready chan struct{}
	done  chan struct{}
}

// Single overlay instance; the window procedure is a package-level callback.
var activeOverlay *winOverlay

func newPlatformOverlay(style Style) Overlay {
	o := &winOverlay{
		style:   style,
		intents: make(chan Intent, 4),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	activeOverlay = o
	go o.windowThread()
	<-o.ready
	return o
}

func (o *winOverlay) SetRect(rect geometry.Rect) {
	o.mu.Lock()
	o.pending = rect
	hwnd := o.hwnd
	o.mu.Unlock()
	if hwnd != 0 {
		win.PostMessage(hwnd, wmApplyRect, 0, 0)
	}
}

func (o *winOverlay) Hide() {
	o.mu.Lock()
	hwnd := o.hwnd
	o.mu.Unlock()
	if hwnd != 0 {
		win.PostMessage(hwnd, wmHide, 0, 0)
	}
}

func (o *winOverlay) Intents() <-chan Intent { return o.intents }

func (o *winOverlay) Close() {
	o.mu.Lock()
	hwnd := o.hwnd
	o.mu.Unlock()
	if hwnd != 0 {
		win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
	}
	select {
	case <-o.done:
	case <-time.After(2 * time.Second):
		log.Printf("OVERLAY: window thread did not stop in time")
	}
}

// windowThread owns the window for its whole lifetime. Windows ties a
// window's message queue to the creating thread, hence the lock.
func (o *winOverlay) windowThread() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(o.done)

	classNameStr := fmt.Sprintf("QuickCapPreview_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)

	fillBrush := win.CreateSolidBrush(colorref(o.style.Fill))
	defer win.DeleteObject(win.HGDIOBJ(fillBrush))

	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(overlayWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
		HbrBackground: win.HBRUSH(fillBrush),
		LpszClassName: className,
	}
	if atom := win.RegisterClassEx(&wndClass); atom == 0 {
		log.Printf("OVERLAY: failed to register window class")
		close(o.ready)
		return
	}
	defer win.UnregisterClass(className)

	hwnd := win.CreateWindowEx(
		win.WS_EX_LAYERED|win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		className,
		syscall.StringToUTF16Ptr("Selection"),
		win.WS_POPUP,
		0, 0, 1, 1,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		log.Printf("OVERLAY: failed to create preview window")
		close(o.ready)
		return
	}

	alpha := byte(o.style.Opacity * 255)
	if !win.SetLayeredWindowAttributes(hwnd, 0, alpha, win.LWA_ALPHA) {
		log.Printf("OVERLAY: failed to set layered alpha")
	}

	o.mu.Lock()
	o.hwnd = hwnd
	o.mu.Unlock()
	close(o.ready)

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}

	o.mu.Lock()
	o.hwnd = 0
	o.mu.Unlock()
}

func (o *winOverlay) applyPendingRect() {
	o.mu.Lock()
	rect := o.pending
	hwnd := o.hwnd
	o.mu.Unlock()
	if hwnd == 0 {
		return
	}

	win.SetWindowPos(hwnd, win.HWND_TOPMOST,
		int32(rect.X), int32(rect.Y), int32(rect.Width), int32(rect.Height),
		win.SWP_SHOWWINDOW|win.SWP_NOACTIVATE)
	win.InvalidateRect(hwnd, nil, true)

	if !o.visible {
		o.visible = true
		if !o.focused {
			// Acquire focus on the first show of each selection cycle so
			// clicks on the preview land without an extra activation.
			procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
			win.SetForegroundWindow(hwnd)
			win.SetFocus(hwnd)
			o.focused = true
		}
	}
}

func (o *winOverlay) hideWindow() {
	o.mu.Lock()
	hwnd := o.hwnd
	o.mu.Unlock()
	if hwnd != 0 {
		win.ShowWindow(hwnd, win.SW_HIDE)
	}
	o.visible = false
	// Next cycle's first show reacquires focus.
	o.focused = false
}

func (o *winOverlay) postIntent(intent Intent) {
	select {
	case o.intents <- intent:
	default:
		log.Printf("OVERLAY: intent dropped, queue full")
	}
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	o := activeOverlay
	if o == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case wmApplyRect:
		o.applyPendingRect()
		return 0

	case wmHide:
		o.hideWindow()
		return 0

	case win.WM_LBUTTONDOWN:
		o.postIntent(IntentConfirm)
		return 0

	case win.WM_RBUTTONDOWN, win.WM_MBUTTONDOWN:
		o.postIntent(IntentCancel)
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		drawBorder(hwnd, hdc, o.style)
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_NCHITTEST:
		// Force the whole surface to be client area so clicks always
		// reach the window procedure.
		return uintptr(win.HTCLIENT)

	case win.WM_CLOSE:
		win.DestroyWindow(hwnd)
		return 0

	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// drawBorder outlines the client area with a 1px pen in the configured
// border color. The fill comes from the class background brush.
func drawBorder(hwnd win.HWND, hdc win.HDC, style Style) {
	gdi32 := windows.NewLazySystemDLL("gdi32.dll")
	createPen := gdi32.NewProc("CreatePen")
	rectangle := gdi32.NewProc("Rectangle")

	var rc win.RECT
	win.GetClientRect(hwnd, &rc)

	pen, _, _ := createPen.Call(0 /* PS_SOLID */, 1, uintptr(colorref(style.Border)))
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))

	rectangle.Call(uintptr(hdc), uintptr(rc.Left), uintptr(rc.Top), uintptr(rc.Right), uintptr(rc.Bottom))

	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(pen))
}

// colorref converts an RGBA color to the GDI 0x00BBGGRR layout.
func colorref(c color.RGBA) win.COLORREF {
	return win.COLORREF(uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R))
}
