//go:build windows

package notification

import (
	"syscall"

	"github.com/lxn/win"
)

func showInfoDialog(title, message string) {
	win.MessageBox(0,
		syscall.StringToUTF16Ptr(message),
		syscall.StringToUTF16Ptr(title),
		win.MB_OK|win.MB_ICONINFORMATION|win.MB_TOPMOST)
}
