//go:build !windows

package notification

import "log"

func showInfoDialog(title, message string) {
	log.Printf("%s: %s", title, message)
}
