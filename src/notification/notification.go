package notification

// ShowInfo displays an informational dialog with the given title and text.
// It returns immediately; the dialog runs on its own goroutine so the caller
// never blocks on user interaction.
func ShowInfo(title, message string) {
	go showInfoDialog(title, message)
}
