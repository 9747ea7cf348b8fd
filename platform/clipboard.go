package platform

import (
	"fmt"

	"golang.design/x/clipboard"
)

// InitClipboard prepares the system clipboard. Failure means the
// clipboard subsystem is unavailable and the app cannot run.
func InitClipboard() error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	return nil
}

// SystemClipboard reads and writes UTF-8 text on the system clipboard
type SystemClipboard struct{}

// NewClipboard returns the system clipboard. InitClipboard must have succeeded.
func NewClipboard() Clipboard {
	return &SystemClipboard{}
}

// Get retrieves text from the clipboard
func (c *SystemClipboard) Get() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// Set replaces the clipboard contents
func (c *SystemClipboard) Set(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
