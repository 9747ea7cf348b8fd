// Package platform wraps the OS clipboard and synthetic copy/paste keystrokes.
package platform

import (
	"context"
	"errors"
)

// ErrNoText means there was nothing to capture: no selection or an empty clipboard
var ErrNoText = errors.New("no text selected or clipboard empty")

// Clipboard provides clipboard access
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
}

// TextSource returns the text a rewrite should operate on
type TextSource interface {
	GetText(ctx context.Context) (string, error)
}

// Paster simulates paste operation
type Paster interface {
	Paste() error
}

// KeySender synthesizes the platform copy and paste shortcuts
type KeySender interface {
	Copy() error
	Paste() error
}

// KeyRelease waits until the user has let go of the shortcut that started a capture
type KeyRelease interface {
	WaitReleased(ctx context.Context) error
}
