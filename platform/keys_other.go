//go:build !darwin && !linux && !windows

package platform

import (
	"fmt"
	"runtime"
)

// Keyboard is unavailable on this platform
type Keyboard struct{}

func NewKeySender() (*Keyboard, error) {
	return nil, fmt.Errorf("synthetic key events are not supported on %s", runtime.GOOS)
}

func (k *Keyboard) Copy() error  { return fmt.Errorf("not supported") }
func (k *Keyboard) Paste() error { return fmt.Errorf("not supported") }
