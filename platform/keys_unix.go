//go:build darwin || linux

package platform

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

// Keyboard sends the copy and paste shortcuts through keybd_event.
// Cmd is used on macOS and Ctrl elsewhere.
type Keyboard struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

// NewKeySender creates the virtual keyboard. On Linux the uinput device
// needs a moment before the desktop picks it up.
func NewKeySender() (*Keyboard, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual keyboard: %w", err)
	}
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}
	return &Keyboard{kb: kb}, nil
}

// Copy simulates the copy shortcut
func (k *Keyboard) Copy() error {
	return k.chord(keybd_event.VK_C)
}

// Paste simulates the paste shortcut
func (k *Keyboard) Paste() error {
	return k.chord(keybd_event.VK_V)
}

func (k *Keyboard) chord(key int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.kb.Clear()
	if runtime.GOOS == "darwin" {
		k.kb.HasSuper(true)
	} else {
		k.kb.HasCTRL(true)
	}
	k.kb.SetKeys(key)
	return k.kb.Launching()
}
