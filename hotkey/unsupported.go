//go:build !darwin && !linux && !windows

package hotkey

import (
	"context"

	"markestedt/refix/config"
)

type unsupportedTrigger struct{}

func (unsupportedTrigger) Listen(context.Context, config.KeyCombo) (<-chan Edge, error) {
	return nil, ErrUnsupported
}

// NewRegisterTrigger always fails on this platform
func NewRegisterTrigger() Trigger { return unsupportedTrigger{} }

// NewHookTrigger always fails on this platform
func NewHookTrigger() Trigger { return unsupportedTrigger{} }

func modifiersDown() bool { return false }
