//go:build darwin || linux

package hotkey

import (
	"context"
	"fmt"

	hook "github.com/robotn/gohook"
	"go.uber.org/zap"

	"markestedt/refix/config"
	"markestedt/refix/logger"
)

var modifierKeys = map[string]modifier{
	"ctrl": modCtrl, "rctrl": modCtrl,
	"shift": modShift, "rshift": modShift,
	"alt": modAlt, "ralt": modAlt,
	"cmd": modSuper, "rcmd": modSuper,
}

// hookTrigger watches every key event and checks modifier state itself
type hookTrigger struct{}

// NewHookTrigger returns a trigger backed by a global keyboard hook
func NewHookTrigger() Trigger {
	return hookTrigger{}
}

func (hookTrigger) Listen(ctx context.Context, combo config.KeyCombo) (<-chan Edge, error) {
	key, ok := hook.Keycode[combo.Key]
	if !ok {
		return nil, fmt.Errorf("unknown key: %s", combo.Key)
	}

	classes := make(map[uint16]modifier)
	for name, mod := range modifierKeys {
		if code, ok := hook.Keycode[name]; ok {
			classes[code] = mod
		}
	}

	evChan := hook.Start()
	if evChan == nil {
		return nil, fmt.Errorf("keyboard hook did not start")
	}

	out := make(chan Edge, 4)
	go func() {
		defer hook.End()

		tracker := newKeyTracker(key, combo, classes)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-evChan:
				if !ok {
					return
				}
				switch ev.Kind {
				case hook.KeyHold:
					if tracker.press(ev.Keycode) {
						sendEdge(out, Pressed)
					}
				case hook.KeyUp:
					if tracker.release(ev.Keycode) {
						sendEdge(out, Released)
					}
				}
			}
		}
	}()

	logger.Debug("Keyboard hook started", zap.Uint16("keycode", key))
	return out, nil
}

// modifiersDown has no portable query here; the tracker's Released edge covers it
func modifiersDown() bool { return false }
