package hotkey

import "markestedt/refix/config"

type modifier uint8

const (
	modCtrl modifier = 1 << iota
	modShift
	modAlt
	modSuper
)

func wantedModifiers(combo config.KeyCombo) modifier {
	var m modifier
	if combo.Ctrl {
		m |= modCtrl
	}
	if combo.Shift {
		m |= modShift
	}
	if combo.Alt {
		m |= modAlt
	}
	if combo.Super {
		m |= modSuper
	}
	return m
}

// keyTracker follows key-down/key-up events for hook based triggers and
// decides when the combination fires. Modifiers must match exactly and
// auto-repeat of the trigger key is ignored until it is released.
type keyTracker struct {
	classes map[uint16]modifier
	held    map[uint16]bool
	key     uint16
	want    modifier
	down    bool
	fired   bool
}

func newKeyTracker(key uint16, combo config.KeyCombo, classes map[uint16]modifier) *keyTracker {
	return &keyTracker{
		classes: classes,
		held:    make(map[uint16]bool),
		key:     key,
		want:    wantedModifiers(combo),
	}
}

func (t *keyTracker) active() modifier {
	var m modifier
	for code := range t.held {
		m |= t.classes[code]
	}
	return m
}

// press records a key going down and reports whether the combination fired
func (t *keyTracker) press(code uint16) bool {
	if _, ok := t.classes[code]; ok {
		t.held[code] = true
		return false
	}
	if code != t.key || t.down {
		return false
	}
	t.down = true
	if t.active() != t.want {
		return false
	}
	t.fired = true
	return true
}

// release records a key going up and reports whether the combination that
// fired last is now fully let go
func (t *keyTracker) release(code uint16) bool {
	delete(t.held, code)
	if code == t.key {
		t.down = false
	}
	if !t.fired || t.down || t.active()&t.want != 0 {
		return false
	}
	t.fired = false
	return true
}
