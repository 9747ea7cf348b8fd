package config

import (
	"fmt"
	"strings"
)

// KeyCombo represents a parsed keyboard combination
type KeyCombo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool // Cmd on macOS, Win on Windows
	Key   string
}

// String renders the combo in the canonical "super+shift+e" form
func (kc KeyCombo) String() string {
	var parts []string
	if kc.Ctrl {
		parts = append(parts, "ctrl")
	}
	if kc.Alt {
		parts = append(parts, "alt")
	}
	if kc.Super {
		parts = append(parts, "super")
	}
	if kc.Shift {
		parts = append(parts, "shift")
	}
	return strings.Join(append(parts, kc.Key), "+")
}

// ParseHotkey parses a hotkey combo string like "super+shift+e" or "cmd+shift+e".
// A trigger key is required: the listener fires on the key going down.
func ParseHotkey(combo string) (KeyCombo, error) {
	var kc KeyCombo
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return kc, fmt.Errorf("empty hotkey combo")
	}

	parts := strings.Split(strings.ToLower(combo), "+")
	for i, part := range parts {
		part = strings.TrimSpace(part)

		switch part {
		case "ctrl", "control":
			kc.Ctrl = true
		case "shift":
			kc.Shift = true
		case "alt", "option", "opt":
			kc.Alt = true
		case "super", "cmd", "command", "win", "windows", "meta":
			kc.Super = true
		case "":
			return kc, fmt.Errorf("empty key in combo %q", combo)
		default:
			if i != len(parts)-1 {
				return kc, fmt.Errorf("unknown modifier: %s", part)
			}
			kc.Key = part
		}
	}

	if kc.Key == "" {
		return kc, fmt.Errorf("no trigger key specified in combo %q", combo)
	}
	if !kc.Ctrl && !kc.Shift && !kc.Alt && !kc.Super {
		return kc, fmt.Errorf("no modifiers specified in combo %q", combo)
	}

	return kc, nil
}
