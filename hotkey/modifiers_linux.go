package hotkey

import (
	xhotkey "golang.design/x/hotkey"

	"markestedt/refix/config"
)

// Mod1 and Mod4 are Alt and Super on the usual X11 keymaps
func modifiers(combo config.KeyCombo) []xhotkey.Modifier {
	var mods []xhotkey.Modifier
	if combo.Ctrl {
		mods = append(mods, xhotkey.ModCtrl)
	}
	if combo.Shift {
		mods = append(mods, xhotkey.ModShift)
	}
	if combo.Alt {
		mods = append(mods, xhotkey.Mod1)
	}
	if combo.Super {
		mods = append(mods, xhotkey.Mod4)
	}
	return mods
}
