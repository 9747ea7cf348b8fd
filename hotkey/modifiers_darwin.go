package hotkey

import (
	xhotkey "golang.design/x/hotkey"

	"markestedt/refix/config"
)

func modifiers(combo config.KeyCombo) []xhotkey.Modifier {
	var mods []xhotkey.Modifier
	if combo.Ctrl {
		mods = append(mods, xhotkey.ModCtrl)
	}
	if combo.Shift {
		mods = append(mods, xhotkey.ModShift)
	}
	if combo.Alt {
		mods = append(mods, xhotkey.ModOption)
	}
	if combo.Super {
		mods = append(mods, xhotkey.ModCmd)
	}
	return mods
}
