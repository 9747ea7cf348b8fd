//go:build windows

package platform

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32         = windows.NewLazySystemDLL("user32.dll")
	sendInput      = user32.NewProc("SendInput")
	mapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
)

const (
	inputKeyboard  = 1
	keyeventfKeyup = 0x0002
	mapvkVkToVsc   = 0
	vkControl      = 0x11
	vkC            = 0x43
	vkV            = 0x56
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte // Padding to match C struct size
}

// Keyboard sends Ctrl+C and Ctrl+V with SendInput
type Keyboard struct{}

// NewKeySender creates the Windows key sender
func NewKeySender() (*Keyboard, error) {
	return &Keyboard{}, nil
}

// Copy simulates Ctrl+C
func (k *Keyboard) Copy() error {
	return sendCtrlChord(vkC)
}

// Paste simulates Ctrl+V
func (k *Keyboard) Paste() error {
	return sendCtrlChord(vkV)
}

// sendCtrlChord presses Ctrl+vk using scan codes, which elevated windows also accept
func sendCtrlChord(vk uintptr) error {
	ctrlScan, _, _ := mapVirtualKeyW.Call(vkControl, mapvkVkToVsc)
	keyScan, _, _ := mapVirtualKeyW.Call(vk, mapvkVkToVsc)

	key := func(code, scan uintptr, flags uint32) input {
		return input{
			inputType: inputKeyboard,
			ki: keyboardInput{
				wVk:     uint16(code),
				wScan:   uint16(scan),
				dwFlags: flags,
			},
		}
	}

	inputs := []input{
		key(vkControl, ctrlScan, 0),
		key(vk, keyScan, 0),
		key(vk, keyScan, keyeventfKeyup),
		key(vkControl, ctrlScan, keyeventfKeyup),
	}

	// Send all inputs at once so nothing interleaves between down and up
	ret, _, err := sendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if ret == 0 {
		return fmt.Errorf("SendInput failed: %w", err)
	}

	time.Sleep(20 * time.Millisecond)
	return nil
}
