//go:build windows

package hotkey

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"markestedt/refix/config"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	setWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	callNextHookEx      = user32.NewProc("CallNextHookEx")
	unhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	getMessage          = user32.NewProc("GetMessageW")
	postThreadMessage   = user32.NewProc("PostThreadMessageW")
	getAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
)

const (
	whKeyboardLL = 13
	wmQuit       = 0x0012
	wmKeydown    = 0x0100
	wmSyskeydown = 0x0104
)

const (
	vkShift = 0x10
	vkCtrl  = 0x11
	vkAlt   = 0x12
	vkLwin  = 0x5B // Left Windows key
	vkRwin  = 0x5C // Right Windows key
)

type kbdllhookstruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// hookTrigger installs a low-level keyboard hook and checks modifier
// state with GetAsyncKeyState on every press of the trigger key
type hookTrigger struct {
	mu       sync.Mutex
	vk       uint32
	want     modifier
	pressed  bool
	fired    bool
	out      chan Edge
	threadID atomic.Uint32
}

// NewHookTrigger returns a trigger backed by a global keyboard hook
func NewHookTrigger() Trigger {
	return &hookTrigger{}
}

func (h *hookTrigger) Listen(ctx context.Context, combo config.KeyCombo) (<-chan Edge, error) {
	vk, err := VKCode(combo.Key)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.vk = uint32(vk)
	h.want = wantedModifiers(combo)
	h.pressed = false
	h.fired = false
	h.out = make(chan Edge, 4)
	h.mu.Unlock()

	errCh := make(chan error, 1)
	go h.runHook(errCh)

	// Wait for hook to be installed or error
	select {
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	go func() {
		<-ctx.Done()
		postThreadMessage.Call(uintptr(h.threadID.Load()), wmQuit, 0, 0)
	}()

	return h.out, nil
}

func (h *hookTrigger) runHook(errCh chan<- error) {
	// The hook is delivered to the thread that installed it, which must pump messages
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h.threadID.Store(windows.GetCurrentThreadId())

	hookProc := func(nCode int32, wParam uintptr, lParam uintptr) uintptr {
		if nCode >= 0 {
			kbInfo := (*kbdllhookstruct)(unsafe.Pointer(lParam))
			h.handleKeyEvent(wParam, kbInfo)
		}
		r, _, _ := callNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
		return r
	}

	hook, _, err := setWindowsHookEx.Call(
		whKeyboardLL,
		windows.NewCallback(hookProc),
		0,
		0,
	)
	if hook == 0 {
		errCh <- fmt.Errorf("SetWindowsHookEx failed: %w", err)
		return
	}
	defer unhookWindowsHookEx.Call(hook)

	errCh <- nil

	// GetMessage returns 0 on WM_QUIT and -1 on error
	var m msg
	for {
		r, _, _ := getMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			return
		}
	}
}

func (h *hookTrigger) handleKeyEvent(wParam uintptr, kbInfo *kbdllhookstruct) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if kbInfo.vkCode != h.vk {
		return
	}

	if wParam != wmKeydown && wParam != wmSyskeydown {
		if h.fired {
			h.fired = false
			sendEdge(h.out, Released)
		}
		h.pressed = false
		return
	}
	if h.pressed {
		return
	}
	h.pressed = true

	if currentModifiers() == h.want {
		h.fired = true
		sendEdge(h.out, Pressed)
	}
}

// modifiersDown reports whether Ctrl, Shift, Alt or Win is physically held
func modifiersDown() bool {
	return currentModifiers() != 0
}

func currentModifiers() modifier {
	var m modifier
	if isKeyPressed(vkCtrl) {
		m |= modCtrl
	}
	if isKeyPressed(vkShift) {
		m |= modShift
	}
	if isKeyPressed(vkAlt) {
		m |= modAlt
	}
	if isKeyPressed(vkLwin) || isKeyPressed(vkRwin) {
		m |= modSuper
	}
	return m
}

func isKeyPressed(vk int) bool {
	r, _, _ := getAsyncKeyState.Call(uintptr(vk))
	return r&0x8000 != 0
}

// VKCode returns the Windows virtual key code for a key name
func VKCode(key string) (int, error) {
	codes := map[string]int{
		"a": 0x41, "b": 0x42, "c": 0x43, "d": 0x44, "e": 0x45,
		"f": 0x46, "g": 0x47, "h": 0x48, "i": 0x49, "j": 0x4A,
		"k": 0x4B, "l": 0x4C, "m": 0x4D, "n": 0x4E, "o": 0x4F,
		"p": 0x50, "q": 0x51, "r": 0x52, "s": 0x53, "t": 0x54,
		"u": 0x55, "v": 0x56, "w": 0x57, "x": 0x58, "y": 0x59, "z": 0x5A,
		"0": 0x30, "1": 0x31, "2": 0x32, "3": 0x33, "4": 0x34,
		"5": 0x35, "6": 0x36, "7": 0x37, "8": 0x38, "9": 0x39,
		"f1": 0x70, "f2": 0x71, "f3": 0x72, "f4": 0x73,
		"f5": 0x74, "f6": 0x75, "f7": 0x76, "f8": 0x77,
		"f9": 0x78, "f10": 0x79, "f11": 0x7A, "f12": 0x7B,
		"space": 0x20, "enter": 0x0D, "esc": 0x1B,
		"tab": 0x09, "backspace": 0x08,
	}

	if code, ok := codes[key]; ok {
		return code, nil
	}

	return 0, fmt.Errorf("unknown key: %s", key)
}
