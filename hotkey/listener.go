// Package hotkey turns raw global shortcut triggers into debounced events
// that the application loop can poll without blocking.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"markestedt/refix/config"
	"markestedt/refix/logger"
)

// ErrUnsupported is returned when no trigger implementation exists for this OS
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// Event is a signal sent from the hotkey goroutine to the application loop
type Event int

const (
	// ImproveText means the configured combination fired
	ImproveText Event = iota
)

func (e Event) String() string {
	switch e {
	case ImproveText:
		return "ImproveText"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Edge is a raw transition of the combination reported by a Trigger
type Edge int

const (
	// Pressed means the combination went down
	Pressed Edge = iota
	// Released means the trigger key went up again
	Released
)

// Trigger delivers one Pressed per raw press of the combination and a
// Released when it is let go. Listen must return only once the combination
// is registered with the OS, and must release it when ctx is done.
type Trigger interface {
	Listen(ctx context.Context, combo config.KeyCombo) (<-chan Edge, error)
}

// sendEdge never blocks the OS callback; a full channel drops the edge
func sendEdge(out chan<- Edge, e Edge) {
	select {
	case out <- e:
	default:
	}
}

// NewTrigger returns the trigger implementation for a hotkey.strategy value
func NewTrigger(strategy string) Trigger {
	if strategy == config.StrategyHook {
		return NewHookTrigger()
	}
	return NewRegisterTrigger()
}

// Debouncer rejects triggers that arrive within interval of the last accepted one
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	accepted bool
	now      func() time.Time
}

// NewDebouncer creates a debouncer using the wall clock
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval, now: time.Now}
}

// Allow reports whether a trigger happening now should be forwarded.
// The timestamp only moves when the trigger is accepted.
func (d *Debouncer) Allow() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.accepted && now.Sub(d.last) < d.interval {
		return false
	}
	d.last = now
	d.accepted = true
	return true
}

// Options tune a Listener
type Options struct {
	Debounce time.Duration
	Buffer   int
	// ReleaseTimeout bounds WaitReleased (default 1s)
	ReleaseTimeout time.Duration
}

const releasePoll = 10 * time.Millisecond

// Listener owns the debounce state and the sending half of the event channel
type Listener struct {
	trigger        Trigger
	combo          config.KeyCombo
	debouncer      *Debouncer
	events         chan Event
	started        atomic.Bool
	releaseTimeout time.Duration

	mu   sync.Mutex
	down bool
	// released is closed while the combination is up
	released chan struct{}
	// modifiersDown reports physically held modifiers where the OS can tell
	modifiersDown func() bool
}

// New creates a listener for combo. Nothing is registered until Start.
func New(trigger Trigger, combo config.KeyCombo, opts Options) *Listener {
	if opts.Buffer <= 0 {
		opts.Buffer = 8
	}
	if opts.ReleaseTimeout <= 0 {
		opts.ReleaseTimeout = time.Second
	}
	released := make(chan struct{})
	close(released)
	return &Listener{
		trigger:        trigger,
		combo:          combo,
		debouncer:      NewDebouncer(opts.Debounce),
		events:         make(chan Event, opts.Buffer),
		releaseTimeout: opts.ReleaseTimeout,
		released:       released,
		modifiersDown:  modifiersDown,
	}
}

// NewFromConfig builds a listener from the [hotkey] config section
func NewFromConfig(cfg *config.Config) (*Listener, error) {
	combo, err := config.ParseHotkey(cfg.Hotkey.Combo)
	if err != nil {
		return nil, err
	}
	return New(NewTrigger(cfg.Hotkey.Strategy), combo, Options{Debounce: cfg.Debounce()}), nil
}

// Combo returns the combination being listened for
func (l *Listener) Combo() config.KeyCombo {
	return l.combo
}

// Start registers the combination and spawns the forwarding goroutine.
// A registration failure is returned to the caller; it is not retried.
func (l *Listener) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return fmt.Errorf("hotkey listener already started")
	}

	raw, err := l.trigger.Listen(ctx, l.combo)
	if err != nil {
		return fmt.Errorf("failed to register hotkey %s: %w", l.combo, err)
	}

	logger.Info("Hotkey registered", zap.String("combo", l.combo.String()))

	go l.forward(ctx, raw)
	return nil
}

func (l *Listener) forward(ctx context.Context, raw <-chan Edge) {
	for {
		select {
		case <-ctx.Done():
			return
		case edge, ok := <-raw:
			if !ok {
				logger.Debug("Hotkey trigger channel closed")
				l.setDown(false)
				return
			}
			switch edge {
			case Pressed:
				l.setDown(true)
				l.handleTrigger()
			case Released:
				l.setDown(false)
			}
		}
	}
}

func (l *Listener) setDown(down bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if down == l.down {
		return
	}
	l.down = down
	if down {
		l.released = make(chan struct{})
	} else {
		close(l.released)
	}
}

// WaitReleased blocks until the combination that fired last has been let go,
// so synthetic keystrokes are not mixed with the user's held modifiers.
// After ReleaseTimeout it gives up and returns nil.
func (l *Listener) WaitReleased(ctx context.Context) error {
	deadline := time.NewTimer(l.releaseTimeout)
	defer deadline.Stop()

	l.mu.Lock()
	released := l.released
	l.mu.Unlock()

	select {
	case <-released:
	case <-deadline.C:
		logger.Warn("Hotkey still held, continuing", zap.String("combo", l.combo.String()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	ticker := time.NewTicker(releasePoll)
	defer ticker.Stop()
	for l.modifiersDown() {
		select {
		case <-ticker.C:
		case <-deadline.C:
			logger.Warn("Modifier keys still held, continuing", zap.String("combo", l.combo.String()))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (l *Listener) handleTrigger() {
	if !l.debouncer.Allow() {
		logger.Debug("Hotkey trigger debounced", zap.String("combo", l.combo.String()))
		return
	}

	select {
	case l.events <- ImproveText:
		logger.Debug("Hotkey event forwarded")
	default:
		logger.Warn("Hotkey event dropped, queue full")
	}
}

// TryReceive returns the oldest pending event without blocking
func (l *Listener) TryReceive() (Event, bool) {
	select {
	case ev := <-l.events:
		return ev, true
	default:
		return 0, false
	}
}
