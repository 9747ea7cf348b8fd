package hotkey

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/refix/config"
)

type fakeTrigger struct {
	raw chan Edge
	err error
}

func newFakeTrigger() *fakeTrigger {
	return &fakeTrigger{raw: make(chan Edge)}
}

func (f *fakeTrigger) Listen(ctx context.Context, combo config.KeyCombo) (<-chan Edge, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

// fakeClock returns the queued instants in order
type fakeClock struct {
	base time.Time
	at   []time.Duration
}

func (c *fakeClock) now() time.Time {
	t := c.base.Add(c.at[0])
	c.at = c.at[1:]
	return t
}

var testCombo = config.KeyCombo{Super: true, Shift: true, Key: "e"}

func TestDebouncerCollapsesBursts(t *testing.T) {
	tests := []struct {
		name  string
		times []time.Duration
		want  []bool
	}{
		{
			name:  "reference sequence",
			times: []time.Duration{0, 200 * time.Millisecond, 1100 * time.Millisecond, 1150 * time.Millisecond},
			want:  []bool{true, false, true, false},
		},
		{
			name:  "suppressed triggers do not extend the window",
			times: []time.Duration{0, 900 * time.Millisecond, 1000 * time.Millisecond, 1999 * time.Millisecond, 2000 * time.Millisecond},
			want:  []bool{true, false, true, false, true},
		},
		{
			name:  "spaced out",
			times: []time.Duration{0, 5 * time.Second, 10 * time.Second},
			want:  []bool{true, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{base: time.Unix(1700000000, 0), at: tt.times}
			d := NewDebouncer(time.Second)
			d.now = clock.now

			var got []bool
			for range tt.times {
				got = append(got, d.Allow())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListenerForwardsDebouncedEvents(t *testing.T) {
	trig := newFakeTrigger()
	l := New(trig, testCombo, Options{Debounce: time.Second})
	clock := &fakeClock{
		base: time.Unix(1700000000, 0),
		at:   []time.Duration{0, 200 * time.Millisecond, 1100 * time.Millisecond, 1150 * time.Millisecond},
	}
	l.debouncer.now = clock.now

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Start(ctx))

	// unbuffered raw channel: each send completes only once forward has taken it
	for i := 0; i < 4; i++ {
		trig.raw <- Pressed
	}

	var got []Event
	require.Eventually(t, func() bool {
		if ev, ok := l.TryReceive(); ok {
			got = append(got, ev)
		}
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []Event{ImproveText, ImproveText}, got)

	// nothing else pending
	time.Sleep(20 * time.Millisecond)
	_, ok := l.TryReceive()
	assert.False(t, ok)
}

func TestTryReceiveEmpty(t *testing.T) {
	l := New(newFakeTrigger(), testCombo, Options{})
	ev, ok := l.TryReceive()
	assert.False(t, ok)
	assert.Equal(t, Event(0), ev)
}

func TestTryReceiveIsFIFOAndNonBlocking(t *testing.T) {
	l := New(newFakeTrigger(), testCombo, Options{Debounce: time.Second, Buffer: 2})
	l.handleTrigger()
	// second trigger lands inside the debounce window
	l.handleTrigger()

	_, ok := l.TryReceive()
	assert.True(t, ok)
	_, ok = l.TryReceive()
	assert.False(t, ok, "debounced trigger must not be queued")

	l.debouncer = NewDebouncer(0)
	l.handleTrigger()
	l.handleTrigger()
	l.handleTrigger() // buffer full, dropped without blocking

	for i := 0; i < 2; i++ {
		ev, ok := l.TryReceive()
		require.True(t, ok)
		assert.Equal(t, ImproveText, ev)
	}
	_, ok = l.TryReceive()
	assert.False(t, ok)
}

func TestStartPropagatesRegistrationFailure(t *testing.T) {
	trig := newFakeTrigger()
	trig.err = errors.New("combination already grabbed")
	l := New(trig, testCombo, Options{})

	err := l.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, trig.err)
	assert.Contains(t, err.Error(), "super+shift+e")
}

func TestStartTwice(t *testing.T) {
	l := New(newFakeTrigger(), testCombo, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, l.Start(ctx))
	assert.Error(t, l.Start(ctx))
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Hotkey.Combo = "ctrl+alt+r"
	cfg.Hotkey.Strategy = config.StrategyHook
	cfg.Hotkey.DebounceMs = 500

	l, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, config.KeyCombo{Ctrl: true, Alt: true, Key: "r"}, l.Combo())
	assert.Equal(t, 500*time.Millisecond, l.debouncer.interval)

	cfg.Hotkey.Combo = "r"
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}

func TestKeyTracker(t *testing.T) {
	const (
		keyE   = 14
		lshift = 42
		lsuper = 3675
		lctrl  = 29
	)
	classes := map[uint16]modifier{lshift: modShift, lsuper: modSuper, lctrl: modCtrl}
	tr := newKeyTracker(keyE, testCombo, classes)

	assert.False(t, tr.press(keyE), "no modifiers held")
	tr.release(keyE)

	tr.press(lsuper)
	tr.press(lshift)
	assert.True(t, tr.press(keyE))
	assert.False(t, tr.press(keyE), "auto-repeat ignored")
	tr.release(keyE)
	assert.True(t, tr.press(keyE))
	tr.release(keyE)

	tr.press(lctrl)
	assert.False(t, tr.press(keyE), "extra modifier")
	tr.release(keyE)
	tr.release(lctrl)
	tr.release(lshift)
	assert.False(t, tr.press(keyE), "missing modifier")
}

func TestKeyTrackerReportsRelease(t *testing.T) {
	const (
		keyE   = 14
		lshift = 42
		lsuper = 3675
	)
	tr := newKeyTracker(keyE, testCombo, map[uint16]modifier{lshift: modShift, lsuper: modSuper})

	assert.False(t, tr.release(keyE), "nothing fired yet")

	tr.press(lsuper)
	tr.press(lshift)
	require.True(t, tr.press(keyE))
	assert.False(t, tr.release(keyE), "modifiers still held")
	assert.False(t, tr.release(lshift), "super still held")
	assert.True(t, tr.release(lsuper))
	assert.False(t, tr.release(lsuper), "reported once")
}

func startedListener(t *testing.T, opts Options) (*Listener, *fakeTrigger) {
	t.Helper()
	trig := newFakeTrigger()
	l := New(trig, testCombo, opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, l.Start(ctx))
	return l, trig
}

// press delivers a Pressed edge and waits until its event is queued
func press(t *testing.T, l *Listener, trig *fakeTrigger) {
	t.Helper()
	trig.raw <- Pressed
	require.Eventually(t, func() bool {
		_, ok := l.TryReceive()
		return ok
	}, time.Second, time.Millisecond)
}

func TestWaitReleasedWithNothingHeld(t *testing.T) {
	l, _ := startedListener(t, Options{})
	l.modifiersDown = func() bool { return false }

	start := time.Now()
	require.NoError(t, l.WaitReleased(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitReleasedBlocksUntilKeyUp(t *testing.T) {
	l, trig := startedListener(t, Options{ReleaseTimeout: 5 * time.Second})
	l.modifiersDown = func() bool { return false }

	press(t, l, trig)

	done := make(chan error, 1)
	go func() { done <- l.WaitReleased(context.Background()) }()

	select {
	case <-done:
		t.Fatal("returned while the combination was held")
	case <-time.After(50 * time.Millisecond):
	}

	trig.raw <- Released
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("did not return after release")
	}
}

func TestWaitReleasedPollsModifiers(t *testing.T) {
	l, _ := startedListener(t, Options{ReleaseTimeout: 5 * time.Second})

	var held atomic.Int32
	held.Store(3)
	l.modifiersDown = func() bool { return held.Add(-1) >= 0 }

	require.NoError(t, l.WaitReleased(context.Background()))
	assert.Equal(t, int32(-1), held.Load())
}

func TestWaitReleasedGivesUp(t *testing.T) {
	l, trig := startedListener(t, Options{ReleaseTimeout: 30 * time.Millisecond})
	l.modifiersDown = func() bool { return false }
	press(t, l, trig)

	start := time.Now()
	require.NoError(t, l.WaitReleased(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWaitReleasedHonoursContext(t *testing.T) {
	l, trig := startedListener(t, Options{ReleaseTimeout: 5 * time.Second})
	press(t, l, trig)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.WaitReleased(ctx), context.DeadlineExceeded)
}
