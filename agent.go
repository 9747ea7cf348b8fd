package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"markestedt/refix/config"
	"markestedt/refix/hotkey"
	"markestedt/refix/improve"
	"markestedt/refix/logger"
	"markestedt/refix/platform"
	"markestedt/refix/storage"
)

const (
	noticeNoText   = "No text selected. Select or copy some text first."
	noticeNoClient = "OpenAI client not available. Set OPENAI_API_KEY and restart."
)

// Status is the externally visible agent state
type Status struct {
	Enabled         bool
	OpenAIConnected bool
	Busy            bool
}

// EventSource is polled once per tick for hotkey events
type EventSource interface {
	TryReceive() (hotkey.Event, bool)
}

// Observer is told about state changes and finished runs.
// Methods may be called from several goroutines.
type Observer interface {
	StatusChanged(Status)
	RewriteFinished(*storage.Rewrite)
	Notice(message string)
}

// Deps are the collaborators an Agent drives
type Deps struct {
	Events    EventSource
	Source    platform.TextSource
	Clipboard platform.Clipboard
	// Paster is nil when auto-paste is off
	Paster platform.Paster
	// Improver is nil when no API key was configured
	Improver improve.Improver
}

type command int

const (
	cmdEnable command = iota
	cmdDisable
	cmdQuit
)

// Agent is the application loop: it polls hotkey events on a fixed tick and
// runs capture, rewrite and clipboard write for each accepted event
type Agent struct {
	cfg  *config.Config
	deps Deps

	commands chan command
	// enabled is owned by the Run goroutine
	enabled bool

	mu        sync.RWMutex
	status    Status
	observers []Observer

	inFlight atomic.Int32
	runs     sync.WaitGroup
	// clipMu keeps capture and write-back from interleaving on the clipboard
	clipMu sync.Mutex

	exit func(code int)
}

// NewAgent creates a new agent instance
func NewAgent(cfg *config.Config, deps Deps) *Agent {
	return &Agent{
		cfg:      cfg,
		deps:     deps,
		commands: make(chan command, 16),
		enabled:  cfg.App.StartEnabled,
		status: Status{
			Enabled:         cfg.App.StartEnabled,
			OpenAIConnected: deps.Improver != nil,
		},
		exit: os.Exit,
	}
}

// AddObserver registers o. Call before Run.
func (a *Agent) AddObserver(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, o)
}

// Enable asks the loop to start reacting to the hotkey
func (a *Agent) Enable() { a.commands <- cmdEnable }

// Disable asks the loop to ignore the hotkey
func (a *Agent) Disable() { a.commands <- cmdDisable }

// Quit asks the loop to terminate the process
func (a *Agent) Quit() { a.commands <- cmdQuit }

// Status returns a snapshot of the agent state
func (a *Agent) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Run is the main event loop. It returns when ctx is done or after Quit.
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.PollInterval())
	defer ticker.Stop()

	a.publishStatus()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-a.commands:
			if cmd == cmdQuit {
				logger.Info("Refix shutting down")
				a.exit(0)
				return nil
			}
			a.apply(cmd)
		case <-ticker.C:
			a.poll(ctx)
		}
	}
}

// Wait blocks until every in-flight rewrite has finished
func (a *Agent) Wait() {
	a.runs.Wait()
}

func (a *Agent) apply(cmd command) {
	enabled := cmd == cmdEnable
	if enabled == a.enabled {
		return
	}
	a.enabled = enabled

	if enabled {
		logger.Info("Refix enabled", zap.String("hotkey", a.cfg.Hotkey.Combo))
	} else {
		logger.Info("Refix disabled")
	}

	a.mu.Lock()
	a.status.Enabled = enabled
	a.mu.Unlock()
	a.publishStatus()
}

// poll takes at most one event per tick
func (a *Agent) poll(ctx context.Context) {
	ev, ok := a.deps.Events.TryReceive()
	if !ok {
		return
	}

	if !a.enabled {
		logger.Info("Refix is disabled, enable it first", zap.Stringer("event", ev))
		return
	}

	a.handle(ctx)
}

func (a *Agent) handle(ctx context.Context) {
	if a.cfg.App.Overlap == config.OverlapSkip && a.inFlight.Load() > 0 {
		logger.Info("Rewrite already in progress, trigger ignored")
		return
	}

	a.inFlight.Add(1)
	a.setBusy()
	a.runs.Add(1)
	go a.run(ctx)
}

// run captures and rewrites off the loop, so ticks and Quit keep flowing
// while the clipboard or the network is slow
func (a *Agent) run(ctx context.Context) {
	defer a.runs.Done()
	defer func() {
		a.inFlight.Add(-1)
		a.setBusy()
	}()

	start := time.Now()
	a.clipMu.Lock()
	text, err := a.deps.Source.GetText(ctx)
	a.clipMu.Unlock()
	captured := time.Since(start)

	if err != nil && !errors.Is(err, platform.ErrNoText) {
		logger.Error("Failed to get text", zap.Error(err))
		return
	}
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Info("No text selected, copy some text first")
		a.notice(noticeNoText)
		return
	}

	logger.Debug("Selected text", zap.String("text", strings.TrimSpace(text)))

	if a.deps.Improver == nil {
		logger.Error("OpenAI client not available")
		a.notice(noticeNoClient)
		return
	}

	logger.Info("Improving text", zap.Int("chars", len([]rune(text))))
	a.rewrite(ctx, text, start, captured)
}

func (a *Agent) rewrite(ctx context.Context, text string, start time.Time, captured time.Duration) {
	rec := &storage.Rewrite{
		Provider:         a.deps.Improver.Name(),
		InputText:        text,
		CaptureLatencyMs: captured.Milliseconds(),
	}
	if m, ok := a.deps.Improver.(interface{ Model() string }); ok {
		rec.Model = m.Model()
	}
	defer a.finish(rec, start)

	improveStart := time.Now()
	improved, err := a.deps.Improver.Improve(ctx, text)
	rec.ImproveLatencyMs = time.Since(improveStart).Milliseconds()
	if err != nil {
		logger.Error("Error improving text", zap.Error(err))
		rec.ErrorMessage = err.Error()
		return
	}
	rec.OutputText = improved

	logger.Info("Text improved", zap.Int64("latency_ms", rec.ImproveLatencyMs))
	logger.Debug("Improved text", zap.String("text", improved))

	a.clipMu.Lock()
	defer a.clipMu.Unlock()

	if err := a.deps.Clipboard.Set(improved); err != nil {
		logger.Error("Failed to write clipboard", zap.Error(err))
		rec.ErrorMessage = err.Error()
		return
	}
	rec.Success = true

	if a.deps.Paster == nil {
		logger.Info("Improved text copied to clipboard")
		return
	}

	time.Sleep(a.cfg.PasteDelay())
	if err := a.deps.Paster.Paste(); err != nil {
		logger.Warn("Failed to paste improved text, it is still on the clipboard", zap.Error(err))
		return
	}
	rec.Pasted = true
	logger.Info("Improved text pasted")
}

func (a *Agent) finish(rec *storage.Rewrite, start time.Time) {
	rec.TotalLatencyMs = time.Since(start).Milliseconds()
	rec.Timestamp = time.Now()

	for _, o := range a.snapshotObservers() {
		o.RewriteFinished(rec)
	}
}

func (a *Agent) setBusy() {
	a.mu.Lock()
	a.status.Busy = a.inFlight.Load() > 0
	a.mu.Unlock()
	a.publishStatus()
}

func (a *Agent) publishStatus() {
	st := a.Status()
	for _, o := range a.snapshotObservers() {
		o.StatusChanged(st)
	}
}

func (a *Agent) notice(message string) {
	for _, o := range a.snapshotObservers() {
		o.Notice(message)
	}
}

func (a *Agent) snapshotObservers() []Observer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Observer(nil), a.observers...)
}
