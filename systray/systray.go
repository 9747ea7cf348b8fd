// Package systray is the status window: a tray icon whose menu shows the
// enabled and OpenAI state and offers Enable, Disable and Quit.
package systray

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"markestedt/refix/logger"
)

// Options configure the tray menu
type Options struct {
	IconData        []byte
	Hotkey          string
	OpenAIConnected bool
	// WebURL adds an "Open Web UI" item when set
	WebURL string

	OnEnable  func()
	OnDisable func()
	OnQuit    func()
}

// Manager manages the system tray icon and menu
type Manager struct {
	opts Options

	mu      sync.Mutex
	ready   bool
	enabled bool

	mStatus  *systray.MenuItem
	mEnable  *systray.MenuItem
	mDisable *systray.MenuItem
}

// NewManager creates a new systray manager
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts}
}

// Run starts the system tray. It blocks and must be called from the main goroutine.
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Stop stops the system tray
func (m *Manager) Stop() {
	systray.Quit()
}

// SetEnabled reflects the agent state in the menu. Safe before the tray is ready.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = enabled
	if m.ready {
		m.render()
	}
}

// StatusLabel is the text of the status line
func StatusLabel(enabled bool) string {
	if enabled {
		return "Status: Enabled"
	}
	return "Status: Disabled"
}

// OpenAILabel is the text of the OpenAI line
func OpenAILabel(connected bool) string {
	if connected {
		return "OpenAI: Connected"
	}
	return "OpenAI: Not configured (set OPENAI_API_KEY)"
}

// render must be called with mu held
func (m *Manager) render() {
	m.mStatus.SetTitle(StatusLabel(m.enabled))
	if m.enabled {
		systray.SetTooltip("Refix - enabled")
		m.mEnable.Disable()
		m.mDisable.Enable()
	} else {
		systray.SetTooltip("Refix - disabled")
		m.mEnable.Enable()
		m.mDisable.Disable()
	}
}

func (m *Manager) onReady() {
	if len(m.opts.IconData) > 0 {
		systray.SetIcon(m.opts.IconData)
	}
	systray.SetTitle("Refix")

	m.mu.Lock()
	m.mStatus = systray.AddMenuItem(StatusLabel(m.enabled), "")
	m.mStatus.Disable()
	mOpenAI := systray.AddMenuItem(OpenAILabel(m.opts.OpenAIConnected), "")
	mOpenAI.Disable()
	mHint := systray.AddMenuItem(fmt.Sprintf("Select text, then press %s", m.opts.Hotkey), "")
	mHint.Disable()
	systray.AddSeparator()

	m.mEnable = systray.AddMenuItem("Enable", "Start reacting to the hotkey")
	m.mDisable = systray.AddMenuItem("Disable", "Ignore the hotkey")

	var openWeb <-chan struct{}
	if m.opts.WebURL != "" {
		openWeb = systray.AddMenuItem("Open Web UI", "Open the Refix dashboard").ClickedCh
	}
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit Refix")

	m.ready = true
	m.render()
	m.mu.Unlock()

	go func() {
		for {
			select {
			case <-m.mEnable.ClickedCh:
				call(m.opts.OnEnable)
			case <-m.mDisable.ClickedCh:
				call(m.opts.OnDisable)
			case <-openWeb:
				openBrowser(m.opts.WebURL)
			case <-mQuit.ClickedCh:
				logger.Info("User requested quit from system tray")
				call(m.opts.OnQuit)
				return
			}
		}
	}()
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func (m *Manager) onExit() {
	logger.Info("System tray exited")
}

// openBrowser opens url in the default browser
func openBrowser(url string) {
	logger.Info("Opening web UI", zap.String("url", url))

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		logger.Error("Unsupported platform for opening browser", zap.String("platform", runtime.GOOS))
		return
	}

	if err := cmd.Start(); err != nil {
		logger.Error("Failed to open web UI", zap.Error(err))
	}
}
