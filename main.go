package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"markestedt/refix/config"
	"markestedt/refix/hotkey"
	"markestedt/refix/improve"
	"markestedt/refix/logger"
	"markestedt/refix/notify"
	"markestedt/refix/platform"
	"markestedt/refix/storage"
	"markestedt/refix/systray"
	"markestedt/refix/web"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config.toml (default: user config directory)")
	debug := pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Log.Level = "debug"
	}

	// Setup logging
	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	fatal := func(msg string, err error) {
		logger.Error(msg, zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	// Clipboard access is required
	if err := platform.InitClipboard(); err != nil {
		fatal("Clipboard unavailable", err)
	}
	clip := platform.NewClipboard()

	var keys platform.KeySender
	if cfg.Clipboard.Mode == config.ModeSelection || cfg.Output.AutoPaste {
		kb, err := platform.NewKeySender()
		switch {
		case err == nil:
			keys = kb
		case cfg.Clipboard.Mode == config.ModeSelection:
			fatal("Failed to create key sender", err)
		default:
			logger.Warn("Auto-paste disabled", zap.Error(err))
		}
	}

	var paster platform.Paster
	if cfg.Output.AutoPaste && keys != nil {
		paster = keys
	}

	// Missing key leaves the pipeline disabled for the process lifetime
	var improver improve.Improver
	if !cfg.HasAPIKey() {
		logger.Warn("OPENAI_API_KEY not set, text improvement disabled")
	} else if client, err := improve.NewClient(cfg.Env.OpenAIAPIKey, improve.OptionsFromConfig(cfg)); err != nil {
		logger.Warn("OpenAI client not available", zap.Error(err))
	} else {
		improver = client
	}

	listener, err := hotkey.NewFromConfig(cfg)
	if err != nil {
		fatal("Invalid hotkey", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Registration failure is fatal: a dead shortcut makes the app useless
	if err := listener.Start(ctx); err != nil {
		fatal("Failed to register global hotkey", err)
	}

	agent := NewAgent(cfg, Deps{
		Events:    listener,
		Source:    platform.NewTextSource(cfg, clip, keys, listener),
		Clipboard: clip,
		Paster:    paster,
		Improver:  improver,
	})
	agent.exit = func(code int) {
		_ = logger.Sync()
		os.Exit(code)
	}

	combo := listener.Combo().String()

	var history web.History
	if cfg.History.Enabled {
		dir, err := config.Dir()
		if err == nil {
			var db *storage.DB
			if db, err = storage.Open(dir); err == nil {
				defer db.Close()
				agent.AddObserver(historyObserver{db: db})
				history = db
			}
		}
		if err != nil {
			logger.Warn("History disabled", zap.Error(err))
		}
	}

	var webURL string
	var server *web.Server
	if cfg.Web.Enabled {
		server = web.NewServer(agentController{agent: agent, hotkey: combo}, history, cfg.Web.Port)
		webURL = server.URL()
		agent.AddObserver(webObserver{srv: server, hotkey: combo})
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("Web server failed", zap.Error(err))
			}
		}()
	}

	if cfg.Notify.Enabled {
		agent.AddObserver(notifyObserver{n: notify.New("Refix")})
	}

	tray := systray.NewManager(systray.Options{
		IconData:        systray.Icon(),
		Hotkey:          combo,
		OpenAIConnected: improver != nil,
		WebURL:          webURL,
		OnEnable:        agent.Enable,
		OnDisable:       agent.Disable,
		OnQuit:          agent.Quit,
	})
	agent.AddObserver(trayObserver{tray: tray})

	logger.Info("Refix started",
		zap.String("hotkey", combo),
		zap.String("strategy", cfg.Hotkey.Strategy),
		zap.String("capture", cfg.Clipboard.Mode),
		zap.Bool("auto_paste", cfg.Output.AutoPaste),
		zap.Bool("openai_connected", improver != nil),
		zap.Bool("enabled", cfg.App.StartEnabled))

	go func() {
		if err := agent.Run(ctx); err != nil {
			logger.Error("Agent error", zap.Error(err))
		}
		tray.Stop()
	}()

	// The tray owns the main thread until it exits
	tray.Run()
	cancel()

	if server != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Web server shutdown", zap.Error(err))
		}
	}

	logger.Info("Refix stopped")
}
