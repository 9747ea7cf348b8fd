package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"markestedt/refix/config"
	"markestedt/refix/logger"
)

// ClipboardSource reads whatever is already on the clipboard
type ClipboardSource struct {
	Clipboard Clipboard
}

// GetText returns the clipboard text, or ErrNoText when it is blank
func (s *ClipboardSource) GetText(ctx context.Context) (string, error) {
	text, err := s.Clipboard.Get()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// SelectionSource copies the active selection by sending the copy shortcut,
// then restores the clipboard it found
type SelectionSource struct {
	Clipboard Clipboard
	Keys      KeySender
	// Release, when set, is waited on before the copy shortcut is sent
	Release KeyRelease
	Timeout time.Duration
	Poll    time.Duration
	// Settle is the pause after clearing the clipboard and before restoring it
	Settle time.Duration
}

// GetText returns the selected text, or ErrNoText if nothing shows up on
// the clipboard before Timeout
func (s *SelectionSource) GetText(ctx context.Context) (string, error) {
	poll := s.Poll
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}

	if s.Release != nil {
		if err := s.Release.WaitReleased(ctx); err != nil {
			return "", err
		}
	}

	orig, _ := s.Clipboard.Get()
	defer func() {
		time.Sleep(s.Settle)
		if err := s.Clipboard.Set(orig); err != nil {
			logger.Warn("Failed to restore clipboard", zap.Error(err))
		}
	}()

	if err := s.Clipboard.Set(""); err != nil {
		return "", fmt.Errorf("failed to clear clipboard: %w", err)
	}
	time.Sleep(s.Settle)

	if err := s.Keys.Copy(); err != nil {
		return "", fmt.Errorf("failed to send copy shortcut: %w", err)
	}

	timeout := time.NewTimer(s.Timeout)
	defer timeout.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timeout.C:
			return "", ErrNoText
		case <-ticker.C:
			text, err := s.Clipboard.Get()
			if err != nil {
				continue
			}
			if strings.TrimSpace(text) != "" {
				return text, nil
			}
		}
	}
}

// NewTextSource picks the capture variant for clipboard.mode
func NewTextSource(cfg *config.Config, clip Clipboard, keys KeySender, release KeyRelease) TextSource {
	if cfg.Clipboard.Mode == config.ModeClipboard {
		return &ClipboardSource{Clipboard: clip}
	}
	return &SelectionSource{
		Clipboard: clip,
		Keys:      keys,
		Release:   release,
		Timeout:   cfg.CaptureTimeout(),
		Poll:      50 * time.Millisecond,
		Settle:    50 * time.Millisecond,
	}
}
