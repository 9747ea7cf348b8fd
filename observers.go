package main

import (
	"fmt"

	"go.uber.org/zap"

	"markestedt/refix/logger"
	"markestedt/refix/notify"
	"markestedt/refix/storage"
	"markestedt/refix/systray"
	"markestedt/refix/web"
)

type nopObserver struct{}

func (nopObserver) StatusChanged(Status)             {}
func (nopObserver) RewriteFinished(*storage.Rewrite) {}
func (nopObserver) Notice(string)                    {}

// historyObserver persists every finished run
type historyObserver struct {
	nopObserver
	db *storage.DB
}

func (h historyObserver) RewriteFinished(r *storage.Rewrite) {
	if err := h.db.SaveRewrite(r); err != nil {
		logger.Error("Failed to save rewrite", zap.Error(err))
	}
}

// trayObserver keeps the tray menu in sync
type trayObserver struct {
	nopObserver
	tray *systray.Manager
}

func (t trayObserver) StatusChanged(s Status) {
	t.tray.SetEnabled(s.Enabled)
}

// notifyObserver shows desktop notifications
type notifyObserver struct {
	nopObserver
	n *notify.Notifier
}

func (o notifyObserver) Notice(message string) {
	o.n.Notify(message)
}

func (o notifyObserver) RewriteFinished(r *storage.Rewrite) {
	switch {
	case !r.Success:
		o.n.Notify(fmt.Sprintf("Rewrite failed: %s", r.ErrorMessage))
	case r.Pasted:
		o.n.Notify("Improved text pasted")
	default:
		o.n.Notify("Improved text copied to clipboard")
	}
}

// webObserver pushes events to dashboard clients
type webObserver struct {
	srv    *web.Server
	hotkey string
}

func (w webObserver) StatusChanged(s Status) {
	w.srv.BroadcastStatus(webStatus(s, w.hotkey))
}

func (w webObserver) RewriteFinished(r *storage.Rewrite) {
	w.srv.BroadcastRewrite(r)
}

func (w webObserver) Notice(message string) {
	w.srv.BroadcastNotice(message)
}

// agentController exposes the agent to the dashboard
type agentController struct {
	agent  *Agent
	hotkey string
}

func (c agentController) Status() web.Status {
	return webStatus(c.agent.Status(), c.hotkey)
}

func (c agentController) Enable()  { c.agent.Enable() }
func (c agentController) Disable() { c.agent.Disable() }

func webStatus(s Status, hotkey string) web.Status {
	return web.Status{
		Enabled:         s.Enabled,
		OpenAIConnected: s.OpenAIConnected,
		Busy:            s.Busy,
		Hotkey:          hotkey,
	}
}
