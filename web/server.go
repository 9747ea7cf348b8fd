package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"markestedt/refix/logger"
	"markestedt/refix/storage"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     localOrigin,
}

// Status is the agent state shown on the dashboard
type Status struct {
	Enabled         bool   `json:"enabled"`
	OpenAIConnected bool   `json:"openaiConnected"`
	Busy            bool   `json:"busy"`
	Hotkey          string `json:"hotkey"`
}

// Controller is the part of the agent the dashboard can drive
type Controller interface {
	Status() Status
	Enable()
	Disable()
}

// History is the rewrite store backing the history and stats endpoints
type History interface {
	GetRewrites(limit, offset int) ([]storage.Rewrite, error)
	GetRewriteCount() (int, error)
	DeleteRewrite(id int64) error
	GetOverallStats(days int) (*storage.OverallStats, error)
	GetDailyStats(days int) ([]storage.DailyStats, error)
}

// Server represents the web server
type Server struct {
	ctrl    Controller
	history History
	port    int
	hub     *Hub

	mu  sync.Mutex
	srv *http.Server
}

// NewServer creates a new web server. history may be nil when it is disabled.
func NewServer(ctrl Controller, history History, port int) *Server {
	hub := NewHub()
	go hub.Run()

	return &Server{
		ctrl:    ctrl,
		history: history,
		port:    port,
		hub:     hub,
	}
}

// URL is where the dashboard is reachable
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Handler builds the router
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("GET /api/status", local(s.handleStatus))
	mux.HandleFunc("POST /api/enable", local(s.handleEnable))
	mux.HandleFunc("POST /api/disable", local(s.handleDisable))
	mux.HandleFunc("GET /api/history", local(s.handleGetHistory))
	mux.HandleFunc("DELETE /api/history/{id}", local(s.handleDeleteHistory))
	mux.HandleFunc("GET /api/stats", local(s.handleStats))
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	return mux, nil
}

// Start serves the dashboard on the loopback interface until Shutdown
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	logger.Info("Starting web server", zap.Int("port", s.port), zap.String("url", s.URL()))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and disconnects websocket clients
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()

	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// BroadcastStatus broadcasts a status update to all connected clients
func (s *Server) BroadcastStatus(status Status) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeStatus,
		Data: status,
	})
}

// BroadcastRewrite broadcasts a finished rewrite to all connected clients
func (s *Server) BroadcastRewrite(r *storage.Rewrite) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeRewrite,
		Data: RewriteMessage{
			ID:         r.ID,
			Success:    r.Success,
			InputChars: len([]rune(r.InputText)),
			LatencyMs:  r.TotalLatencyMs,
			Error:      r.ErrorMessage,
			Timestamp:  r.Timestamp.UTC().Format(time.RFC3339),
		},
	})
}

// BroadcastNotice broadcasts a short note, such as an empty selection
func (s *Server) BroadcastNotice(message string) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeNotice,
		Data: NoticeMessage{Message: message},
	})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	// greet with the current state before the hub can touch send
	if data, err := jsonMessage(Message{Type: MessageTypeStatus, Data: s.ctrl.Status()}); err == nil {
		client.send <- data
	}

	select {
	case client.hub.register <- client:
	case <-client.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
