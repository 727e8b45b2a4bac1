// Package server exposes the webhook endpoints, the operator WebSocket
// and the health and queue-inspection routes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/config"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/dispatch"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/notify"
)

type Server struct {
	cfg         config.ServerConfig
	verifyToken string
	dispatcher  *dispatch.Dispatcher
	hub         *notify.Hub
	limiter     *webhookRateLimiter
	upgrader    websocket.Upgrader
}

func New(cfg *config.Config, d *dispatch.Dispatcher, hub *notify.Hub) *Server {
	return &Server{
		cfg:         cfg.Server,
		verifyToken: cfg.WhatsApp.VerifyToken,
		dispatcher:  d,
		hub:         hub,
		limiter:     newWebhookRateLimiter(cfg.Server.RateLimitRPM),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboards connect from configured origins only; the
			// reverse proxy enforces them.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /webhook", s.handleWebhookVerify)
	mux.HandleFunc("POST /webhook", s.handleWebhookReceive)
	mux.HandleFunc("POST /webhook/twilio", s.handleTwilioWebhook)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /queues", s.handleQueues)
	mux.HandleFunc("POST /conversations/{id}/claim", s.handleClaim)
	mux.HandleFunc("POST /conversations/{id}/resolve", s.handleResolve)
	mux.HandleFunc("POST /conversations/{id}/close", s.handleClose)
	mux.HandleFunc("POST /conversations/{id}/messages", s.handleOperatorMessage)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket connections are long-lived
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQueues(w http.ResponseWriter, r *http.Request) {
	sizes, err := s.dispatcher.QueueSizes(r.Context())
	if err != nil {
		slog.Error("queue sizes failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "queues unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, sizes)
}

// handleWS upgrades an operator dashboard connection. The operator_id
// query parameter is required; sector narrows which broadcasts arrive.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	operatorID := r.URL.Query().Get("operator_id")
	if operatorID == "" {
		http.Error(w, "operator_id required", http.StatusBadRequest)
		return
	}
	sector := r.URL.Query().Get("sector")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}

	s.hub.Register(r.Context(), operatorID, sector, conn)

	// Inbound frames are ignored; the read loop exists to detect the
	// close and to answer pings.
	go func() {
		defer func() {
			s.hub.Unregister(context.Background(), conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
