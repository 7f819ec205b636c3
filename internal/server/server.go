// Package server exposes the HTTP surface: a liveness route, the chat
// webhook receiver, the OAuth redirect receiver, and a status route.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Dispatcher handles one classified inbound chat update.
type Dispatcher interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Credentials is the slice of the token lifecycle the HTTP surface needs.
type Credentials interface {
	Exchange(ctx context.Context, code string) error
	Authenticated(ctx context.Context) bool
}

// Notifier delivers a message to a chat.
type Notifier interface {
	Send(chatID int64, text string)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	router      Dispatcher
	auth        Credentials
	tg          Notifier
	ownerChatID int64
	logger      *slog.Logger
	port        string
}

// New creates a server instance.
func New(logger *slog.Logger, router Dispatcher, creds Credentials, tg Notifier, ownerChatID int64, port string) *Server {
	return &Server{
		router:      router,
		auth:        creds,
		tg:          tg,
		ownerChatID: ownerChatID,
		logger:      logger,
		port:        port,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleLiveness)
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /oauth/callback", s.handleOAuthCallback)
	mux.HandleFunc("GET /status", s.handleStatus)

	return mux
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	addr := ":" + s.port
	s.logger.Info("Starting server.", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "calbot is running")
}

// handleWebhook decodes one inbound chat update and dispatches it. The
// transport gets a 200 acknowledgment regardless of business outcome; a
// non-200 would make it redeliver the same update.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Warn("Dropping undecodable webhook payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	s.router.HandleUpdate(r.Context(), update)

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintln(w, `{"ok":true}`)
}

// handleOAuthCallback exchanges the authorization code for a credential,
// persists it, and notifies the owner chat.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}

	if err := s.auth.Exchange(r.Context(), code); err != nil {
		s.logger.Error("OAuth code exchange failed", "error", err)
		http.Error(w, fmt.Sprintf("OAuth error: %v", err), http.StatusInternalServerError)
		return
	}

	s.tg.Send(s.ownerChatID, "✅ Google Calendar מחובר בהצלחה! אפשר להתחיל להוסיף אירועים.")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintln(w, "<h1>Connected! You can close this tab and go back to Telegram.</h1>")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	authed := s.auth.Authenticated(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"authenticated": authed})
}
