// Package server exposes the HTTP surface: the Telegram webhook endpoint,
// webhook registration, health, and a small admin API for personas.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/figurabot/figura/internal/config"
	"github.com/figurabot/figura/internal/httputil"
	"github.com/figurabot/figura/internal/logging"
	"github.com/figurabot/figura/internal/persona"
	"github.com/figurabot/figura/internal/queue"
	"github.com/figurabot/figura/internal/telegram"
)

// maxWebhookBody caps inbound webhook payload size.
const maxWebhookBody = 1 << 20

// Server wires the HTTP routes to the queue, catalog and Bot API client.
type Server struct {
	cfg     config.Config
	catalog *persona.Catalog
	queue   *queue.Queue
	tg      *telegram.Client
}

// New creates the HTTP server front.
func New(cfg config.Config, catalog *persona.Catalog, q *queue.Queue, tg *telegram.Client) *Server {
	return &Server{cfg: cfg, catalog: catalog, queue: q, tg: tg}
}

// Handler builds the chi router. Exposed separately so tests can drive it
// with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Post("/webhook", s.handleWebhook)
	r.Get("/set_webhook", s.handleSetWebhook)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/personas", s.handleListPersonas)
		r.Post("/personas", s.handleRegisterPersona)
	})

	return r
}

// Run serves until the context is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("Listening on http://0.0.0.0:%d", s.cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleWebhook accepts a raw update and returns immediately; dispatch
// happens on a queue worker.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.ErrorWithCode(w, http.StatusBadRequest, "unreadable body")
		return
	}
	s.queue.Enqueue(raw)
	httputil.OkJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.BaseURL == "" {
		httputil.ErrorWithCode(w, http.StatusBadRequest, "BASE_URL not set")
		return
	}
	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/webhook"
	if err := s.tg.SetWebhook(r.Context(), url); err != nil {
		httputil.ErrorWithCode(w, http.StatusBadGateway, err.Error())
		return
	}
	httputil.OkJSON(w, map[string]string{"url": url})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OkJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	httputil.OkJSON(w, s.catalog.All())
}

// registerPersonaRequest is the admin registration payload. CreatedBy must
// name a configured admin id.
type registerPersonaRequest struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	System    string `json:"system"`
	CreatedBy int64  `json:"created_by"`
}

func (s *Server) handleRegisterPersona(w http.ResponseWriter, r *http.Request) {
	var req registerPersonaRequest
	if err := readJSON(r, &req); err != nil {
		httputil.ErrorWithCode(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !s.cfg.IsAdmin(req.CreatedBy) {
		httputil.ErrorWithCode(w, http.StatusForbidden, "not an admin")
		return
	}
	if req.Title == "" || req.System == "" {
		httputil.ErrorWithCode(w, http.StatusBadRequest, "title and system are required")
		return
	}

	p := persona.Persona{
		ID:        req.ID,
		Title:     req.Title,
		System:    req.System,
		CreatedBy: req.CreatedBy,
	}
	if p.ID == "" {
		p.ID = newPersonaID()
	}

	if err := s.catalog.Register(r.Context(), p); err != nil {
		if errors.Is(err, persona.ErrExists) {
			httputil.ErrorWithCode(w, http.StatusConflict, "persona id already exists")
			return
		}
		logging.Errorf("[Server] persona registration failed: %v", err)
		httputil.ErrorWithCode(w, http.StatusInternalServerError, "registration failed")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": p.ID})
}
