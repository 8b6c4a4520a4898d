// Package web serves the study API as JSON over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/conorfennell/recall/internal/deck"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/selector"
	"github.com/conorfennell/recall/internal/storage"
	"github.com/conorfennell/recall/internal/study"
)

type sourceStore interface {
	GetAllSources(ctx context.Context) ([]storage.Source, error)
	FindSourceByPath(ctx context.Context, path string) (*storage.Source, error)
	InsertSource(ctx context.Context, deck, path, sourceType string) (int64, error)
	DeleteSource(ctx context.Context, sourceID int64) error
	ListCards(ctx context.Context, deck string) ([]domain.Card, error)
}

type syncRunner interface {
	Run(ctx context.Context) ([]deck.Report, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	study  *study.Service
	store  sourceStore
	sync   syncRunner
	log    *slog.Logger
	router *http.ServeMux
}

// NewServer creates and configures a new server.
func NewServer(svc *study.Service, store sourceStore, sync syncRunner, log *slog.Logger) *Server {
	s := &Server{
		study:  svc,
		store:  store,
		sync:   sync,
		log:    log,
		router: http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /decks/{deck}/cards", s.handleListCards())
	s.router.HandleFunc("GET /decks/{deck}/due", s.handleDue())
	s.router.HandleFunc("POST /decks/{deck}/session", s.handleStartSession())
	s.router.HandleFunc("POST /decks/{deck}/introduce", s.handleIntroduce())
	s.router.HandleFunc("GET /decks/{deck}/allowance", s.handleAllowance())
	s.router.HandleFunc("GET /decks/{deck}/stats", s.handleStats())

	s.router.HandleFunc("POST /decks/{deck}/cards/{id}/review", s.handleReview())
	s.router.HandleFunc("POST /decks/{deck}/cards/{id}/intro", s.handleAdvanceIntro())
	s.router.HandleFunc("POST /decks/{deck}/cards/{id}/attempts", s.handleAttempt())
	s.router.HandleFunc("POST /decks/{deck}/cards/{id}/seen", s.handleSeen())
	s.router.HandleFunc("GET /decks/{deck}/cards/{id}/confidence", s.handleConfidence())

	s.router.HandleFunc("GET /sources", s.handleGetSources())
	s.router.HandleFunc("POST /sources", s.handlePostSource())
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /sync", s.handlePostSync())
}

func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.store.ListCards(r.Context(), r.PathValue("deck"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if cards == nil {
			cards = []domain.Card{}
		}
		s.respond(w, http.StatusOK, cards)
	}
}

func (s *Server) handleDue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel, err := s.study.Due(r.Context(), r.PathValue("deck"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if sel.Items == nil {
			sel.Items = []selector.Item{}
		}
		s.respond(w, http.StatusOK, sel)
	}
}

func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.study.StartSession(r.PathValue("deck"))
		s.respond(w, http.StatusCreated, map[string]any{
			"id":         sess.ID,
			"deck":       sess.Deck,
			"started_at": sess.StartedAt,
		})
	}
}

func (s *Server) handleIntroduce() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intro, err := s.study.Introduce(r.Context(), r.PathValue("deck"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.respond(w, http.StatusCreated, intro)
	}
}

func (s *Server) handleAllowance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.study.Allowance(r.Context(), r.PathValue("deck"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.respond(w, http.StatusOK, map[string]any{
			"date":      a.Date,
			"allowed":   a.Allowed,
			"used":      a.Used,
			"remaining": a.Remaining(),
		})
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := s.study.Stats(r.Context(), r.PathValue("deck"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.respond(w, http.StatusOK, st)
	}
}

type reviewRequest struct {
	Outcome domain.Outcome `json:"outcome"`
	Grace   bool           `json:"grace"`
}

func (s *Server) handleReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reviewRequest
		if err := decode(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		res, err := s.study.Review(r.Context(), r.PathValue("deck"), r.PathValue("id"), req.Outcome, req.Grace)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.respond(w, http.StatusOK, res)
	}
}

func (s *Server) handleAdvanceIntro() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sched, err := s.study.AdvanceIntro(r.Context(), r.PathValue("deck"), r.PathValue("id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.respond(w, http.StatusOK, sched)
	}
}

type attemptRequest struct {
	Pass  *bool `json:"pass"`
	Drill bool  `json:"drill"`
}

func (s *Server) handleAttempt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attemptRequest
		if err := decode(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		if req.Pass == nil {
			s.fail(w, r, errors.Join(domain.ErrInvalidArgument, errors.New("pass is required")))
			return
		}
		res, err := s.study.Attempt(r.Context(), r.PathValue("deck"), r.PathValue("id"), *req.Pass, req.Drill)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.respond(w, http.StatusOK, res)
	}
}

func (s *Server) handleSeen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.study.MarkSeen(r.Context(), r.PathValue("deck"), r.PathValue("id")); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleConfidence() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.study.Confidence(r.Context(), r.PathValue("deck"), r.PathValue("id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.respond(w, http.StatusOK, c)
	}
}

func (s *Server) handleGetSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.store.GetAllSources(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if sources == nil {
			sources = []storage.Source{}
		}
		s.respond(w, http.StatusOK, sources)
	}
}

type sourceRequest struct {
	Deck string `json:"deck"`
	Path string `json:"path"`
}

// handlePostSource registers a source. Re-adding a known path returns it unchanged.
func (s *Server) handlePostSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sourceRequest
		if err := decode(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		req.Deck = strings.TrimSpace(req.Deck)
		req.Path = strings.TrimSpace(req.Path)
		if req.Deck == "" || req.Path == "" {
			s.fail(w, r, errors.Join(domain.ErrInvalidArgument, errors.New("deck and path are required")))
			return
		}

		existing, err := s.store.FindSourceByPath(r.Context(), req.Path)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if existing != nil {
			s.respond(w, http.StatusOK, existing)
			return
		}

		sourceType := deck.SourceType(req.Path)
		id, err := s.store.InsertSource(r.Context(), req.Deck, req.Path, sourceType)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.log.InfoContext(r.Context(), "source added", "id", id, "deck", req.Deck, "path", req.Path, "type", sourceType)
		s.respond(w, http.StatusCreated, storage.Source{ID: id, Deck: req.Deck, Path: req.Path, Type: sourceType})
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			s.fail(w, r, errors.Join(domain.ErrInvalidArgument, errors.New("invalid source id")))
			return
		}
		if err := s.store.DeleteSource(r.Context(), id); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePostSync runs a sync in the foreground so the caller sees its result.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := s.sync.Run(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if reports == nil {
			reports = []deck.Report{}
		}
		s.respond(w, http.StatusOK, reports)
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return err
		}
		return errors.Join(domain.ErrInvalidArgument, err)
	}
	return nil
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.respond(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAllowanceExhausted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
