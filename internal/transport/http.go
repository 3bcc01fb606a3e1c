package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/studyloop/revise/internal/domain/insight"
	"github.com/studyloop/revise/internal/domain/revision"
)

// Server wires HTTP handlers around the scheduling engine.
type Server struct {
	scheduler *revision.Service
	insights  *insight.Service
	logger    *slog.Logger
}

// NewRouter creates the HTTP router for the engine's inbound and read-only
// operations.
func NewRouter(scheduler *revision.Service, insights *insight.Service, logger *slog.Logger) *chi.Mux {
	srv := &Server{scheduler: scheduler, insights: insights, logger: logger}

	r := chi.NewRouter()

	r.Get("/health", srv.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/completions", srv.handleCompletion)
		r.Post("/quiz-results", srv.handleQuizResult)

		r.Route("/items/{itemID}", func(r chi.Router) {
			r.Post("/reschedule", srv.handleReschedule)
			r.Post("/complete", srv.handleComplete)
			r.Post("/skip", srv.handleSkip)
		})

		r.Route("/owners/{ownerID}", func(r chi.Router) {
			r.Post("/catchup", srv.handleCatchup)
			r.Get("/due-today", srv.handleDueToday)
			r.Get("/overdue", srv.handleOverdue)
			r.Get("/upcoming", srv.handleUpcoming)
			r.Get("/retention", srv.handleRetention)
			r.Get("/streak", srv.handleStreak)
			r.Get("/suggestions", srv.handleSuggestions)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var event revision.CompletionEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.scheduler.Generate(r.Context(), event)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyGenerated {
		status = http.StatusOK
	}
	s.writeJSON(w, status, result)
}

type quizResultRequest struct {
	OwnerID  string          `json:"owner_id"`
	Course   revision.Course `json:"course"`
	TopicID  string          `json:"topic_id"`
	Accuracy int             `json:"accuracy"`
}

func (s *Server) handleQuizResult(w http.ResponseWriter, r *http.Request) {
	var req quizResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	adj, err := s.scheduler.Adjust(r.Context(), req.OwnerID, req.Course, req.TopicID, req.Accuracy)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, adj)
}

func (s *Server) handleCatchup(w http.ResponseWriter, r *http.Request) {
	plan, err := s.scheduler.RunCatchup(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

type rescheduleRequest struct {
	NewDate string `json:"new_date"`
	Reason  string `json:"reason"`
}

func (s *Server) handleReschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newDate, err := parseDate(req.NewDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid new_date")
		return
	}

	item, err := s.scheduler.Reschedule(r.Context(), chi.URLParam(r, "itemID"), newDate, req.Reason)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

type completeRequest struct {
	Performance *revision.Performance `json:"performance"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	item, err := s.scheduler.Complete(r.Context(), chi.URLParam(r, "itemID"), req.Performance)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	item, err := s.scheduler.Skip(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDueToday(w http.ResponseWriter, r *http.Request) {
	items, err := s.scheduler.DueToday(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, itemList(items))
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	items, err := s.scheduler.Overdue(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, itemList(items))
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	days := 7
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid days parameter")
			return
		}
		days = parsed
	}

	items, err := s.scheduler.Upcoming(r.Context(), chi.URLParam(r, "ownerID"), days)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, itemList(items))
}

func (s *Server) handleRetention(w http.ResponseWriter, r *http.Request) {
	var course *revision.Course
	if courseStr := r.URL.Query().Get("course"); courseStr != "" {
		c := revision.Course(courseStr)
		if !revision.ValidCourse(c) {
			s.writeError(w, http.StatusBadRequest, "unknown course")
			return
		}
		course = &c
	}

	score, err := s.insights.RetentionScore(r.Context(), chi.URLParam(r, "ownerID"), course)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := s.insights.Streak(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"streak": streak})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.insights.Suggestions(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, revision.ErrItemNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, revision.ErrInvalidInput),
		errors.Is(err, revision.ErrInvalidUnderstanding),
		errors.Is(err, revision.ErrInvalidAccuracy):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, revision.ErrItemNotPending),
		errors.Is(err, revision.ErrCatchupRunning):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseDate accepts either a bare date or a full RFC 3339 timestamp.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// itemList keeps empty result sets encoding as [] rather than null.
func itemList(items []*revision.Item) []*revision.Item {
	if items == nil {
		return []*revision.Item{}
	}
	return items
}
