// Package api exposes the dashboard contracts over HTTP: a read query
// ordered by score and a narrow write of the user-owned flags. It is a
// thin layer over the store; the pipeline never goes through it.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/reddam/jobscout/internal/model"
)

// Server hosts the dashboard read/write API.
type Server struct {
	store    model.Store
	pageSize int // cap on a single read page
	logger   *slog.Logger
}

// NewServer creates the API server over the given store.
func NewServer(store model.Store, pageSize int, logger *slog.Logger) *Server {
	return &Server{
		store:    store,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api/jobs", func(r chi.Router) {
		r.Get("/", s.handleListJobs)
		r.Patch("/{id}", s.handlePatchJob)
	})
	return r
}

// jobResponse is the wire shape of a stored record.
type jobResponse struct {
	ID          int64   `json:"id"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	Description string  `json:"description,omitempty"`
	Source      string  `json:"source"`
	Salary      *int    `json:"salary"`
	Score       int     `json:"score"`
	PostedDate  *string `json:"posted_date"`
	EasyApply   bool    `json:"easy_apply"`
	Applicants  *int    `json:"applicants"`
	Notified    bool    `json:"notified"`
	Applied     bool    `json:"applied"`
	Saved       bool    `json:"saved"`
	Notes       string  `json:"notes,omitempty"`
}

func toJobResponse(j model.Job) jobResponse {
	resp := jobResponse{
		ID:          j.ID,
		URL:         j.URL,
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		Description: j.Description,
		Source:      j.Source,
		Salary:      j.Salary,
		Score:       j.Score,
		EasyApply:   j.EasyApply,
		Applicants:  j.Applicants,
		Notified:    j.Notified,
		Applied:     j.Applied,
		Saved:       j.Saved,
		Notes:       j.Notes,
	}
	if j.PostedAt != nil {
		v := j.PostedAt.UTC().Format(time.RFC3339)
		resp.PostedDate = &v
	}
	return resp
}

// handleListJobs serves the dashboard read contract: records ordered by
// score descending, capped at the configured page size.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	f := model.QueryFilter{Limit: s.pageSize}

	q := r.URL.Query()
	if v := q.Get("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid min_score")
			return
		}
		f.MinScore = n
	}
	if v := q.Get("source"); v != "" {
		f.Source = v
	}
	if v := q.Get("notified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid notified")
			return
		}
		f.Notified = &b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n < f.Limit {
			f.Limit = n
		}
	}

	jobs, err := s.store.Query(f)
	if err != nil {
		s.logger.Error("job query failed", "error", err)
		httpError(w, http.StatusInternalServerError, "query failed")
		return
	}

	out := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = toJobResponse(j)
	}
	writeJSON(w, http.StatusOK, out)
}

// patchRequest is the dashboard write contract: a partial merge of the
// user-owned fields. Absent fields stay untouched.
type patchRequest struct {
	Applied *bool   `json:"applied"`
	Saved   *bool   `json:"saved"`
	Notes   *string `json:"notes"`
}

func (s *Server) handlePatchJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := model.UserPatch{
		Applied: req.Applied,
		Saved:   req.Saved,
		Notes:   req.Notes,
	}
	if err := s.store.UpdateUserState(id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("user state update failed", "id", id, "error", err)
		httpError(w, http.StatusInternalServerError, "update failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
