package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

type generateRequest struct {
	SourceBlobKey string `json:"sourceBlobKey"`
	Style         string `json:"style"`
	Prompt        string `json:"prompt"`
}

type generateResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GenerateStart validates the request, checks the credit balance, and creates
// the job in pending. The synthesis itself happens on the worker side; the
// response only means "accepted for processing". Credits are inspected here
// but not reserved; the debit lands atomically with the completed transition,
// where a defensive re-check closes the race between two borderline starts.
func (a *App) GenerateStart(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.SourceBlobKey == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "sourceBlobKey is required")
		return
	}
	if !domain.ValidStyle(req.Style) {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown style")
		return
	}
	if len(req.Prompt) > domain.MaxPromptLength {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt too long")
		return
	}

	_, available, err := a.Ledger.HasAtLeast(r.Context(), userID, domain.GenerationCost)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "account not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to check credits")
		return
	}
	if available < domain.GenerationCost {
		a.json(w, http.StatusPaymentRequired, map[string]any{
			"error":     "insufficient credits",
			"required":  domain.GenerationCost,
			"available": available,
		})
		return
	}

	jobID := uuid.NewString()
	originalURL := a.Store.PublicURL(req.SourceBlobKey)
	var insertedID string
	var createdAt time.Time
	err = a.SQL.QueryRow(r.Context(), sqlinline.QInsertJob,
		jobID, userID, req.SourceBlobKey, originalURL, req.Style, req.Prompt).Scan(&insertedID, &createdAt)
	if err != nil {
		a.Logger.Error().Err(err).Msg("generate: insert job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		JobID:   insertedID,
		Status:  string(domain.JobStatusPending),
		Message: "Image generation started. This may take 30-60 seconds.",
	})
}

type jobView struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	OriginalURL      string     `json:"originalUrl"`
	ResultURL        *string    `json:"resultUrl"`
	Style            string     `json:"style"`
	Prompt           *string    `json:"prompt"`
	ErrorMessage     *string    `json:"errorMessage"`
	ProcessingTimeMs *int64     `json:"processingTimeMs"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// GenerateStatus returns the polled view of one job. Ownership is enforced
// strictly: someone else's job id yields 403 without leaking its contents,
// distinct from 404 for an id that never existed.
func (a *App) GenerateStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(jobID); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "generation not found")
		return
	}

	job, err := a.loadJob(r, jobID)
	if err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "generation not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
		return
	}
	if job.UserID != userID {
		a.error(w, http.StatusForbidden, "forbidden", "this generation belongs to another user")
		return
	}

	view := jobView{
		ID:          job.ID,
		Status:      string(job.Status),
		OriginalURL: job.OriginalURL,
		Style:       job.Style,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
	if job.Prompt != "" {
		view.Prompt = &job.Prompt
	}
	if job.ResultURL != "" {
		view.ResultURL = &job.ResultURL
	}
	if job.ErrorMessage != "" {
		view.ErrorMessage = &job.ErrorMessage
	}
	if job.Status.Terminal() {
		view.ProcessingTimeMs = &job.ProcessingTimeMs
	}
	a.json(w, http.StatusOK, view)
}

func (a *App) loadJob(r *http.Request, jobID string) (*domain.GenerationJob, error) {
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectJobByID, jobID)
	var job domain.GenerationJob
	err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.SourceKey,
		&job.OriginalURL,
		&job.Style,
		&job.Prompt,
		&job.Status,
		&job.ResultKey,
		&job.ResultURL,
		&job.ErrorMessage,
		&job.ProcessingTimeMs,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
