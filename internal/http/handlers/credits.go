package handlers

import (
	"errors"
	"net/http"
	"time"

	"server/internal/domain"
)

// CreditsBalance returns the caller's current balance.
func (a *App) CreditsBalance(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	credits, err := a.Ledger.Balance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "account not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch credits")
		return
	}
	a.json(w, http.StatusOK, map[string]int{"credits": credits})
}

type transactionView struct {
	ID          string    `json:"id"`
	JobID       *string   `json:"jobId"`
	Type        string    `json:"type"`
	Credits     int       `json:"credits"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreditsHistory lists the caller's recent ledger entries, newest first.
func (a *App) CreditsHistory(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	entries, err := a.Ledger.History(r.Context(), userID, 50)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch transactions")
		return
	}
	items := make([]transactionView, 0, len(entries))
	for _, t := range entries {
		items = append(items, transactionView{
			ID:          t.ID,
			JobID:       t.JobID,
			Type:        string(t.Type),
			Credits:     t.Credits,
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
