package handlers

import (
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

type accountView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"createdAt"`
}

// Me returns the caller's account.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var u domain.User
	err := a.SQL.QueryRow(r.Context(), sqlinline.QSelectUserByID, userID).
		Scan(&u.ID, &u.Email, &u.Name, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "account not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load account")
		return
	}
	a.json(w, http.StatusOK, accountView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Credits:   u.Credits,
		CreatedAt: u.CreatedAt,
	})
}
