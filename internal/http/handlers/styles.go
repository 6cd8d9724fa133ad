package handlers

import (
	"net/http"

	"server/internal/domain"
)

// Styles returns the fixed style catalog the client renders as presets.
func (a *App) Styles(w http.ResponseWriter, _ *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"styles": domain.Styles})
}
