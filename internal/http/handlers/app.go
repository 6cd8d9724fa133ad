package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/infra"
	"server/internal/ledger"
	"server/internal/middleware"
	"server/internal/storage"
)

// App is the handler container holding every dependency the HTTP surface
// needs.
type App struct {
	Config *infra.Config
	Logger zerolog.Logger
	SQL    infra.SQLExecutor
	Ledger *ledger.Ledger
	Store  storage.Store

	// Files is set when the filesystem storage backend is active; it backs
	// the direct-upload and static routes.
	Files *storage.FileStore
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, sqlExec infra.SQLExecutor, lg *ledger.Ledger, store storage.Store, files *storage.FileStore) *App {
	return &App{
		Config: cfg,
		Logger: logger,
		SQL:    sqlExec,
		Ledger: lg,
		Store:  store,
		Files:  files,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]string{"error": errCode, "message": msg})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
