package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"server/internal/domain"
	"server/internal/storage"
)

type uploadTargetRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// UploadTarget issues a short-lived upload endpoint scoped under the caller's
// namespace. The client PUTs the file there directly; the server never
// proxies source uploads.
func (a *App) UploadTarget(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req uploadTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.FileName == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "fileName is required")
		return
	}
	if !storage.AllowedContentType(req.ContentType) {
		a.error(w, http.StatusBadRequest, "bad_request", "only JPEG, PNG, and WebP images are allowed")
		return
	}

	target, err := a.Store.IssueUploadTarget(r.Context(), req.FileName, req.ContentType, "uploads/"+userID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.Logger.Error().Err(err).Msg("upload: issue target failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create upload target")
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"uploadEndpoint":   target.UploadEndpoint,
		"blobKey":          target.BlobKey,
		"expiresInSeconds": target.ExpiresInSeconds,
	})
}

// UploadDirect accepts a signed PUT issued by the filesystem store. Only
// mounted when that backend is active; object-store backends sign URLs that
// point at the store itself.
func (a *App) UploadDirect(w http.ResponseWriter, r *http.Request) {
	if a.Files == nil {
		a.error(w, http.StatusNotFound, "not_found", "direct upload not available")
		return
	}
	key := r.URL.Query().Get("key")
	sig := r.URL.Query().Get("sig")
	exp, err := strconv.ParseInt(r.URL.Query().Get("exp"), 10, 64)
	if err != nil || key == "" || sig == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid upload parameters")
		return
	}
	if !a.Files.VerifyUploadTarget(key, exp, sig) {
		a.error(w, http.StatusForbidden, "forbidden", "upload target expired or signature invalid")
		return
	}

	body := http.MaxBytesReader(w, r.Body, storage.MaxUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file too large or unreadable")
		return
	}
	saved, err := a.Files.Write(r.Context(), key, data)
	if err != nil {
		a.Logger.Error().Err(err).Str("key", key).Msg("upload: write failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"blobKey": saved})
}
