package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"server/internal/domain"
)

// FileStore persists blobs onto the local filesystem. It is intended for
// development and test environments where an object storage service is not
// available. Upload targets are HMAC-signed URLs pointing back at the API's
// own direct-upload endpoint; public URLs resolve under the static mount.
type FileStore struct {
	basePath  string
	baseURL   string
	uploadURL string
	secret    []byte
}

// NewFileStore initializes a FileStore rooted at basePath. baseURL is the
// public prefix stored keys resolve under; uploadURL is the endpoint issued
// upload targets point at; secret signs upload targets.
func NewFileStore(basePath, baseURL, uploadURL, secret string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, &domain.StorageError{Op: "init", Err: err}
	}
	return &FileStore{
		basePath:  basePath,
		baseURL:   strings.TrimRight(baseURL, "/"),
		uploadURL: strings.TrimRight(uploadURL, "/"),
		secret:    []byte(secret),
	}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

func (s *FileStore) IssueUploadTarget(ctx context.Context, fileName, contentType, scope string) (*UploadTarget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !AllowedContentType(contentType) {
		return nil, fmt.Errorf("%w: content type %q not allowed", domain.ErrInvalidInput, contentType)
	}
	key := ObjectKey(fileName, scope)
	exp := time.Now().Add(UploadExpirySeconds * time.Second).Unix()
	q := url.Values{}
	q.Set("key", key)
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", s.signUpload(key, exp))
	return &UploadTarget{
		UploadEndpoint:   s.uploadURL + "?" + q.Encode(),
		BlobKey:          key,
		ExpiresInSeconds: UploadExpirySeconds,
	}, nil
}

// VerifyUploadTarget checks the signature and expiry of a direct-upload
// request issued by IssueUploadTarget.
func (s *FileStore) VerifyUploadTarget(key string, exp int64, sig string) bool {
	if time.Now().Unix() > exp {
		return false
	}
	expected := s.signUpload(key, exp)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *FileStore) signUpload(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	mac.Write([]byte("\n"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *FileStore) Put(ctx context.Context, data []byte, fileName, contentType, folder string) (*StoredObject, error) {
	key := ObjectKey(fileName, folder)
	saved, err := s.Write(ctx, key, data)
	if err != nil {
		return nil, err
	}
	return &StoredObject{Key: saved, URL: s.PublicURL(saved)}, nil
}

func (s *FileStore) PublicURL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// Write persists the provided bytes at the given relative key and returns the
// canonicalized storage key. Keys are cleaned to prevent directory traversal.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", &domain.StorageError{Op: "write", Err: err}
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", &domain.StorageError{Op: "write", Err: err}
	}
	return cleanKey, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return &domain.StorageError{Op: "delete", Err: err}
	}
	return nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

var _ Store = (*FileStore)(nil)
