package storage

import "context"

// UploadExpirySeconds is the validity window of an issued upload target.
const UploadExpirySeconds = 300

// MaxUploadBytes caps direct uploads accepted by the filesystem backend.
const MaxUploadBytes = 10 << 20

// UploadTarget is a time-limited endpoint a client may PUT a blob to.
type UploadTarget struct {
	UploadEndpoint   string
	BlobKey          string
	ExpiresInSeconds int
}

// StoredObject describes a blob written server-side.
type StoredObject struct {
	Key string
	URL string
}

// Store abstracts the object store the generation pipeline depends on.
type Store interface {
	// IssueUploadTarget derives a fresh blob key under scope and returns a
	// short-lived endpoint the client can upload to. Content types outside the
	// allowed image set are rejected.
	IssueUploadTarget(ctx context.Context, fileName, contentType, scope string) (*UploadTarget, error)

	// Put writes bytes under a fresh key in folder and returns the key and its
	// public URL.
	Put(ctx context.Context, data []byte, fileName, contentType, folder string) (*StoredObject, error)

	// PublicURL derives the client-facing URL for a stored key. Pure string
	// derivation, no network call.
	PublicURL(key string) string

	// Delete removes a blob. Deleting a nonexistent key is not an error.
	Delete(ctx context.Context, key string) error
}

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AllowedContentType reports whether ct is in the accepted image set.
func AllowedContentType(ct string) bool {
	_, ok := allowedContentTypes[ct]
	return ok
}
