package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"server/internal/domain"
)

// GCSStore is the production object store backend. Upload targets are V4
// signed PUT URLs; results are written server-side through an object writer.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore builds a client for bucket. credentialsFile may be empty, in
// which case ambient credentials are used.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, &domain.StorageError{Op: "init", Err: err}
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) IssueUploadTarget(ctx context.Context, fileName, contentType, scope string) (*UploadTarget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !AllowedContentType(contentType) {
		return nil, fmt.Errorf("%w: content type %q not allowed", domain.ErrInvalidInput, contentType)
	}
	key := ObjectKey(fileName, scope)
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &gcs.SignedURLOptions{
		Scheme:      gcs.SigningSchemeV4,
		Method:      "PUT",
		Expires:     time.Now().Add(UploadExpirySeconds * time.Second),
		ContentType: contentType,
	})
	if err != nil {
		return nil, &domain.StorageError{Op: "sign upload", Err: err}
	}
	return &UploadTarget{
		UploadEndpoint:   url,
		BlobKey:          key,
		ExpiresInSeconds: UploadExpirySeconds,
	}, nil
}

func (s *GCSStore) Put(ctx context.Context, data []byte, fileName, contentType, folder string) (*StoredObject, error) {
	key := ObjectKey(fileName, folder)
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, &domain.StorageError{Op: "put", Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &domain.StorageError{Op: "put", Err: err}
	}
	return &StoredObject{Key: key, URL: s.PublicURL(key)}, nil
}

func (s *GCSStore) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return &domain.StorageError{Op: "delete", Err: err}
	}
	return nil
}

var _ Store = (*GCSStore)(nil)
