package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/ledger"
	"server/internal/storage"
)

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// stubDB is an in-memory SQLExecutor that dispatches on the statement text,
// enough to exercise the handlers without a database.
type stubDB struct {
	mu      sync.Mutex
	credits map[string]int
	users   map[string]*domain.User
	jobs    map[string]*domain.GenerationJob
}

func newStubDB() *stubDB {
	return &stubDB{
		credits: make(map[string]int),
		users:   make(map[string]*domain.User),
		jobs:    make(map[string]*domain.GenerationJob),
	}
}

func (s *stubDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, fmt.Errorf("unsupported exec: %s", query)
}

func (s *stubDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unsupported query: %s", query)
}

func (s *stubDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.Contains(query, "select id, email, name"):
		u, ok := s.users[args[0].(string)]
		if !ok {
			return stubRow{}
		}
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = u.ID
			*dest[1].(*string) = u.Email
			*dest[2].(*string) = u.Name
			*dest[3].(*int) = u.Credits
			*dest[4].(*time.Time) = u.CreatedAt
			*dest[5].(*time.Time) = u.UpdatedAt
			return nil
		}}
	case strings.Contains(query, "select credits"):
		userID := args[0].(string)
		credits, ok := s.credits[userID]
		if !ok {
			return stubRow{}
		}
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*int) = credits
			return nil
		}}
	case strings.Contains(query, "insert into generation_jobs"):
		now := time.Now()
		job := &domain.GenerationJob{
			ID:          args[0].(string),
			UserID:      args[1].(string),
			SourceKey:   args[2].(string),
			OriginalURL: args[3].(string),
			Style:       args[4].(string),
			Prompt:      args[5].(string),
			Status:      domain.JobStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.jobs[job.ID] = job
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = job.ID
			*dest[1].(*time.Time) = job.CreatedAt
			return nil
		}}
	case strings.Contains(query, "from generation_jobs"):
		job, ok := s.jobs[args[0].(string)]
		if !ok {
			return stubRow{}
		}
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = job.ID
			*dest[1].(*string) = job.UserID
			*dest[2].(*string) = job.SourceKey
			*dest[3].(*string) = job.OriginalURL
			*dest[4].(*string) = job.Style
			*dest[5].(*string) = job.Prompt
			*dest[6].(*domain.JobStatus) = job.Status
			*dest[7].(*string) = job.ResultKey
			*dest[8].(*string) = job.ResultURL
			*dest[9].(*string) = job.ErrorMessage
			*dest[10].(*int64) = job.ProcessingTimeMs
			*dest[11].(*time.Time) = job.CreatedAt
			*dest[12].(*time.Time) = job.UpdatedAt
			return nil
		}}
	default:
		return stubRow{scan: func(dest ...any) error {
			return fmt.Errorf("unsupported query_row: %s", query)
		}}
	}
}

var _ infra.SQLExecutor = (*stubDB)(nil)

func newTestApp(t *testing.T, db *stubDB) *App {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static", "http://localhost:8080/v1/upload/direct", "test-secret")
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	cfg := &infra.Config{JWTSecret: "test-secret"}
	return NewApp(cfg, zerolog.Nop(), db, ledger.New(db), files, files)
}
