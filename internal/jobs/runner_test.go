package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/ledger"
	"server/internal/providers/image"
	"server/internal/storage"
)

type jobRecord struct {
	userID           string
	sourceKey        string
	originalURL      string
	style            string
	prompt           string
	status           domain.JobStatus
	resultKey        string
	resultURL        string
	errorMessage     string
	processingTimeMs int64
}

type txRecord struct {
	userID  string
	jobID   any
	typ     string
	credits int
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// stubDB backs the runner with in-memory state. WithTx snapshots the state and
// restores it when the callback errors, mimicking a rollback.
type stubDB struct {
	mu      sync.Mutex
	credits map[string]int
	jobs    map[string]*jobRecord
	txs     []txRecord
}

func newStubDB() *stubDB {
	return &stubDB{
		credits: make(map[string]int),
		jobs:    make(map[string]*jobRecord),
	}
}

func (s *stubDB) WithTx(ctx context.Context, fn func(tx infra.SQLExecutor) error) error {
	s.mu.Lock()
	creditsSnap := make(map[string]int, len(s.credits))
	for k, v := range s.credits {
		creditsSnap[k] = v
	}
	jobsSnap := make(map[string]*jobRecord, len(s.jobs))
	for k, v := range s.jobs {
		cp := *v
		jobsSnap[k] = &cp
	}
	txsSnap := append([]txRecord(nil), s.txs...)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.credits = creditsSnap
		s.jobs = jobsSnap
		s.txs = txsSnap
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *stubDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.Contains(query, "insert into credit_transactions") {
		s.txs = append(s.txs, txRecord{
			userID:  args[1].(string),
			jobID:   args[2],
			typ:     args[3].(string),
			credits: args[4].(int),
		})
		return pgconn.CommandTag{}, nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unsupported exec: %s", query)
}

func (s *stubDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unsupported query: %s", query)
}

func (s *stubDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.Contains(query, "skip locked"):
		for id, job := range s.jobs {
			if job.status != domain.JobStatusPending {
				continue
			}
			job.status = domain.JobStatusProcessing
			jobID := id
			return stubRow{scan: func(dest ...any) error {
				*dest[0].(*string) = jobID
				*dest[1].(*string) = job.userID
				*dest[2].(*string) = job.sourceKey
				*dest[3].(*string) = job.originalURL
				*dest[4].(*string) = job.style
				*dest[5].(*string) = job.prompt
				return nil
			}}
		}
		return stubRow{}
	case strings.Contains(query, "status = 'completed'"):
		job, ok := s.jobs[args[0].(string)]
		if !ok || job.status != domain.JobStatusProcessing {
			return stubRow{}
		}
		job.status = domain.JobStatusCompleted
		job.resultKey = args[1].(string)
		job.resultURL = args[2].(string)
		job.processingTimeMs = args[3].(int64)
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = args[0].(string)
			return nil
		}}
	case strings.Contains(query, "status = 'failed'"):
		job, ok := s.jobs[args[0].(string)]
		if !ok || job.status != domain.JobStatusProcessing {
			return stubRow{}
		}
		job.status = domain.JobStatusFailed
		job.errorMessage = args[1].(string)
		job.processingTimeMs = args[2].(int64)
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = args[0].(string)
			return nil
		}}
	case strings.Contains(query, "credits - "):
		userID := args[0].(string)
		n := args[1].(int)
		credits, ok := s.credits[userID]
		if !ok || credits < n {
			return stubRow{}
		}
		s.credits[userID] = credits - n
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*int) = s.credits[userID]
			return nil
		}}
	case strings.Contains(query, "select credits"):
		credits, ok := s.credits[args[0].(string)]
		if !ok {
			return stubRow{}
		}
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*int) = credits
			return nil
		}}
	default:
		return stubRow{scan: func(dest ...any) error {
			return fmt.Errorf("unsupported query_row: %s", query)
		}}
	}
}

var _ infra.TxBeginner = (*stubDB)(nil)

type fakeGenerator struct {
	result *image.Result
	err    error
	calls  int
}

func (g *fakeGenerator) Synthesize(ctx context.Context, req image.SynthesizeRequest) (*image.Result, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type fakeStore struct {
	putErr  error
	puts    []string
	deleted []string
}

func (s *fakeStore) IssueUploadTarget(ctx context.Context, fileName, contentType, scope string) (*storage.UploadTarget, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) Put(ctx context.Context, data []byte, fileName, contentType, folder string) (*storage.StoredObject, error) {
	if s.putErr != nil {
		return nil, s.putErr
	}
	key := folder + "/" + fileName
	s.puts = append(s.puts, key)
	return &storage.StoredObject{Key: key, URL: "http://cdn.test/" + key}, nil
}

func (s *fakeStore) PublicURL(key string) string {
	return "http://cdn.test/" + key
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func newTestRunner(db *stubDB, gen *fakeGenerator, store *fakeStore) *Runner {
	return &Runner{
		DB:        db,
		Ledger:    ledger.New(db),
		Generator: gen,
		Store:     store,
		Logger:    zerolog.Nop(),
	}
}

func seedJob(db *stubDB, id, userID string) {
	db.jobs[id] = &jobRecord{
		userID:      userID,
		sourceKey:   "uploads/" + userID + "/cat.png",
		originalURL: "http://cdn.test/uploads/" + userID + "/cat.png",
		style:       "cute-fluffy",
		prompt:      "wearing a scarf",
		status:      domain.JobStatusPending,
	}
}

func TestClaimMarksProcessing(t *testing.T) {
	db := newStubDB()
	seedJob(db, "job-1", "u1")
	r := newTestRunner(db, &fakeGenerator{}, &fakeStore{})

	j, err := r.claim(context.Background())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if j.ID != "job-1" || j.UserID != "u1" || j.Style != "cute-fluffy" {
		t.Fatalf("unexpected claim: %+v", j)
	}
	if db.jobs["job-1"].status != domain.JobStatusProcessing {
		t.Fatalf("claimed job status = %q, want processing", db.jobs["job-1"].status)
	}

	if _, err := r.claim(context.Background()); !errors.Is(err, errNoJobAvailable) {
		t.Fatalf("second claim error = %v, want errNoJobAvailable", err)
	}
}

func TestProcessCompletesAndDebitsOnce(t *testing.T) {
	db := newStubDB()
	db.credits["u1"] = 5
	seedJob(db, "job-1", "u1")
	gen := &fakeGenerator{result: &image.Result{Data: []byte("png"), ContentType: "image/png"}}
	store := &fakeStore{}
	r := newTestRunner(db, gen, store)

	j, err := r.claim(context.Background())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	r.process(context.Background(), j)

	job := db.jobs["job-1"]
	if job.status != domain.JobStatusCompleted {
		t.Fatalf("status = %q, want completed: %q", job.status, job.errorMessage)
	}
	if job.resultKey == "" || job.resultURL == "" {
		t.Fatalf("result not recorded: %+v", job)
	}
	if db.credits["u1"] != 5-domain.GenerationCost {
		t.Fatalf("credits = %d, want %d", db.credits["u1"], 5-domain.GenerationCost)
	}
	if len(db.txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(db.txs))
	}
	tx := db.txs[0]
	if tx.credits != -domain.GenerationCost || tx.typ != string(domain.TransactionGeneration) || tx.jobID != "job-1" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("result blob deleted on success")
	}
}

func TestProcessSynthesisFailureNoDebit(t *testing.T) {
	db := newStubDB()
	db.credits["u1"] = 5
	seedJob(db, "job-1", "u1")
	gen := &fakeGenerator{err: &domain.SynthesisError{
		Kind:    domain.SynthesisPolicyRejected,
		Message: "image flagged",
	}}
	store := &fakeStore{}
	r := newTestRunner(db, gen, store)

	j, _ := r.claim(context.Background())
	r.process(context.Background(), j)

	job := db.jobs["job-1"]
	if job.status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.status)
	}
	if !strings.Contains(job.errorMessage, "content policy") {
		t.Fatalf("errorMessage = %q, want policy mention", job.errorMessage)
	}
	if db.credits["u1"] != 5 {
		t.Fatalf("credits = %d, want 5 (no debit on failure)", db.credits["u1"])
	}
	if len(db.txs) != 0 {
		t.Fatalf("transaction recorded for a failed job")
	}
	if len(store.puts) != 0 {
		t.Fatalf("result stored despite synthesis failure")
	}
}

func TestProcessStoreFailure(t *testing.T) {
	db := newStubDB()
	db.credits["u1"] = 5
	seedJob(db, "job-1", "u1")
	gen := &fakeGenerator{result: &image.Result{Data: []byte("png"), ContentType: "image/png"}}
	store := &fakeStore{putErr: &domain.StorageError{Op: "put", Err: errors.New("bucket unavailable")}}
	r := newTestRunner(db, gen, store)

	j, _ := r.claim(context.Background())
	r.process(context.Background(), j)

	job := db.jobs["job-1"]
	if job.status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.status)
	}
	if db.credits["u1"] != 5 || len(db.txs) != 0 {
		t.Fatalf("credits moved despite store failure")
	}
}

func TestProcessInsufficientCreditsAtCompletion(t *testing.T) {
	db := newStubDB()
	db.credits["u1"] = 0
	seedJob(db, "job-1", "u1")
	gen := &fakeGenerator{result: &image.Result{Data: []byte("png"), ContentType: "image/png"}}
	store := &fakeStore{}
	r := newTestRunner(db, gen, store)

	j, _ := r.claim(context.Background())
	r.process(context.Background(), j)

	job := db.jobs["job-1"]
	if job.status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.status)
	}
	if !strings.Contains(job.errorMessage, "insufficient credits") {
		t.Fatalf("errorMessage = %q", job.errorMessage)
	}
	if db.credits["u1"] != 0 {
		t.Fatalf("credits = %d, want 0", db.credits["u1"])
	}
	if len(db.txs) != 0 {
		t.Fatalf("transaction survived rolled-back finalize")
	}
	if len(store.deleted) != 1 {
		t.Fatalf("orphaned result blob not cleaned up: %v", store.deleted)
	}
}

func TestFailureMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&domain.SynthesisError{Kind: domain.SynthesisPolicyRejected, Message: "flagged"}, "content policy"},
		{&domain.SynthesisError{Kind: domain.SynthesisRateLimited, Message: "slow down"}, "rate limiting"},
		{&domain.SynthesisError{Kind: domain.SynthesisAuthInvalid, Message: "bad key"}, "credentials"},
		{&domain.SynthesisError{Kind: domain.SynthesisUnknown, Message: "boom"}, "generation failed"},
		{errors.New("network"), "generation failed"},
	}
	for _, tc := range cases {
		if got := failureMessage(tc.err); !strings.Contains(got, tc.want) {
			t.Errorf("failureMessage(%v) = %q, want substring %q", tc.err, got, tc.want)
		}
	}

	msg := finalizeFailureMessage(&domain.InsufficientCreditsError{Required: 1, Available: 0})
	if !strings.Contains(msg, "required 1, available 0") {
		t.Errorf("finalizeFailureMessage = %q", msg)
	}
}
