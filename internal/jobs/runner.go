// Package jobs runs the background half of the generation lifecycle: claim a
// pending job, synthesize, store the result, and finalize exactly once.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/ledger"
	"server/internal/providers/image"
	"server/internal/sqlinline"
	"server/internal/storage"
)

const defaultPollInterval = 2 * time.Second

var errNoJobAvailable = errors.New("no job available")

// Runner claims pending generation jobs and drives them to a terminal state.
// Claims use row locking with skip-locked semantics, so any number of runners
// (embedded in the API or standalone workers) can safely share the queue.
type Runner struct {
	DB        infra.TxBeginner
	Ledger    *ledger.Ledger
	Generator image.Generator
	Store     storage.Store
	Logger    zerolog.Logger

	Concurrency  int
	PollInterval time.Duration
}

type claimedJob struct {
	ID          string
	UserID      string
	SourceKey   string
	OriginalURL string
	Style       string
	Prompt      string
}

// Run blocks until ctx is cancelled, processing jobs with the configured
// concurrency.
func (r *Runner) Run(ctx context.Context) error {
	workers := r.Concurrency
	if workers <= 0 {
		workers = 1
	}
	r.Logger.Info().Int("workers", workers).Msg("job runner: started")
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.loop(ctx)
		}()
	}
	wg.Wait()
	r.Logger.Info().Msg("job runner: stopped")
	return ctx.Err()
}

func (r *Runner) loop(ctx context.Context) {
	interval := r.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		j, err := r.claim(ctx)
		if err != nil {
			if !errors.Is(err, errNoJobAvailable) && ctx.Err() == nil {
				r.Logger.Error().Err(err).Msg("job runner: claim failed")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
			continue
		}

		r.process(ctx, j)
	}
}

func (r *Runner) claim(ctx context.Context) (claimedJob, error) {
	row := r.DB.QueryRow(ctx, sqlinline.QClaimPendingJob)
	var j claimedJob
	if err := row.Scan(&j.ID, &j.UserID, &j.SourceKey, &j.OriginalURL, &j.Style, &j.Prompt); err != nil {
		if infra.IsNoRows(err) {
			return claimedJob{}, errNoJobAvailable
		}
		return claimedJob{}, err
	}
	return j, nil
}

// process drives one claimed (already processing) job to completed or failed.
func (r *Runner) process(ctx context.Context, j claimedJob) {
	log := r.Logger.With().Str("job_id", j.ID).Str("style", j.Style).Logger()
	log.Info().Msg("job runner: picked job")
	start := time.Now()

	result, err := r.Generator.Synthesize(ctx, image.SynthesizeRequest{
		SourceURL: j.OriginalURL,
		Style:     j.Style,
		Prompt:    j.Prompt,
		RequestID: j.ID,
	})
	if err != nil {
		log.Error().Err(err).Msg("job runner: synthesis failed")
		r.fail(ctx, j.ID, failureMessage(err), time.Since(start))
		return
	}

	stored, err := r.Store.Put(ctx, result.Data, "plushie-"+j.ID+".png", result.ContentType, "generated")
	if err != nil {
		log.Error().Err(err).Msg("job runner: result store failed")
		r.fail(ctx, j.ID, "failed to store generated image", time.Since(start))
		return
	}

	elapsed := time.Since(start)
	err = r.DB.WithTx(ctx, func(tx infra.SQLExecutor) error {
		var id string
		if err := tx.QueryRow(ctx, sqlinline.QCompleteJob, j.ID, stored.Key, stored.URL, elapsed.Milliseconds()).Scan(&id); err != nil {
			if infra.IsNoRows(err) {
				return fmt.Errorf("job %s no longer processing", j.ID)
			}
			return err
		}
		description := fmt.Sprintf("Generated plushie image (%s)", j.Style)
		return r.Ledger.WithExecutor(tx).DebitAndRecord(ctx, j.UserID, domain.GenerationCost, j.ID, description)
	})
	if err != nil {
		// The transaction rolled back: the job is still processing and no
		// credit moved. Mark it failed and drop the orphaned result blob.
		log.Error().Err(err).Msg("job runner: finalize failed")
		if delErr := r.Store.Delete(ctx, stored.Key); delErr != nil {
			log.Warn().Err(delErr).Str("key", stored.Key).Msg("job runner: orphan cleanup failed")
		}
		r.fail(ctx, j.ID, finalizeFailureMessage(err), elapsed)
		return
	}

	log.Info().Dur("took", elapsed).Msg("job runner: completed")
}

func (r *Runner) fail(ctx context.Context, jobID, msg string, elapsed time.Duration) {
	var id string
	err := r.DB.QueryRow(ctx, sqlinline.QFailJob, jobID, msg, elapsed.Milliseconds()).Scan(&id)
	if err != nil {
		r.Logger.Error().Err(err).Str("job_id", jobID).Msg("job runner: mark failed errored")
	}
}

// failureMessage renders a synthesis failure for the job record, preserving
// the provider classification for operator diagnosis.
func failureMessage(err error) string {
	var synthErr *domain.SynthesisError
	if errors.As(err, &synthErr) {
		switch synthErr.Kind {
		case domain.SynthesisPolicyRejected:
			return "generation rejected by content policy: " + synthErr.Message
		case domain.SynthesisRateLimited:
			return "generation provider is rate limiting requests, try again shortly: " + synthErr.Message
		case domain.SynthesisAuthInvalid:
			return "generation provider rejected credentials: " + synthErr.Message
		default:
			return "generation failed: " + synthErr.Message
		}
	}
	return "generation failed: " + err.Error()
}

func finalizeFailureMessage(err error) string {
	var insufficientErr *domain.InsufficientCreditsError
	if errors.As(err, &insufficientErr) {
		return fmt.Sprintf("insufficient credits at completion (required %d, available %d)",
			insufficientErr.Required, insufficientErr.Available)
	}
	return "failed to finalize generation: " + err.Error()
}
