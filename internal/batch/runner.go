// Package batch wraps scheduled jobs with their on/off switch, run history
// and start/end banners.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/repository"
)

var ErrDisabled = errors.New("batch is disabled")

// Job does the work of one run and returns a one-line summary.
type Job func(ctx context.Context) (string, error)

type Runner struct {
	store *repository.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewRunner(store *repository.Store, log zerolog.Logger) *Runner {
	return &Runner{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Run executes job under the batch name. Failures and panics are logged,
// recorded on the run and returned.
func (r *Runner) Run(ctx context.Context, name, title string, job Job) (err error) {
	log := r.log.With().Str("batch", name).Logger()

	manage, err := r.store.Batches.GetOrCreate(ctx, name, title)
	if err != nil {
		return fmt.Errorf("load batch %s: %w", name, err)
	}
	if manage.Title != "" {
		title = manage.Title
	}

	log.Info().Msgf("============== %s started ==============", title)
	defer func() {
		log.Info().Msgf("============== %s finished ==============", title)
	}()

	run, err := r.store.Batches.StartRun(ctx, name, r.now())
	if err != nil {
		return fmt.Errorf("record run of %s: %w", name, err)
	}

	if !manage.IsActive {
		log.Error().Msgf("%s is not enabled", title)
		if finishErr := r.store.Batches.FinishRun(ctx, run.ID, model.BatchRunDisabled, ErrDisabled.Error(), r.now()); finishErr != nil {
			log.Error().Err(finishErr).Msg("failed to record batch run")
		}
		return ErrDisabled
	}

	summary, err := r.safeRun(ctx, job)
	status := model.BatchRunSuccess
	message := summary
	if err != nil {
		status = model.BatchRunFailed
		message = err.Error()
		log.Error().Err(err).Msg("batch failed")
	} else if summary != "" {
		log.Info().Msg(summary)
	}

	if finishErr := r.store.Batches.FinishRun(ctx, run.ID, status, message, r.now()); finishErr != nil {
		log.Error().Err(finishErr).Msg("failed to record batch run")
	}
	return err
}

func (r *Runner) safeRun(ctx context.Context, job Job) (summary string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Str("stack", string(debug.Stack())).Msg("batch panicked")
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return job(ctx)
}
