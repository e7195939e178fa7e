// Package orchestrator expands batch requests into generation tasks,
// schedules them on a bounded worker pool, and tracks job lifecycle in the
// status cache. Cancellation is cooperative: it stops further dispatch,
// never a task already running.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"levelforge/internal/domain"
	"levelforge/internal/generator"
	"levelforge/internal/guard"
	"levelforge/internal/statuscache"
)

// Config carries the orchestrator tunables. PoolSize is fixed at
// construction, independent of request size.
type Config struct {
	PoolSize int
	Limits   Limits
}

type control struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

type task struct {
	jobID string
	ctrl  *control
	req   domain.GenerationRequest
	wg    *sync.WaitGroup
}

// Orchestrator owns job execution. Jobs are registered in the status
// cache at admission and read back from there by pollers; the orchestrator
// keeps only the cancellation controls.
type Orchestrator struct {
	cfg    Config
	cache  *statuscache.Cache
	gen    generator.Generator
	logger zerolog.Logger

	root  context.Context
	tasks chan task

	mu       sync.Mutex
	controls map[string]*control
}

// New builds an Orchestrator. Call Start before submitting work.
func New(cfg Config, cache *statuscache.Cache, gen generator.Generator, logger zerolog.Logger) *Orchestrator {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 4
	}
	return &Orchestrator{
		cfg:      cfg,
		cache:    cache,
		gen:      gen,
		logger:   logger,
		root:     context.Background(),
		tasks:    make(chan task),
		controls: make(map[string]*control),
	}
}

// Limits exposes the configured batch ceilings for pre-flight checks.
func (o *Orchestrator) Limits() Limits {
	return o.cfg.Limits
}

// Start launches the worker pool. Workers drain until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	o.root = ctx
	for i := 0; i < o.cfg.PoolSize; i++ {
		go o.worker(ctx)
	}
}

func (o *Orchestrator) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-o.tasks:
			o.runTask(t)
		}
	}
}

// StartBatch validates the batch, registers a Pending job, and begins
// dispatching asynchronously. It never blocks on task completion.
func (o *Orchestrator) StartBatch(req domain.BatchRequest) (string, BatchValidation, error) {
	v := ValidateBatchRequest(req, o.cfg.Limits)
	if !v.Valid {
		return "", v, fmt.Errorf("batch request: %w", domain.ErrInvalidRequest)
	}

	reqs := make([]domain.GenerationRequest, 0, v.TotalLevels)
	for _, combo := range ExpandCombinations(req.Variations) {
		reqs = append(reqs, applyCombination(req.BaseConfig, combo))
	}

	id := o.admit(domain.JobKindBatch, len(reqs))
	o.logger.Info().Str("job_id", id).Str("session_id", req.SessionID).
		Int("total_levels", len(reqs)).Msg("batch admitted")
	go o.runJob(id, reqs)
	return id, v, nil
}

// StartSingle registers a one-unit background job for a request the
// router deemed too expensive to run inline.
func (o *Orchestrator) StartSingle(req domain.GenerationRequest) string {
	id := o.admit(domain.JobKindSingle, 1)
	o.logger.Info().Str("job_id", id).Int("tiles", req.Width*req.Height).Msg("background generation admitted")
	go o.runJob(id, []domain.GenerationRequest{req})
	return id
}

// admit creates the job record, its cache entry, and its cancellation
// control. The job id is an unguessable token.
func (o *Orchestrator) admit(kind domain.JobKind, totalUnits int) string {
	id := uuid.NewString()
	now := time.Now()
	o.cache.Put(domain.Job{
		ID:            id,
		Kind:          kind,
		State:         domain.JobStatePending,
		TotalUnits:    totalUnits,
		CreatedAt:     now,
		LastUpdatedAt: now,
	})

	ctx, cancel := context.WithCancel(o.root)
	o.mu.Lock()
	o.controls[id] = &control{ctx: ctx, cancel: cancel}
	o.mu.Unlock()
	return id
}

// Cancel flags a job for cooperative cancellation. Already-dispatched
// tasks run to completion; the job reaches Cancelled once they settle.
func (o *Orchestrator) Cancel(id string) error {
	job, ok := o.cache.Get(id)
	if !ok {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if job.State.Terminal() {
		return fmt.Errorf("job %s is %s and cannot be cancelled: %w", id, job.State, domain.ErrInvalidState)
	}

	o.mu.Lock()
	ctrl := o.controls[id]
	o.mu.Unlock()

	if ctrl == nil {
		// No dispatcher owns it anymore; settle the record directly.
		o.cache.Update(id, func(j *domain.Job) {
			if !j.State.Terminal() {
				j.State = domain.JobStateCancelled
			}
		})
		return nil
	}

	ctrl.cancelled.Store(true)
	ctrl.cancel()
	o.logger.Info().Str("job_id", id).Msg("job cancellation requested")
	return nil
}

// runJob is the per-job dispatcher. It feeds the shared pool one task per
// expanded configuration, gated on the cancellation context, then settles
// the terminal state once in-flight tasks finish.
func (o *Orchestrator) runJob(id string, reqs []domain.GenerationRequest) {
	o.mu.Lock()
	ctrl := o.controls[id]
	o.mu.Unlock()
	if ctrl == nil {
		return
	}
	defer func() {
		ctrl.cancel()
		o.mu.Lock()
		delete(o.controls, id)
		o.mu.Unlock()
	}()

	var wg sync.WaitGroup
	for i, req := range reqs {
		if ctrl.ctx.Err() != nil {
			break
		}
		if i == 0 {
			o.cache.Update(id, func(j *domain.Job) {
				if j.State == domain.JobStatePending {
					j.State = domain.JobStateRunning
				}
			})
		}
		wg.Add(1)
		select {
		case o.tasks <- task{jobID: id, ctrl: ctrl, req: req, wg: &wg}:
		case <-ctrl.ctx.Done():
			wg.Done()
		}
	}
	wg.Wait()

	o.cache.Update(id, func(j *domain.Job) {
		if j.State.Terminal() {
			return
		}
		switch {
		case ctrl.cancelled.Load():
			j.State = domain.JobStateCancelled
		case j.CompletedUnits >= j.TotalUnits:
			j.State = domain.JobStateCompleted
		default:
			// Dispatch stopped early without an explicit cancel: the
			// process is shutting down.
			j.State = domain.JobStateFailed
			j.ErrorMessage = "generation interrupted"
		}
	})
	job, _ := o.cache.Get(id)
	o.logger.Info().Str("job_id", id).Str("state", string(job.State)).
		Int("completed", job.CompletedUnits).Int("total", job.TotalUnits).Msg("job settled")
}

// runTask executes one generation task. Failures are folded into job
// state and never escape the pool. The first failure wins; later outcomes
// are logged but the terminal state stands.
func (o *Orchestrator) runTask(t task) {
	defer t.wg.Done()

	level, err := o.gen.Generate(o.root, t.req)
	if err != nil {
		o.logger.Warn().Str("job_id", t.jobID).Err(err).Msg("generation task failed")
		o.cache.Update(t.jobID, func(j *domain.Job) {
			if j.State.Terminal() {
				return
			}
			j.State = domain.JobStateFailed
			j.ErrorMessage = guard.SanitizeText(err.Error(), 0)
		})
		// Stop dispatching the rest of the job.
		t.ctrl.cancel()
		return
	}
	o.logger.Debug().Str("job_id", t.jobID).
		Int("tiles", level.Width*level.Height).Int("entities", len(level.Entities)).
		Msg("generation task done")

	o.cache.Update(t.jobID, func(j *domain.Job) {
		if j.State.Terminal() || t.ctrl.cancelled.Load() {
			return
		}
		j.CompletedUnits++
		if j.CompletedUnits >= j.TotalUnits {
			j.State = domain.JobStateCompleted
		}
	})
}
