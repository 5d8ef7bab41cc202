// Package jobs owns the in-memory registry of in-flight scan jobs. It
// bridges the single background execution that writes a job's event log to
// any number of observers that drain it through cursors.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
	"foodvision/internal/infra/metrics"
)

type jobState struct {
	job    model.Job
	doneAt time.Time
}

// Registry holds one append-only event log per job. Appends are serialized
// under the registry lock; observers only ever receive event copies, never
// references into the live log.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*jobState
	retention time.Duration
	log       *zerolog.Logger
}

func NewRegistry(retention time.Duration, logger *zerolog.Logger) *Registry {
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	l := logger.With().Str("component", "JobRegistry").Logger()
	return &Registry{
		jobs:      make(map[string]*jobState),
		retention: retention,
		log:       &l,
	}
}

// Create allocates a running job with an empty log and returns its id.
func (r *Registry) Create() string {
	id := uuid.NewString()
	r.mu.Lock()
	r.jobs[id] = &jobState{job: model.Job{ID: id, Status: model.JobStatusRunning}}
	r.mu.Unlock()
	r.log.Debug().Str("job_id", id).Msg("job created")
	return id
}

// Append adds an event to the job's log. Events arriving after the
// terminal one are dropped: the log is sealed the moment a result or
// error lands, so observers can rely on the terminal event being last.
func (r *Registry) Append(id string, ev model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[id]
	if !ok {
		return
	}
	if st.job.Status.Terminal() {
		r.log.Warn().Str("job_id", id).Str("kind", string(ev.Kind)).Msg("event after terminal dropped")
		return
	}
	st.job.Events = append(st.job.Events, ev)
	switch ev.Kind {
	case model.EventResult:
		st.job.Status = model.JobStatusDone
		st.doneAt = time.Now()
		metrics.IncScanJob(string(model.JobStatusDone))
	case model.EventError:
		st.job.Status = model.JobStatusError
		st.doneAt = time.Now()
		metrics.IncScanJob(string(model.JobStatusError))
	}
}

// ReadFrom returns the events appended since cursor and the next cursor to
// poll with. An event is never returned twice for the same cursor chain.
func (r *Registry) ReadFrom(id string, cursor int) ([]model.Event, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.jobs[id]
	if !ok {
		return nil, cursor, domain.ErrJobNotFound
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(st.job.Events) {
		return nil, cursor, nil
	}
	out := make([]model.Event, len(st.job.Events)-cursor)
	copy(out, st.job.Events[cursor:])
	return out, len(st.job.Events), nil
}

// Status returns the job's current lifecycle state.
func (r *Registry) Status(id string) (model.JobStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.jobs[id]
	if !ok {
		return "", domain.ErrJobNotFound
	}
	return st.job.Status, nil
}

// Sweep evicts terminal jobs whose retention window has elapsed. Running
// jobs are never evicted, and freshly finished ones stay readable long
// enough for slow observers to drain the log. Blocks until ctx is done.
func (r *Registry) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.retention)
			r.mu.Lock()
			for id, st := range r.jobs {
				if st.job.Status.Terminal() && st.doneAt.Before(cutoff) {
					delete(r.jobs, id)
					r.log.Debug().Str("job_id", id).Msg("job evicted")
				}
			}
			r.mu.Unlock()
		}
	}
}
