package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"
)

var (
	errInvalidJob      = errors.New("invalid job")
	errInvalidInterval = errors.New("invalid interval")
)

// Orchestrator is the main scheduler for registered background jobs
type Orchestrator struct {
	logger *slog.Logger

	registeredJobs sync.Map

	q             iq.Queue[scheduledRun]
	queryInterval time.Duration
	retryDelay    time.Duration
	qMux          sync.Mutex
}

// New creates a new Orchestrator instance
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		q:             iq.NewQueue[scheduledRun](),
		queryInterval: time.Second, // every second
		retryDelay:    time.Second * 10,
	}

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Register registers a new job with the orchestrator.
// The job is immediately queued up for execution
func (o *Orchestrator) Register(j Job) error {
	if j == nil || j.Name() == "" {
		return errInvalidJob
	}

	if j.Interval() <= 0 {
		return errInvalidInterval
	}

	// Register the job
	id := xid.New()
	o.registeredJobs.Store(id, j)

	o.logger.Info(
		"registered new job",
		"name", j.Name(),
	)

	// Schedule the first run
	o.scheduleRun(
		time.Now().UTC(),
		id,
		j,
	)

	return nil
}

// Start starts the job orchestration service loop [BLOCKING]
func (o *Orchestrator) Start(ctx context.Context) error {
	collectorCh := make(chan *workerResponse, 100)

	// consecutive failed runs, per job
	failures := make(map[xid.ID]int)

	ticker := time.NewTicker(o.queryInterval)
	defer ticker.Stop()

	// handleDue initializes all runs that are executable (due)
	handleDue := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				next := o.nextRun()
				if next == nil {
					return // nothing to run anymore
				}

				o.logger.Debug(
					"running job",
					"name", next.job.Name(),
				)

				info := &workerInfo{
					job:   next.job,
					jobID: next.jobID,
					resCh: collectorCh,
				}

				go handleJob(ctx, info)
			}
		}
	}

	// Run the first set of due jobs (on boot)
	handleDue()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator service shut down")

			return nil
		case <-ticker.C:
			handleDue()
		case response := <-collectorCh:
			now := time.Now().UTC()

			jRaw, ok := o.registeredJobs.Load(response.jobID)
			if !ok {
				o.logger.Error(
					"unable to load registered job",
					"id", response.jobID.String(),
				)

				continue
			}

			j, _ := jRaw.(Job)

			if response.error != nil {
				failures[response.jobID]++

				delay := retryDelay(o.retryDelay, failures[response.jobID], j.Interval())

				o.logger.Error(
					"error encountered during job run",
					"name", j.Name(),
					"id", response.jobID.String(),
					"retry_in", delay.String(),
					"err", response.error.Error(),
				)

				// Retry the job, backing off on repeated failures
				o.scheduleRun(
					now.Add(delay),
					response.jobID,
					j,
				)

				continue
			}

			delete(failures, response.jobID)

			// Schedule the next run for this job
			o.scheduleRun(
				now.Add(j.Interval()),
				response.jobID,
				j,
			)
		}
	}
}

// scheduleRun schedules a new job run
func (o *Orchestrator) scheduleRun(
	at time.Time,
	jobID xid.ID,
	job Job,
) {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	o.q.Push(scheduledRun{
		at:    at,
		jobID: jobID,
		job:   job,
	})
}

// nextRun fetches the next due run, as of the moment of calling
func (o *Orchestrator) nextRun() *scheduledRun {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	now := time.Now().UTC()

	if o.q.Len() == 0 {
		return nil // nothing to run, all jobs are running
	}

	// Check if the top element is due
	if o.q.Index(0).at.After(now) {
		return nil // nothing to run, next job is in the future
	}

	return o.q.PopFront()
}

// retryDelay doubles the base delay for every consecutive failure
// after the first, and never exceeds the job interval
func retryDelay(base time.Duration, failures int, interval time.Duration) time.Duration {
	delay := base

	for i := 1; i < failures && delay < interval; i++ {
		delay *= 2
	}

	if delay > interval {
		return interval
	}

	return delay
}
