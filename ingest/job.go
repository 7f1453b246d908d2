package ingest

import (
	"context"
	"time"
)

// Job is a single periodic background job
type Job interface {
	// Name returns the human-readable name of the job
	Name() string

	// Interval returns the interval at which the job should be run
	Interval() time.Duration

	// Run is the job's main routine
	Run(context.Context) error
}
