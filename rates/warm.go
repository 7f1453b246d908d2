package rates

import (
	"context"
	"time"
)

// WarmJob is a background job keeping the cache fresh ahead of expiry
type WarmJob struct {
	service  *Service
	interval time.Duration
}

// WarmJob returns a job refreshing the cache twice per freshness window
func (s *Service) WarmJob() *WarmJob {
	return &WarmJob{
		service:  s,
		interval: s.freshness / 2,
	}
}

func (j *WarmJob) Name() string {
	return "rate cache warmer"
}

func (j *WarmJob) Interval() time.Duration {
	return j.interval
}

// Run refreshes the cache. A fallback-only refresh is reported as an
// error, so it gets retried early
func (j *WarmJob) Run(ctx context.Context) error {
	_, err := j.service.Refresh(ctx)

	return err
}
