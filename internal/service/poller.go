package service

import (
	"context"
	"time"

	"github.com/chivescore/api/internal/model"
)

// PollOutcome distinguishes how a poll loop ended. A timed-out poll is not a
// job failure: the job may still complete later, the caller just gave up.
type PollOutcome string

const (
	PollCompleted PollOutcome = "completed"
	PollFailed    PollOutcome = "failed"
	PollTimedOut  PollOutcome = "timed_out"
)

// ResultPoller repeatedly reads the store until the job reaches a terminal
// status or the attempt budget runs out. There is no cancellation signal to
// the worker; this is purely a client-side give-up.
type ResultPoller struct {
	status      *StatusService
	interval    time.Duration
	maxAttempts int
}

func NewResultPoller(status *StatusService, interval time.Duration, maxAttempts int) *ResultPoller {
	return &ResultPoller{
		status:      status,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Wait polls at the fixed interval for up to maxAttempts reads. On timeout
// it returns (nil, PollTimedOut, nil).
func (p *ResultPoller) Wait(ctx context.Context, jobID string) (*model.StatusResponse, PollOutcome, error) {
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		resp, err := p.status.GetStatus(ctx, jobID)
		if err != nil {
			return nil, "", err
		}

		switch resp.Status {
		case model.JobStatusCompleted:
			return resp, PollCompleted, nil
		case model.JobStatusFailed:
			return resp, PollFailed, nil
		}

		// No sleep after the last read; the budget bounds the reads, not
		// a trailing wait.
		if attempt == p.maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(p.interval):
		}
	}

	return nil, PollTimedOut, nil
}
