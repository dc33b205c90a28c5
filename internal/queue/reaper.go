package queue

import (
	"context"
	"log"
	"time"
)

// Reaper periodically requeues in-flight jobs whose visibility lease expired.
type Reaper struct {
	queue    *JobQueue
	interval time.Duration
}

func NewReaper(q *JobQueue, interval time.Duration) *Reaper {
	return &Reaper{
		queue:    q,
		interval: interval,
	}
}

// Run loops until the context is canceled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.queue.RequeueExpired(ctx)
			if err != nil {
				log.Printf("Reaper error: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Reaper requeued %d expired job(s)", n)
			}
		}
	}
}
