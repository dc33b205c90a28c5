package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chivescore/api/internal/client"
	"github.com/chivescore/api/internal/model"
	"github.com/chivescore/api/internal/queue"
	"github.com/chivescore/api/internal/store"
)

// AnalysisWorker is the single sequential consumer: it pops a job, fetches
// the image, calls the vision service, and always writes a terminal Result —
// completed or failed — before acking. Job-level errors are never retried;
// only queue-level poll errors trigger a backoff, and nothing here ever
// kills the loop.
type AnalysisWorker struct {
	queue      *queue.JobQueue
	store      *store.ResultStore
	vision     client.VisionAnalyzer
	media      client.StorageClient
	popTimeout time.Duration
	backoff    time.Duration
}

func NewAnalysisWorker(
	jobQueue *queue.JobQueue,
	resultStore *store.ResultStore,
	vision client.VisionAnalyzer,
	media client.StorageClient,
	popTimeout time.Duration,
	backoff time.Duration,
) *AnalysisWorker {
	return &AnalysisWorker{
		queue:      jobQueue,
		store:      resultStore,
		vision:     vision,
		media:      media,
		popTimeout: popTimeout,
		backoff:    backoff,
	}
}

// Run consumes jobs until the context is canceled. One job is processed
// fully before the next pop; throughput scales by adding workers, not by
// overlapping work within one.
func (w *AnalysisWorker) Run(ctx context.Context) {
	log.Println("Analysis worker started")

	for {
		if ctx.Err() != nil {
			log.Println("Analysis worker stopped")
			return
		}

		delivery, err := w.queue.Pop(ctx, w.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Analysis worker stopped")
				return
			}
			log.Printf("Queue poll error: %v (backing off %s)", err, w.backoff)
			select {
			case <-ctx.Done():
			case <-time.After(w.backoff):
			}
			continue
		}
		if delivery == nil {
			// Bounded wait elapsed with nothing queued; retry.
			continue
		}

		if err := w.Process(ctx, delivery.Job); err != nil {
			// Terminal write failed: leave the delivery unacked so the
			// lease expires and the reaper redelivers it.
			log.Printf("Terminal write failed for job %s: %v", delivery.Job.JobID, err)
			continue
		}

		if err := w.queue.Ack(ctx, delivery); err != nil {
			log.Printf("Failed to ack job %s: %v", delivery.Job.JobID, err)
		}
	}
}

// Process runs one job to a terminal Result. Every failure path records a
// failed Result so a poller never sees a job stuck in pending. A non-nil
// return means the terminal write itself failed and the job must not be
// acked; job-level analysis failures are recorded, not returned.
func (w *AnalysisWorker) Process(ctx context.Context, job *model.Job) error {
	log.Printf("Starting analysis job: %s", job.JobID)

	// Use mock metrics if the vision service is not configured
	if w.vision == nil || !w.vision.IsConfigured() {
		if err := w.completeJob(ctx, job.JobID, mockRawMetrics()); err != nil {
			return err
		}
		log.Printf("Analysis job %s completed (mock)", job.JobID)
		return nil
	}

	if w.media == nil {
		return w.failJob(ctx, job.JobID, "media storage not configured")
	}

	image, err := w.media.Fetch(ctx, job.ImageRef)
	if err != nil {
		return w.failJob(ctx, job.JobID, fmt.Sprintf("Image fetch failed: %v", err))
	}

	text, err := w.vision.AnalyzeImage(ctx, image, job.MimeType)
	if err != nil {
		return w.failJob(ctx, job.JobID, fmt.Sprintf("Vision analysis failed: %v", err))
	}

	raw, err := ParseRawMetrics(text)
	if err != nil {
		return w.failJob(ctx, job.JobID, fmt.Sprintf("Unparseable analysis response: %v", err))
	}

	if err := w.completeJob(ctx, job.JobID, raw); err != nil {
		return err
	}
	log.Printf("Analysis job %s completed", job.JobID)
	return nil
}

func (w *AnalysisWorker) completeJob(ctx context.Context, jobID string, raw *model.RawMetrics) error {
	result := &model.Result{
		JobID:       jobID,
		Status:      model.JobStatusCompleted,
		Raw:         raw,
		ProcessedAt: time.Now(),
	}

	if err := w.store.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save result for job %s: %w", jobID, err)
	}
	if err := w.store.UpdateJobStatus(ctx, jobID, model.JobStatusCompleted); err != nil {
		return fmt.Errorf("failed to update job %s status: %w", jobID, err)
	}
	return nil
}

func (w *AnalysisWorker) failJob(ctx context.Context, jobID, errMsg string) error {
	log.Printf("Analysis job %s failed: %s", jobID, errMsg)

	result := &model.Result{
		JobID:       jobID,
		Status:      model.JobStatusFailed,
		Error:       errMsg,
		ProcessedAt: time.Now(),
	}

	if err := w.store.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save result for job %s: %w", jobID, err)
	}
	if err := w.store.UpdateJobStatus(ctx, jobID, model.JobStatusFailed); err != nil {
		return fmt.Errorf("failed to update job %s status: %w", jobID, err)
	}
	return nil
}

// mockRawMetrics returns deterministic metrics for development without a
// configured vision service.
func mockRawMetrics() *model.RawMetrics {
	avg := 1.2
	std := 0.3
	regions := make([]model.RegionMetrics, 0, len(model.RegionIDs))
	for i, id := range model.RegionIDs {
		rAvg := 1.0 + float64(i%3)*0.2
		rStd := 0.25
		label := model.CutQualityClean
		if i == 4 {
			label = model.CutQualityMixed
		}
		regions = append(regions, model.RegionMetrics{
			ID:                 id,
			AverageThicknessMm: &rAvg,
			ThicknessStdDevMm:  &rStd,
			CutQualityLabel:    label,
		})
	}

	return &model.RawMetrics{
		AverageThicknessMm: &avg,
		ThicknessStdDevMm:  &std,
		CutQualityLabel:    model.CutQualityClean,
		RawNotes:           "Mock analysis (vision service not configured)",
		Regions:            regions,
	}
}
