package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chivescore/api/internal/client"
	"github.com/chivescore/api/internal/model"
	"github.com/chivescore/api/internal/queue"
	"github.com/chivescore/api/internal/store"
)

var ErrNoImages = errors.New("no images supplied")

// SubmissionService accepts uploaded images and creates one job per image.
// A job is written to the store before it is queued, so an observer can
// always find a queued job by its id.
type SubmissionService struct {
	store *store.ResultStore
	queue *queue.JobQueue
	media client.StorageClient
}

func NewSubmissionService(resultStore *store.ResultStore, jobQueue *queue.JobQueue, media client.StorageClient) *SubmissionService {
	return &SubmissionService{
		store: resultStore,
		queue: jobQueue,
		media: media,
	}
}

// Submit creates one pending job per image and returns the job ids in
// submission order.
func (s *SubmissionService) Submit(ctx context.Context, req *model.SubmitRequest, images []model.ImageUpload) ([]string, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	jobIDs := make([]string, 0, len(images))
	for _, img := range images {
		jobID := uuid.New().String()

		imageRef, err := s.uploadImage(ctx, jobID, img)
		if err != nil {
			return jobIDs, fmt.Errorf("failed to store image: %w", err)
		}

		job := &model.Job{
			JobID:       jobID,
			ImageRef:    imageRef,
			MimeType:    img.MimeType,
			SubmittedBy: req.SubmittedBy,
			Subreddit:   req.Subreddit,
			PostID:      req.PostID,
			CreatedAt:   time.Now(),
			Status:      model.JobStatusPending,
		}

		// Durably record before queueing: a job is never in the queue
		// without a store entry.
		if err := s.store.SaveJob(ctx, job); err != nil {
			return jobIDs, fmt.Errorf("failed to save job: %w", err)
		}
		if err := s.queue.Push(ctx, job); err != nil {
			return jobIDs, fmt.Errorf("failed to enqueue job: %w", err)
		}

		jobIDs = append(jobIDs, jobID)
	}

	return jobIDs, nil
}

func (s *SubmissionService) uploadImage(ctx context.Context, jobID string, img model.ImageUpload) (string, error) {
	key := fmt.Sprintf("uploads/%s%s", jobID, mimeExt(img.MimeType))

	// Use mock refs if storage is not configured
	if s.media == nil {
		return key, nil
	}

	return s.media.Upload(ctx, key, bytes.NewReader(img.Data), img.MimeType)
}

func mimeExt(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
