package service

import (
	"context"
	"fmt"

	"github.com/chivescore/api/internal/model"
	"github.com/chivescore/api/internal/scoring"
	"github.com/chivescore/api/internal/store"
)

// StatusService is the client-facing read path. Scores are recomputed from
// the stored raw metrics on every call — they are never cached, so rubric
// revisions apply to historical results without reprocessing images.
type StatusService struct {
	store *store.ResultStore
}

func NewStatusService(resultStore *store.ResultStore) *StatusService {
	return &StatusService{
		store: resultStore,
	}
}

// GetStatus returns the current view of a job. Callers see pending,
// completed (with raw and freshly scored metrics), or failed (with the
// worker's error message); missing jobs surface store.ErrJobNotFound.
func (s *StatusService) GetStatus(ctx context.Context, jobID string) (*model.StatusResponse, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status == model.JobStatusPending {
		return &model.StatusResponse{
			JobID:  jobID,
			Status: model.JobStatusPending,
		}, nil
	}

	result, err := s.store.GetResult(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s is %s but has no result: %w", jobID, job.Status, err)
	}

	resp := &model.StatusResponse{
		JobID:       jobID,
		Status:      result.Status,
		ProcessedAt: &result.ProcessedAt,
	}

	switch result.Status {
	case model.JobStatusCompleted:
		scored := scoring.Score(result.Raw)
		resp.Raw = result.Raw
		resp.Scored = &scored
	case model.JobStatusFailed:
		resp.Error = result.Error
	}

	return resp, nil
}
