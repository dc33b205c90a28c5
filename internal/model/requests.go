package model

import "time"

// ImageUpload is one image buffer as received from the HTTP layer.
type ImageUpload struct {
	Data     []byte
	MimeType string
}

// SubmitRequest carries the caller-provided provenance for a submission.
type SubmitRequest struct {
	SubmittedBy string `json:"submittedBy" validate:"required"`
	Subreddit   string `json:"subreddit" validate:"required"`
	PostID      string `json:"postId" validate:"required"`
}

// SubmitResponse lists the created job ids in submission order.
type SubmitResponse struct {
	JobIDs []string `json:"jobIds"`
}

// StatusResponse is the read-path payload for one job.
// Scored and Raw are set only for completed jobs, Error only for failed ones.
type StatusResponse struct {
	JobID       string         `json:"jobId"`
	Status      JobStatus      `json:"status"`
	Scored      *ScoredMetrics `json:"scored,omitempty"`
	Raw         *RawMetrics    `json:"raw,omitempty"`
	Error       string         `json:"error,omitempty"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty"`
}
