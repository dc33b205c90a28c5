package model

import "time"

// Job is one unit of submitted work (one image) tracked through
// pending/completed/failed. Created by the submission service, mutated only
// by the worker, and expired from Redis by TTL — there is no explicit delete.
type Job struct {
	JobID       string    `json:"jobId"`
	ImageRef    string    `json:"imageRef"`
	MimeType    string    `json:"mimeType"`
	SubmittedBy string    `json:"submittedBy"`
	Subreddit   string    `json:"subreddit"`
	PostID      string    `json:"postId"`
	CreatedAt   time.Time `json:"createdAt"`
	Status      JobStatus `json:"status"`
}

// Result is the terminal outcome record the worker writes exactly once per
// job. Raw is set on completion, Error on failure; never both.
type Result struct {
	JobID       string      `json:"jobId"`
	Status      JobStatus   `json:"status"`
	Raw         *RawMetrics `json:"raw,omitempty"`
	Error       string      `json:"error,omitempty"`
	ProcessedAt time.Time   `json:"processedAt"`
}
