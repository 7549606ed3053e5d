package models

import "time"

// These structs define the JSON payloads exchanged with HTTP callers and the
// storage event trigger.

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Message string `json:"message"`
	Results []any  `json:"results"`
}

// ProjectRequest is the optional body of GET /api/process-project/{projectId}.
type ProjectRequest struct {
	Prompt string `json:"prompt"`
}

// ProjectAccepted is returned once a project batch has been scheduled.
type ProjectAccepted struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
	Files   int    `json:"files"`
}

// JobStatus is the lifecycle state of a background batch job.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "error"
)

// JobRecord is the queryable state of one background job.
type JobRecord struct {
	JobID       string    `json:"jobId"`
	Name        string    `json:"name"`
	Status      JobStatus `json:"status"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	FailedPages int       `json:"failedPages"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Finished reports whether the job reached a terminal state.
func (r JobRecord) Finished() bool {
	return r.Status == JobDone || r.Status == JobFailed
}

// StorageEvent is the data payload of a Cloud Storage object-finalize event.
type StorageEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}
