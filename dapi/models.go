package dapi

import "encoding/json"

// JobStatus is a control plane job state.
type JobStatus string

// Job states as reported by the control plane. Completed, Failed and
// Cancelled are terminal.
const (
	Queued    JobStatus = "Queued"
	Running   JobStatus = "Running"
	Completed JobStatus = "Completed"
	Failed    JobStatus = "Failed"
	Cancelled JobStatus = "Cancelled"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// ProgramID names a primitive program.
type ProgramID string

// The primitive programs a backend can run.
const (
	Sampler   ProgramID = "sampler"
	Estimator ProgramID = "estimator"
)

// Backend describes one quantum backend exposed by the control plane.
type Backend struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Backends is the backend list document.
type Backends struct {
	Backends []Backend `json:"backends"`
}

// Job is the control plane's view of a submitted job.
type Job struct {
	ID        string    `json:"id"`
	Backend   string    `json:"backend"`
	ProgramID ProgramID `json:"program_id"`
	Status    JobStatus `json:"status"`
	Reason    string    `json:"reason_message,omitempty"`
}

// Jobs is the job list document.
type Jobs struct {
	Jobs []Job `json:"jobs"`
}

// Metrics reports per-job usage accounting.
type Metrics struct {
	CreatedTime string `json:"created_time"`
	EndTime     string `json:"end_time"`
	// ComputeTime is usage in seconds.
	ComputeTime float64 `json:"compute_time"`
}

// storageRef points the backend at one presigned object URL.
type storageRef struct {
	PresignedURL string `json:"presigned_url"`
	Type         string `json:"type"`
}

// jobStorage carries the three staged object references for a job.
type jobStorage struct {
	Input   storageRef `json:"input"`
	Results storageRef `json:"results"`
	Logs    storageRef `json:"logs"`
}

// CreateJobRequest is the job creation payload.
type CreateJobRequest struct {
	ID          string     `json:"id"`
	Backend     string     `json:"backend"`
	ProgramID   ProgramID  `json:"program_id"`
	LogLevel    string     `json:"log_level"`
	TimeoutSecs int64      `json:"timeout_secs"`
	Storage     jobStorage `json:"storage"`
}

// Target is the backend system snapshot used for transpilation.
type Target struct {
	Configuration json.RawMessage `json:"configuration,omitempty"`
	Properties    json.RawMessage `json:"properties,omitempty"`
}
