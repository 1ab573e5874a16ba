package qrs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/qcgrid/qres/util"
)

// JobStatus is a runtime service job state.
type JobStatus string

// Job states as reported by the runtime service. Completed, Failed and
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

// CreateJobRequest is the inline job submission payload.
type CreateJobRequest struct {
	ProgramID string `json:"program_id"`
	Backend   string `json:"backend"`
	// SessionID attaches the job to an open execution lane.
	SessionID string `json:"session_id,omitempty"`
	// Params is the primitive payload, carried inline.
	Params   json.RawMessage `json:"params"`
	LogLevel string          `json:"log_level,omitempty"`
}

// Job is the runtime service's view of a submitted job.
type Job struct {
	ID        string    `json:"id"`
	Backend   string    `json:"backend"`
	ProgramID string    `json:"program_id"`
	SessionID string    `json:"session_id,omitempty"`
	Status    JobStatus `json:"status"`
	Reason    string    `json:"reason_message,omitempty"`
}

// Metrics reports per-job usage accounting.
type Metrics struct {
	CreatedTime string  `json:"created_time"`
	EndTime     string  `json:"end_time"`
	ComputeTime float64 `json:"compute_time"`
}

// CreateJob submits a job. Submission is not idempotent and is never
// retried.
func (c *Client) CreateJob(ctx context.Context, req *CreateJobRequest) (*Job, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling job request: %v", err)
	}

	body, err := c.do(ctx, "POST", "/v1/jobs", payload)
	if err != nil {
		return nil, err
	}

	out := &Job{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("unmarshaling job: %v", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("job response missing id")
	}
	c.log.Info("job submitted", "job", out.ID, "backend", req.Backend, "session", req.SessionID)
	return out, nil
}

// GetJob returns one job by id.
func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/v1/jobs/"+id, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &Job{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("unmarshaling job: %v", err)
	}
	return out, nil
}

// GetJobStatus returns the current status of a job.
func (c *Client) GetJobStatus(ctx context.Context, id string) (JobStatus, error) {
	job, err := c.GetJob(ctx, id)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

// GetJobResults returns the results document of a completed job.
func (c *Client) GetJobResults(ctx context.Context, id string) (json.RawMessage, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/v1/jobs/"+id+"/results", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// GetJobLogs returns the execution log text of a job.
func (c *Client) GetJobLogs(ctx context.Context, id string) ([]byte, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/v1/jobs/"+id+"/logs", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJobMetrics returns usage accounting for a job.
func (c *Client) GetJobMetrics(ctx context.Context, id string) (*Metrics, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/v1/jobs/"+id+"/metrics", nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &Metrics{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("unmarshaling job metrics: %v", err)
	}
	return out, nil
}

// CancelJob requests cancellation of a job. Cancelling a job that has
// already reached a terminal state is a successful no-op.
func (c *Client) CancelJob(ctx context.Context, id string) error {
	return c.Retrier.Retry(ctx, func() error {
		_, err := c.do(ctx, "POST", "/v1/jobs/"+id+"/cancel", nil)
		if he, ok := err.(*util.HTTPError); ok && he.StatusCode == http.StatusConflict {
			return nil
		}
		return err
	})
}

// DeleteJob removes a job record from the runtime service.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.Retrier.Retry(ctx, func() error {
		_, err := c.do(ctx, "DELETE", "/v1/jobs/"+id, nil)
		return err
	})
}
