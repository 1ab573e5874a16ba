package dapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/qcgrid/qres/util"
)

// CreateJob submits a job to the control plane. Submission is not
// idempotent and is never retried; a failed attempt surfaces to the caller.
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
		out.ID = req.ID
	}
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

// ListJobs returns all jobs visible to the caller.
func (c *Client) ListJobs(ctx context.Context) (*Jobs, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/v1/jobs", nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &Jobs{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("unmarshaling job list: %v", err)
	}
	return out, nil
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
// already reached a terminal state is a successful no-op. With deleteAfter
// the control plane removes the job record once cancellation lands.
func (c *Client) CancelJob(ctx context.Context, id string, deleteAfter bool) error {
	path := "/v1/jobs/" + id + "/cancel"
	if deleteAfter {
		path += "?delete_after=true"
	}
	return c.Retrier.Retry(ctx, func() error {
		_, err := c.do(ctx, "POST", path, nil)
		if he, ok := err.(*util.HTTPError); ok && he.StatusCode == http.StatusConflict {
			// Already terminal.
			return nil
		}
		return err
	})
}

// DeleteJob removes a job record from the control plane.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.Retrier.Retry(ctx, func() error {
		_, err := c.do(ctx, "DELETE", "/v1/jobs/"+id, nil)
		return err
	})
}
