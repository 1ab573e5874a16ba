package dapi

import (
	"context"
	"fmt"
	"time"

	"github.com/qcgrid/qres/util"
)

// presignMargin is added to the job timeout when presigning staged object
// URLs, so the backend can still write results after a slow run.
const presignMargin = time.Hour

// PrimitiveJob tracks one staged primitive submission.
type PrimitiveJob struct {
	ID string

	client     *Client
	inputKey   string
	resultsKey string
	logsKey    string
}

// RunPrimitive stages the primitive input in the object store, presigns the
// three staged object URLs, and submits the job. The input bytes are an
// opaque primitive payload; they are never inspected.
func (c *Client) RunPrimitive(ctx context.Context, backend string, program ProgramID, input []byte, logLevel string, timeout time.Duration) (*PrimitiveJob, error) {
	id := util.GenJobID()
	j := &PrimitiveJob{
		ID:         id,
		client:     c,
		inputKey:   fmt.Sprintf("input_%s.json", id),
		resultsKey: fmt.Sprintf("results_%s.json", id),
		logsKey:    fmt.Sprintf("logs_%s.json", id),
	}

	if err := c.store.Put(ctx, c.bucket, j.inputKey, input); err != nil {
		return nil, fmt.Errorf("staging input: %v", err)
	}

	ttl := timeout + presignMargin
	inputURL, err := c.store.PresignGet(c.bucket, j.inputKey, ttl)
	if err != nil {
		return nil, fmt.Errorf("presigning input: %v", err)
	}
	resultsURL, err := c.store.PresignPut(c.bucket, j.resultsKey, ttl)
	if err != nil {
		return nil, fmt.Errorf("presigning results: %v", err)
	}
	logsURL, err := c.store.PresignPut(c.bucket, j.logsKey, ttl)
	if err != nil {
		return nil, fmt.Errorf("presigning logs: %v", err)
	}

	_, err = c.CreateJob(ctx, &CreateJobRequest{
		ID:          id,
		Backend:     backend,
		ProgramID:   program,
		LogLevel:    logLevel,
		TimeoutSecs: int64(timeout.Seconds()),
		Storage: jobStorage{
			Input:   storageRef{PresignedURL: inputURL, Type: "s3_compatible"},
			Results: storageRef{PresignedURL: resultsURL, Type: "s3_compatible"},
			Logs:    storageRef{PresignedURL: logsURL, Type: "s3_compatible"},
		},
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("primitive job submitted", "job", id, "backend", backend, "program", program)
	return j, nil
}

// Status returns the current job status.
func (j *PrimitiveJob) Status(ctx context.Context) (JobStatus, error) {
	return j.client.GetJobStatus(ctx, j.ID)
}

// Result reads the staged results document. It does not wait: calling it
// before the backend has written results returns a storage not-found error.
func (j *PrimitiveJob) Result(ctx context.Context) ([]byte, error) {
	return j.client.store.Get(ctx, j.client.bucket, j.resultsKey)
}

// Logs reads the staged execution log document.
func (j *PrimitiveJob) Logs(ctx context.Context) ([]byte, error) {
	return j.client.store.Get(ctx, j.client.bucket, j.logsKey)
}

// Cleanup removes the staged objects for this job. Missing objects are
// not an error.
func (j *PrimitiveJob) Cleanup(ctx context.Context) error {
	var result error
	for _, key := range []string{j.inputKey, j.resultsKey, j.logsKey} {
		if err := j.client.store.Delete(ctx, j.client.bucket, key); err != nil {
			result = err
		}
	}
	return result
}

// Attach reopens a handle on a previously submitted job id.
func (c *Client) Attach(id string) *PrimitiveJob {
	return &PrimitiveJob{
		ID:         id,
		client:     c,
		inputKey:   fmt.Sprintf("input_%s.json", id),
		resultsKey: fmt.Sprintf("results_%s.json", id),
		logsKey:    fmt.Sprintf("logs_%s.json", id),
	}
}
