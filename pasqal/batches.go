package pasqal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/qcgrid/qres/util"
)

// BatchStatus is a Pasqal cloud batch state.
type BatchStatus string

// Batch states. DONE, ERROR, CANCELED and TIMED_OUT are terminal.
const (
	Pending  BatchStatus = "PENDING"
	Running  BatchStatus = "RUNNING"
	Done     BatchStatus = "DONE"
	Error    BatchStatus = "ERROR"
	Canceled BatchStatus = "CANCELED"
	TimedOut BatchStatus = "TIMED_OUT"
)

// Terminal reports whether the status is final.
func (s BatchStatus) Terminal() bool {
	return s == Done || s == Error || s == Canceled || s == TimedOut
}

// JobVariables parameterizes one job within a batch.
type JobVariables struct {
	Runs      int             `json:"runs"`
	Variables json.RawMessage `json:"variables,omitempty"`
}

// CreateBatchRequest is the batch submission payload. The sequence is a
// serialized pulse sequence; it is never inspected.
type CreateBatchRequest struct {
	Sequence  string         `json:"sequence_builder"`
	Jobs      []JobVariables `json:"jobs"`
	ProjectID string         `json:"project_id"`
	Emulator  string         `json:"emulator,omitempty"`
}

// BatchJob is one job within a batch, with its result once available.
type BatchJob struct {
	ID     string          `json:"id"`
	Status BatchStatus     `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Batch is the control plane's view of a submitted batch.
type Batch struct {
	ID     string      `json:"id"`
	Status BatchStatus `json:"status"`
	Jobs   []BatchJob  `json:"jobs,omitempty"`
}

// envelope is the response wrapper used by the Pasqal cloud API.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func unwrap(body []byte) (json.RawMessage, error) {
	var e envelope
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("unmarshaling response envelope: %v", err)
	}
	if e.Data == nil {
		return nil, fmt.Errorf("response envelope missing data")
	}
	return e.Data, nil
}

// CreateBatch submits a batch scoped to the client's project. Submission
// is not idempotent and is never retried.
func (c *Client) CreateBatch(ctx context.Context, req *CreateBatchRequest) (*Batch, error) {
	if req.ProjectID == "" {
		req.ProjectID = c.project
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling batch request: %v", err)
	}

	body, err := c.do(ctx, "POST", "/batches", payload)
	if err != nil {
		return nil, err
	}
	data, err := unwrap(body)
	if err != nil {
		return nil, err
	}

	out := &Batch{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("unmarshaling batch: %v", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("batch response missing id")
	}
	c.log.Info("batch submitted", "batch", out.ID, "jobs", len(req.Jobs))
	return out, nil
}

// GetBatch returns a batch by id, including per-job results when the
// batch has finished.
func (c *Client) GetBatch(ctx context.Context, id string) (*Batch, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/batches/"+id, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	data, err := unwrap(body)
	if err != nil {
		return nil, err
	}

	out := &Batch{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("unmarshaling batch: %v", err)
	}
	return out, nil
}

// GetBatchStatus returns the current status of a batch.
func (c *Client) GetBatchStatus(ctx context.Context, id string) (BatchStatus, error) {
	b, err := c.GetBatch(ctx, id)
	if err != nil {
		return "", err
	}
	return b.Status, nil
}

// CancelBatch requests cancellation of a batch. Cancelling a batch that
// has already reached a terminal state is a successful no-op.
func (c *Client) CancelBatch(ctx context.Context, id string) error {
	return c.Retrier.Retry(ctx, func() error {
		_, err := c.do(ctx, "PATCH", "/batches/"+id+"/cancel", nil)
		if he, ok := err.(*util.HTTPError); ok && he.StatusCode == http.StatusConflict {
			return nil
		}
		return err
	})
}
