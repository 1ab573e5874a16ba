package resource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/qcgrid/qres/config"
	"github.com/qcgrid/qres/logger"
	"github.com/qcgrid/qres/pasqal"
)

// Pasqal is a handle on a Pasqal cloud device. Tasks are batches of
// pulse-sequence jobs; there are no server-side leases, so acquisition
// tokens are minted locally.
type Pasqal struct {
	name   string
	conf   config.Resource
	client *pasqal.Client
	track  *Tracker
	log    logger.Logger
}

// NewPasqal builds a Pasqal cloud handle from the descriptor. The
// resource name selects the device, e.g. "FRESNEL".
func NewPasqal(conf config.Resource, log logger.Logger) (*Pasqal, error) {
	if log == nil {
		log = logger.New("resource", "name", conf.Name)
	}

	client, err := pasqal.NewClient(conf, log)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Op: "new", Resource: conf.Name, Err: err}
	}

	return &Pasqal{
		name:   conf.Name,
		conf:   conf,
		client: client,
		track:  NewTracker(),
		log:    log,
	}, nil
}

func (p *Pasqal) IsAccessible(ctx context.Context) bool {
	specs, err := p.client.GetDeviceSpecs(ctx)
	if err != nil {
		p.log.Debug("accessibility check failed", "error", err)
		return false
	}
	_, ok := specs[p.name]
	return ok
}

func (p *Pasqal) Acquire(ctx context.Context) (string, error) {
	token := uuid.New().String()
	p.log.Debug("lease acquired", "token", token)
	return token, nil
}

func (p *Pasqal) Release(ctx context.Context, token string) error {
	p.log.Debug("lease released", "token", token)
	return nil
}

func (p *Pasqal) Target(ctx context.Context) ([]byte, error) {
	specs, err := p.client.GetDeviceSpecs(ctx)
	if err != nil {
		return nil, wrapErr(p.name, "target", err)
	}
	spec, ok := specs[p.name]
	if !ok {
		return nil, &Error{Kind: KindProtocol, Op: "target", Resource: p.name,
			Err: fmt.Errorf("device %q not in specs document", p.name)}
	}
	return []byte(spec), nil
}

func (p *Pasqal) TaskStart(ctx context.Context, payload Payload) (string, error) {
	// The input document is the batch request itself: a serialized
	// sequence plus per-job run counts and variables.
	req := &pasqal.CreateBatchRequest{}
	if err := json.Unmarshal(payload.Input, req); err != nil {
		return "", &Error{Kind: KindConfig, Op: "task start", Resource: p.name,
			Err: fmt.Errorf("malformed batch payload: %v", err)}
	}

	batch, err := p.client.CreateBatch(ctx, req)
	if err != nil {
		return "", wrapErr(p.name, "task start", err)
	}

	p.track.Observe(batch.ID, Queued)
	return batch.ID, nil
}

func (p *Pasqal) TaskStatus(ctx context.Context, id string) (Status, error) {
	ws, err := p.client.GetBatchStatus(ctx, id)
	if err != nil {
		return Unknown, wrapErr(p.name, "task status", err)
	}

	var s Status
	switch ws {
	case pasqal.Pending:
		s = Queued
	case pasqal.Running:
		s = Running
	case pasqal.Done:
		s = Completed
	case pasqal.Error, pasqal.TimedOut:
		s = Failed
	case pasqal.Canceled:
		s = Cancelled
	default:
		return Unknown, &Error{Kind: KindProtocol, Op: "task status", Resource: p.name,
			Err: fmt.Errorf("unknown batch status %q", ws)}
	}
	return p.track.Observe(id, s), nil
}

func (p *Pasqal) TaskResult(ctx context.Context, id string) ([]byte, error) {
	switch last := p.track.Last(id); {
	case last == Completed:
	case last.Terminal():
		return nil, stateErr(p.name, "task result", "task did not complete: "+last.String())
	default:
		return nil, stateErr(p.name, "task result", "completion has not been observed, poll status first")
	}

	batch, err := p.client.GetBatch(ctx, id)
	if err != nil {
		return nil, wrapErr(p.name, "task result", err)
	}
	return json.Marshal(batch.Jobs)
}

func (p *Pasqal) TaskStop(ctx context.Context, id string) error {
	ws, err := p.client.GetBatchStatus(ctx, id)
	if err != nil {
		return wrapErr(p.name, "task stop", err)
	}

	if !ws.Terminal() {
		if err := p.client.CancelBatch(ctx, id); err != nil {
			return wrapErr(p.name, "task stop", err)
		}
	}

	p.track.Forget(id)
	p.log.Info("task stopped", "task", id)
	return nil
}

func (p *Pasqal) Metadata() map[string]string {
	return map[string]string{
		"backend_name": p.name,
		"family":       string(config.PasqalCloud),
	}
}
