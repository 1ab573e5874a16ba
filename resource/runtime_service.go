package resource

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/qcgrid/qres/auth"
	"github.com/qcgrid/qres/config"
	"github.com/qcgrid/qres/logger"
	"github.com/qcgrid/qres/qrs"
)

// RuntimeService is a handle on a backend reached through the runtime
// service. Leases are server-side sessions: Acquire opens one and its id
// is the acquisition token attached to every task.
type RuntimeService struct {
	name   string
	conf   config.Resource
	client *qrs.Client
	track  *Tracker
	log    logger.Logger

	mu      sync.Mutex
	session string
}

// NewRuntimeService builds a runtime service handle from the descriptor.
func NewRuntimeService(conf config.Resource, log logger.Logger) (*RuntimeService, error) {
	if log == nil {
		log = logger.New("resource", "name", conf.Name)
	}

	tokens := auth.NewCache(auth.Config{
		Endpoint: conf.AuthEndpoint,
		APIKey:   conf.APIKey,
		Timeout:  time.Duration(conf.RequestTimeout),
	}, log)

	client, err := qrs.NewClient(conf, tokens, log)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Op: "new", Resource: conf.Name, Err: err}
	}

	return &RuntimeService{
		name:   conf.Name,
		conf:   conf,
		client: client,
		track:  NewTracker(),
		log:    log,
	}, nil
}

func (r *RuntimeService) IsAccessible(ctx context.Context) bool {
	backends, err := r.client.ListBackends(ctx)
	if err != nil {
		r.log.Debug("accessibility check failed", "error", err)
		return false
	}
	for _, b := range backends.Backends {
		if b.Name == r.name {
			return true
		}
	}
	return false
}

func (r *RuntimeService) Acquire(ctx context.Context) (string, error) {
	id, err := r.client.CreateSession(ctx, r.conf.Session.Mode,
		time.Duration(r.conf.Session.MaxTTL))
	if err != nil {
		return "", wrapErr(r.name, "acquire", err)
	}

	r.mu.Lock()
	r.session = id
	r.mu.Unlock()
	return id, nil
}

func (r *RuntimeService) Release(ctx context.Context, token string) error {
	if err := r.client.CloseSession(ctx, token); err != nil {
		return wrapErr(r.name, "release", err)
	}

	r.mu.Lock()
	if r.session == token {
		r.session = ""
	}
	r.mu.Unlock()
	return nil
}

func (r *RuntimeService) Target(ctx context.Context) ([]byte, error) {
	cfg, cerr := r.client.GetBackendConfiguration(ctx, r.name)
	props, perr := r.client.GetBackendProperties(ctx, r.name)
	if cerr != nil && perr != nil {
		return nil, wrapErr(r.name, "target", cerr)
	}

	t := struct {
		Configuration json.RawMessage `json:"configuration,omitempty"`
		Properties    json.RawMessage `json:"properties,omitempty"`
	}{}
	if cerr == nil {
		t.Configuration = cfg
	} else {
		r.log.Warn("target missing configuration", "error", cerr)
	}
	if perr == nil {
		t.Properties = props
	} else {
		r.log.Warn("target missing properties", "error", perr)
	}
	return json.Marshal(t)
}

func (r *RuntimeService) TaskStart(ctx context.Context, payload Payload) (string, error) {
	if payload.Program != "sampler" && payload.Program != "estimator" {
		return "", &Error{Kind: KindConfig, Op: "task start", Resource: r.name,
			Err: errUnknownProgram(payload.Program)}
	}

	r.mu.Lock()
	session := r.session
	r.mu.Unlock()

	job, err := r.client.CreateJob(ctx, &qrs.CreateJobRequest{
		ProgramID: payload.Program,
		Backend:   r.name,
		SessionID: session,
		Params:    json.RawMessage(payload.Input),
	})
	if err != nil {
		return "", wrapErr(r.name, "task start", err)
	}

	r.track.Observe(job.ID, Queued)
	return job.ID, nil
}

func (r *RuntimeService) TaskStatus(ctx context.Context, id string) (Status, error) {
	ws, err := r.client.GetJobStatus(ctx, id)
	if err != nil {
		return Unknown, wrapErr(r.name, "task status", err)
	}
	s, err := ParseStatus(string(ws))
	if err != nil {
		return Unknown, &Error{Kind: KindProtocol, Op: "task status", Resource: r.name, Err: err}
	}
	return r.track.Observe(id, s), nil
}

func (r *RuntimeService) TaskResult(ctx context.Context, id string) ([]byte, error) {
	switch last := r.track.Last(id); {
	case last == Completed:
	case last.Terminal():
		return nil, stateErr(r.name, "task result", "task did not complete: "+last.String())
	default:
		return nil, stateErr(r.name, "task result", "completion has not been observed, poll status first")
	}

	data, err := r.client.GetJobResults(ctx, id)
	if err != nil {
		return nil, wrapErr(r.name, "task result", err)
	}
	return data, nil
}

// TaskLogs returns the execution log text of a task.
func (r *RuntimeService) TaskLogs(ctx context.Context, id string) ([]byte, error) {
	data, err := r.client.GetJobLogs(ctx, id)
	if err != nil {
		return nil, wrapErr(r.name, "task logs", err)
	}
	return data, nil
}

func (r *RuntimeService) TaskStop(ctx context.Context, id string) error {
	ws, err := r.client.GetJobStatus(ctx, id)
	if err != nil {
		return wrapErr(r.name, "task stop", err)
	}

	var result *multierror.Error
	if !ws.Terminal() {
		if err := r.client.CancelJob(ctx, id); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := r.client.DeleteJob(ctx, id); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return wrapErr(r.name, "task stop", err)
	}

	r.track.Forget(id)
	r.log.Info("task stopped", "task", id)
	return nil
}

func (r *RuntimeService) Metadata() map[string]string {
	return map[string]string{
		"backend_name": r.name,
		"family":       string(config.RuntimeService),
	}
}
