package resource

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/qcgrid/qres/auth"
	"github.com/qcgrid/qres/config"
	"github.com/qcgrid/qres/dapi"
	"github.com/qcgrid/qres/logger"
	"github.com/qcgrid/qres/storage"
)

// DirectAccess is a handle on a backend reached through the direct-access
// control plane. The backend is exclusively provisioned for the caller,
// so leases are purely local: Acquire mints a token without a network
// exchange and Release is a no-op.
type DirectAccess struct {
	name   string
	conf   config.Resource
	client *dapi.Client
	track  *Tracker
	log    logger.Logger

	mu   sync.Mutex
	jobs map[string]*dapi.PrimitiveJob
}

// NewDirectAccess builds a direct-access handle from the descriptor,
// wiring the object store, the credential cache and the control plane
// client.
func NewDirectAccess(conf config.Resource, log logger.Logger) (*DirectAccess, error) {
	if log == nil {
		log = logger.New("resource", "name", conf.Name)
	}

	s3, err := storage.NewS3(conf.Store)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Op: "new", Resource: conf.Name, Err: err}
	}

	tokens := auth.NewCache(auth.Config{
		Endpoint: conf.AuthEndpoint,
		APIKey:   conf.APIKey,
		Timeout:  time.Duration(conf.RequestTimeout),
	}, log)

	client, err := dapi.NewClient(conf, tokens, storage.NewRetrier(s3), log)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Op: "new", Resource: conf.Name, Err: err}
	}

	return &DirectAccess{
		name:   conf.Name,
		conf:   conf,
		client: client,
		track:  NewTracker(),
		log:    log,
		jobs:   map[string]*dapi.PrimitiveJob{},
	}, nil
}

func (d *DirectAccess) IsAccessible(ctx context.Context) bool {
	b, err := d.client.GetBackend(ctx, d.name)
	if err != nil {
		d.log.Debug("accessibility check failed", "error", err)
		return false
	}
	return !strings.EqualFold(b.Status, "offline")
}

func (d *DirectAccess) Acquire(ctx context.Context) (string, error) {
	token := uuid.New().String()
	d.log.Debug("lease acquired", "token", token)
	return token, nil
}

func (d *DirectAccess) Release(ctx context.Context, token string) error {
	d.log.Debug("lease released", "token", token)
	return nil
}

func (d *DirectAccess) Target(ctx context.Context) ([]byte, error) {
	// Configuration and properties are fetched independently; one
	// missing document degrades the snapshot instead of failing it.
	cfg, cerr := d.client.GetBackendConfiguration(ctx, d.name)
	props, perr := d.client.GetBackendProperties(ctx, d.name)
	if cerr != nil && perr != nil {
		return nil, wrapErr(d.name, "target", cerr)
	}

	t := dapi.Target{}
	if cerr == nil {
		t.Configuration = cfg
	} else {
		d.log.Warn("target missing configuration", "error", cerr)
	}
	if perr == nil {
		t.Properties = props
	} else {
		d.log.Warn("target missing properties", "error", perr)
	}
	return json.Marshal(t)
}

func (d *DirectAccess) TaskStart(ctx context.Context, payload Payload) (string, error) {
	prog := dapi.ProgramID(payload.Program)
	if prog != dapi.Sampler && prog != dapi.Estimator {
		return "", &Error{Kind: KindConfig, Op: "task start", Resource: d.name,
			Err: errUnknownProgram(payload.Program)}
	}

	job, err := d.client.RunPrimitive(ctx, d.name, prog, payload.Input, "info",
		time.Duration(d.conf.JobTimeout))
	if err != nil {
		return "", wrapErr(d.name, "task start", err)
	}

	d.mu.Lock()
	d.jobs[job.ID] = job
	d.mu.Unlock()
	d.track.Observe(job.ID, Queued)
	return job.ID, nil
}

func (d *DirectAccess) TaskStatus(ctx context.Context, id string) (Status, error) {
	ws, err := d.client.GetJobStatus(ctx, id)
	if err != nil {
		return Unknown, wrapErr(d.name, "task status", err)
	}
	s, err := ParseStatus(string(ws))
	if err != nil {
		return Unknown, &Error{Kind: KindProtocol, Op: "task status", Resource: d.name, Err: err}
	}
	return d.track.Observe(id, s), nil
}

func (d *DirectAccess) TaskResult(ctx context.Context, id string) ([]byte, error) {
	switch last := d.track.Last(id); {
	case last == Completed:
	case last.Terminal():
		return nil, stateErr(d.name, "task result", "task did not complete: "+last.String())
	default:
		return nil, stateErr(d.name, "task result", "completion has not been observed, poll status first")
	}

	data, err := d.job(id).Result(ctx)
	if err != nil {
		return nil, wrapErr(d.name, "task result", err)
	}
	return data, nil
}

// TaskLogs returns the staged execution log document for a task. Logs are
// written by the backend as the task runs; a missing document only means
// nothing has been logged yet.
func (d *DirectAccess) TaskLogs(ctx context.Context, id string) ([]byte, error) {
	data, err := d.job(id).Logs(ctx)
	if err != nil {
		return nil, wrapErr(d.name, "task logs", err)
	}
	return data, nil
}

func (d *DirectAccess) TaskStop(ctx context.Context, id string) error {
	ws, err := d.client.GetJobStatus(ctx, id)
	if err != nil {
		return wrapErr(d.name, "task stop", err)
	}

	var result *multierror.Error
	if !ws.Terminal() {
		if err := d.client.CancelJob(ctx, id, false); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := d.client.DeleteJob(ctx, id); err != nil {
		result = multierror.Append(result, err)
	}
	if err := d.job(id).Cleanup(ctx); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return wrapErr(d.name, "task stop", err)
	}

	d.track.Forget(id)
	d.mu.Lock()
	delete(d.jobs, id)
	d.mu.Unlock()
	d.log.Info("task stopped", "task", id)
	return nil
}

func (d *DirectAccess) Metadata() map[string]string {
	return map[string]string{
		"backend_name": d.name,
		"family":       string(config.DirectAccess),
	}
}

// job returns the tracked job handle, reattaching by id when the handle
// was created by another process.
func (d *DirectAccess) job(id string) *dapi.PrimitiveJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	if j, ok := d.jobs[id]; ok {
		return j
	}
	j := d.client.Attach(id)
	d.jobs[id] = j
	return j
}

type errUnknownProgram string

func (e errUnknownProgram) Error() string {
	return "unknown program id: " + string(e)
}
