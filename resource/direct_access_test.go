package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/qcgrid/qres/auth"
	"github.com/qcgrid/qres/config"
	"github.com/qcgrid/qres/dapi"
	"github.com/qcgrid/qres/logger"
	"github.com/qcgrid/qres/storage"
)

// controlPlane is a mock direct-access control plane with a scripted
// status sequence.
type controlPlane struct {
	mu       sync.Mutex
	statuses []string
	polls    int
	created  string
	canceled bool
	deleted  bool
}

func (cp *controlPlane) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cp.mu.Lock()
		defer cp.mu.Unlock()

		switch {
		case r.Method == "GET" && r.URL.Path == "/v1/backends/ibm_fez":
			w.Write([]byte(`{"name":"ibm_fez","status":"online"}`))

		case r.Method == "GET" && r.URL.Path == "/v1/backends/ibm_fez/configuration":
			w.Write([]byte(`{"backend_name":"ibm_fez","n_qubits":156}`))

		case r.Method == "GET" && r.URL.Path == "/v1/backends/ibm_fez/properties":
			w.Write([]byte(`{"last_update_date":"2026-08-24"}`))

		case r.Method == "POST" && r.URL.Path == "/v1/jobs":
			var req struct {
				ID string `json:"id"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			cp.created = req.ID
			w.Write([]byte(`{"id":"` + req.ID + `","status":"Queued"}`))

		case r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/cancel"):
			cp.canceled = true
			w.WriteHeader(http.StatusNoContent)

		case r.Method == "DELETE" && strings.HasPrefix(r.URL.Path, "/v1/jobs/"):
			cp.deleted = true
			w.WriteHeader(http.StatusNoContent)

		case r.Method == "GET" && strings.HasPrefix(r.URL.Path, "/v1/jobs/"):
			i := cp.polls
			if i >= len(cp.statuses) {
				i = len(cp.statuses) - 1
			}
			cp.polls++
			w.Write([]byte(`{"id":"` + cp.created + `","status":"` + cp.statuses[i] + `"}`))

		default:
			http.NotFound(w, r)
		}
	})
}

func testDirectAccess(t *testing.T, url string, store storage.Store) *DirectAccess {
	t.Helper()
	conf := config.Resource{
		Name:           "ibm_fez",
		Family:         config.DirectAccess,
		Endpoint:       url,
		ServiceCRN:     "crn:v1:test",
		JobTimeout:     config.Duration(time.Hour),
		RequestTimeout: config.Duration(time.Second * 5),
		Store:          config.ObjectStore{Bucket: "stage"},
	}
	client, err := dapi.NewClient(conf, auth.Static("test-token"), store, nil)
	if err != nil {
		t.Fatal(err)
	}
	client.Retrier.InitialInterval = time.Millisecond
	client.Retrier.MaxInterval = time.Millisecond * 4
	return &DirectAccess{
		name:   conf.Name,
		conf:   conf,
		client: client,
		track:  NewTracker(),
		log:    logger.New("test"),
		jobs:   map[string]*dapi.PrimitiveJob{},
	}
}

// Full lifecycle: accessibility, lease, submit, poll to completion,
// fetch results, stop.
func TestDirectAccessLifecycle(t *testing.T) {
	ctx := context.Background()
	cp := &controlPlane{statuses: []string{"Queued", "Running", "Completed"}}
	ts := httptest.NewServer(cp.handler())
	defer ts.Close()

	store := storage.NewFake()
	store.PresignBase = "http://stage.local"
	d := testDirectAccess(t, ts.URL, store)

	if !d.IsAccessible(ctx) {
		t.Fatal("backend should be accessible")
	}

	token, err := d.Acquire(ctx)
	if err != nil || token == "" {
		t.Fatal("acquire failed", token, err)
	}
	if err := d.Release(ctx, token); err != nil {
		t.Fatal("release failed:", err)
	}
	if err := d.Release(ctx, token); err != nil {
		t.Error("repeated release should be a no-op, got", err)
	}

	input := []byte(`{"pubs":[["OPENQASM 3.0;",[],128]],"version":2}`)
	id, err := d.TaskStart(ctx, Payload{Program: "sampler", Input: input})
	if err != nil {
		t.Fatal(err)
	}
	if cp.created != id {
		t.Error("job was not created on the control plane")
	}

	want := []Status{Queued, Running, Completed}
	for _, w := range want {
		s, err := d.TaskStatus(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if s != w {
			t.Errorf("unexpected status %s, want %s", s, w)
		}
	}

	// The backend writes results through its presigned URL; emulate that
	// by writing straight to the store.
	results := []byte(`{"results":[{"data":{"c":{"samples":["0x1"]}}}]}`)
	store.Put(ctx, "stage", "results_"+id+".json", results)

	got, err := d.TaskResult(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(results) {
		t.Error("unexpected results document")
	}

	store.Put(ctx, "stage", "logs_"+id+".json", []byte("sampler: 128 shots"))
	logs, err := d.TaskLogs(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if string(logs) != "sampler: 128 shots" {
		t.Error("unexpected log document", string(logs))
	}

	// Stop on a completed task must not cancel, only dispose.
	if err := d.TaskStop(ctx, id); err != nil {
		t.Fatal("stop on completed task should succeed, got", err)
	}
	if cp.canceled {
		t.Error("completed task must not be cancelled")
	}
	if !cp.deleted {
		t.Error("task record was not deleted")
	}
	if keys, _ := store.List(ctx, "stage"); len(keys) != 0 {
		t.Error("staged objects left behind", keys)
	}
}

func TestDirectAccessStopRunningCancels(t *testing.T) {
	ctx := context.Background()
	cp := &controlPlane{statuses: []string{"Running"}}
	ts := httptest.NewServer(cp.handler())
	defer ts.Close()

	d := testDirectAccess(t, ts.URL, storage.NewFake())
	id, err := d.TaskStart(ctx, Payload{Program: "sampler", Input: []byte(`{}`)})
	if err != nil {
		t.Fatal(err)
	}

	if err := d.TaskStop(ctx, id); err != nil {
		t.Fatal(err)
	}
	if !cp.canceled {
		t.Error("running task should be cancelled")
	}
	if !cp.deleted {
		t.Error("task record was not deleted")
	}
}

func TestDirectAccessStatusNeverRegresses(t *testing.T) {
	ctx := context.Background()
	cp := &controlPlane{statuses: []string{"Running", "Completed", "Running"}}
	ts := httptest.NewServer(cp.handler())
	defer ts.Close()

	d := testDirectAccess(t, ts.URL, storage.NewFake())
	id, err := d.TaskStart(ctx, Payload{Program: "sampler", Input: []byte(`{}`)})
	if err != nil {
		t.Fatal(err)
	}

	d.TaskStatus(ctx, id)
	d.TaskStatus(ctx, id)
	// A stale read behind the load balancer reports Running again; the
	// handle must keep reporting Completed.
	s, err := d.TaskStatus(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if s != Completed {
		t.Error("terminal status regressed to", s)
	}
}

func TestDirectAccessResultRequiresObservedCompletion(t *testing.T) {
	ctx := context.Background()
	cp := &controlPlane{statuses: []string{"Completed"}}
	ts := httptest.NewServer(cp.handler())
	defer ts.Close()

	store := storage.NewFake()
	d := testDirectAccess(t, ts.URL, store)
	id, err := d.TaskStart(ctx, Payload{Program: "sampler", Input: []byte(`{}`)})
	if err != nil {
		t.Fatal(err)
	}

	// The task is already complete remotely, but this handle has not
	// observed it yet.
	_, err = d.TaskResult(ctx, id)
	re, ok := err.(*Error)
	if !ok || re.Kind != KindState {
		t.Fatal("expected state error before completion is observed, got", err)
	}

	if _, err := d.TaskStatus(ctx, id); err != nil {
		t.Fatal(err)
	}
	store.Put(ctx, "stage", "results_"+id+".json", []byte(`{"results":[]}`))
	if _, err := d.TaskResult(ctx, id); err != nil {
		t.Error("result after observed completion should succeed, got", err)
	}
}

func TestDirectAccessResultOnFailedTask(t *testing.T) {
	ctx := context.Background()
	cp := &controlPlane{statuses: []string{"Failed"}}
	ts := httptest.NewServer(cp.handler())
	defer ts.Close()

	d := testDirectAccess(t, ts.URL, storage.NewFake())
	id, err := d.TaskStart(ctx, Payload{Program: "sampler", Input: []byte(`{}`)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.TaskStatus(ctx, id); err != nil {
		t.Fatal(err)
	}

	_, err = d.TaskResult(ctx, id)
	re, ok := err.(*Error)
	if !ok || re.Kind != KindState {
		t.Error("expected state error for failed task, got", err)
	}
}

func TestDirectAccessUnknownProgram(t *testing.T) {
	d := testDirectAccess(t, "http://127.0.0.1:1", storage.NewFake())
	_, err := d.TaskStart(context.Background(), Payload{Program: "annealer"})
	re, ok := err.(*Error)
	if !ok || re.Kind != KindConfig {
		t.Error("expected config error for unknown program, got", err)
	}
}

// An unreachable control plane surfaces as a typed error after the retry
// budget, never as a panic or a hang.
func TestDirectAccessUnreachableEndpoint(t *testing.T) {
	ctx := context.Background()
	d := testDirectAccess(t, "http://127.0.0.1:1", storage.NewFake())
	d.client.Retrier.MaxTries = 3

	if d.IsAccessible(ctx) {
		t.Error("unreachable backend reported accessible")
	}

	_, err := d.TaskStatus(ctx, "t1")
	re, ok := err.(*Error)
	if !ok {
		t.Fatal("expected resource error, got", err)
	}
	if re.Kind != KindRetryExhausted {
		t.Error("unexpected error kind", re.Kind)
	}
}

func TestDirectAccessMetadata(t *testing.T) {
	d := testDirectAccess(t, "http://127.0.0.1:1", storage.NewFake())
	md := d.Metadata()
	if md["backend_name"] != "ibm_fez" || md["family"] != "direct-access" {
		t.Error("unexpected metadata", md)
	}
}

func TestDirectAccessTarget(t *testing.T) {
	ctx := context.Background()
	cp := &controlPlane{statuses: []string{"Queued"}}
	ts := httptest.NewServer(cp.handler())
	defer ts.Close()

	d := testDirectAccess(t, ts.URL, storage.NewFake())
	doc, err := d.Target(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var target struct {
		Configuration map[string]interface{} `json:"configuration"`
		Properties    map[string]interface{} `json:"properties"`
	}
	if err := json.Unmarshal(doc, &target); err != nil {
		t.Fatal(err)
	}
	if target.Configuration["backend_name"] != "ibm_fez" {
		t.Error("unexpected configuration", target.Configuration)
	}
	if target.Properties["last_update_date"] != "2026-08-24" {
		t.Error("unexpected properties", target.Properties)
	}
}
