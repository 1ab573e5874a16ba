package qrs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qcgrid/qres/auth"
	"github.com/qcgrid/qres/config"
)

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(config.Resource{
		Name:           "ibm_torino",
		Family:         config.RuntimeService,
		Endpoint:       url,
		ServiceCRN:     "crn:v1:test",
		RequestTimeout: config.Duration(time.Second * 5),
	}, auth.Static("test-token"), nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Retrier.InitialInterval = time.Millisecond
	c.Retrier.MaxInterval = time.Millisecond * 4
	return c
}

func TestCreateSession(t *testing.T) {
	var got createSessionRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/v1/sessions" {
			t.Error("unexpected request", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Write([]byte(`{"id":"sess-1"}`))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	id, err := c.CreateSession(context.Background(), ModeDedicated, time.Hour*8)
	if err != nil {
		t.Fatal(err)
	}
	if id != "sess-1" {
		t.Error("unexpected session id", id)
	}
	if got.Mode != "dedicated" || got.MaxTTL != 28800 {
		t.Error("unexpected session payload", got)
	}
}

func TestCreateSessionRetriesTransient(t *testing.T) {
	var calls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id":"sess-1"}`))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	id, err := c.CreateSession(context.Background(), ModeDedicated, time.Hour*8)
	if err != nil {
		t.Fatal("expected success after transient failure", err)
	}
	if id != "sess-1" {
		t.Error("unexpected session id", id)
	}
	if calls != 2 {
		t.Error("unexpected call count", calls)
	}
}

func TestCloseSessionIdempotent(t *testing.T) {
	var calls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "no such session", http.StatusNotFound)
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	if err := c.CloseSession(context.Background(), "sess-1"); err != nil {
		t.Fatal("first close failed:", err)
	}
	if err := c.CloseSession(context.Background(), "sess-1"); err != nil {
		t.Error("repeated close should be a no-op, got", err)
	}
}

func TestCreateJobInline(t *testing.T) {
	var got CreateJobRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Write([]byte(`{"id":"job-7","status":"Queued"}`))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	job, err := c.CreateJob(context.Background(), &CreateJobRequest{
		ProgramID: "sampler",
		Backend:   "ibm_torino",
		SessionID: "sess-1",
		Params:    json.RawMessage(`{"pubs":[],"version":2}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if job.ID != "job-7" || job.Status != Queued {
		t.Error("unexpected job", job)
	}
	if got.SessionID != "sess-1" {
		t.Error("session id not attached to job", got)
	}
	if string(got.Params) != `{"pubs":[],"version":2}` {
		t.Error("params not carried inline", string(got.Params))
	}
}

func TestCreateJobIsNotRetried(t *testing.T) {
	var calls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.CreateJob(context.Background(), &CreateJobRequest{ProgramID: "sampler"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Error("job creation must not be retried, got calls =", calls)
	}
}

func TestGetJobResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/job-7/results" {
			t.Error("unexpected path", r.URL.Path)
		}
		w.Write([]byte(`{"results":[{"data":{}}]}`))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	out, err := c.GetJobResults(context.Background(), "job-7")
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"results":[{"data":{}}]}` {
		t.Error("unexpected results", string(out))
	}
}

func TestCancelTerminalJobIsNoOp(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "job already in a terminal state", http.StatusConflict)
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	if err := c.CancelJob(context.Background(), "job-7"); err != nil {
		t.Error("cancel on terminal job should succeed, got", err)
	}
}
