package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/qcgrid/qres/config"
)

// objectServer is a dumb object store: PUT stores the body by path,
// GET returns it. Signatures are not checked.
func objectServer() (*httptest.Server, *sync.Map) {
	var objects sync.Map
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "PUT":
			body, _ := io.ReadAll(r.Body)
			objects.Store(r.URL.Path, body)
			w.WriteHeader(http.StatusOK)
		case "GET":
			if v, ok := objects.Load(r.URL.Path); ok {
				w.Write(v.([]byte))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case "DELETE":
			objects.Delete(r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	return ts, &objects
}

func TestPresignedRoundTrip(t *testing.T) {
	ts, _ := objectServer()
	defer ts.Close()

	s, err := NewS3(config.ObjectStore{
		Endpoint: ts.URL,
		Key:      "ak",
		Secret:   "sk",
		Region:   "us-east-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte(`{"pubs":[["OPENQASM 3.0;",[],128]],"version":2}`)

	putURL, err := s.PresignPut("stage", "input_r1.json", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(putURL, "/stage/input_r1.json") {
		t.Error("presigned URL should address bucket/key", putURL)
	}
	if !strings.Contains(putURL, "X-Amz-") {
		t.Error("presigned URL should carry signature parameters", putURL)
	}

	req, _ := http.NewRequest("PUT", putURL, bytes.NewReader(payload))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatal("unexpected PUT status", resp.StatusCode)
	}

	getURL, err := s.PresignGet("stage", "input_r1.json", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.Get(getURL)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip mismatch: got %q want %q", got, payload)
	}
}

func TestFakeStore(t *testing.T) {
	ctx := context.Background()
	f := NewFake()

	if err := f.Put(ctx, "b", "k1", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := f.Put(ctx, "b", "k2", []byte("two")); err != nil {
		t.Fatal(err)
	}

	got, err := f.Get(ctx, "b", "k1")
	if err != nil || string(got) != "one" {
		t.Fatal("unexpected get", got, err)
	}

	keys, err := f.List(ctx, "b")
	if err != nil || len(keys) != 2 {
		t.Fatal("unexpected list", keys, err)
	}

	if err := f.Delete(ctx, "b", "k1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Get(ctx, "b", "k1"); err == nil {
		t.Error("expected NotFoundError after delete")
	} else if _, ok := err.(*NotFoundError); !ok {
		t.Error("expected NotFoundError, got", err)
	}
}

func TestRetrierRetriesTransient(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{Fake: NewFake(), failures: 2}
	r := NewRetrier(flaky)
	r.InitialInterval = time.Millisecond
	r.MaxInterval = time.Millisecond * 4

	if err := r.Put(ctx, "b", "k", []byte("v")); err != nil {
		t.Fatal("expected success after transient failures", err)
	}
	if flaky.calls != 3 {
		t.Error("unexpected number of calls", flaky.calls)
	}
}

func TestRetrierDoesNotRetryNotFound(t *testing.T) {
	ctx := context.Background()
	r := NewRetrier(NewFake())
	r.InitialInterval = time.Millisecond

	_, err := r.Get(ctx, "b", "missing")
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatal("expected NotFoundError unchanged", err)
	}
}

type flakyStore struct {
	*Fake
	failures int
	calls    int
}

func (f *flakyStore) Put(ctx context.Context, bucket, key string, payload []byte) error {
	f.calls++
	if f.calls <= f.failures {
		return &UnreachableError{Op: "put object", Err: io.ErrUnexpectedEOF}
	}
	return f.Fake.Put(ctx, bucket, key, payload)
}
