package resource

import (
	"fmt"
	"net/url"

	"github.com/qcgrid/qres/auth"
	"github.com/qcgrid/qres/storage"
	"github.com/qcgrid/qres/util"
)

// Kind classifies resource errors so callers (and the foreign-function
// boundary) can react without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfig marks a malformed or incomplete resource descriptor.
	KindConfig
	// KindAuth marks rejected credentials.
	KindAuth
	// KindNetwork marks an unreachable endpoint or transport failure.
	KindNetwork
	// KindProtocol marks an unexpected control plane response.
	KindProtocol
	// KindStorage marks an object store failure for staged payloads.
	KindStorage
	// KindState marks an operation invalid in the task's current state.
	KindState
	// KindRetryExhausted marks a transient failure that outlived the
	// retry budget.
	KindRetryExhausted
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindProtocol:
		return "protocol"
	case KindStorage:
		return "storage"
	case KindState:
		return "state"
	case KindRetryExhausted:
		return "retry exhausted"
	}
	return "unknown"
}

// Error is the error type returned by resource handles.
type Error struct {
	Kind     Kind
	Op       string
	Resource string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resource %s: %s: %s error", e.Resource, e.Op, e.Kind)
	}
	return fmt.Sprintf("resource %s: %s: %s error: %v", e.Resource, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify maps lower-layer errors onto the Kind taxonomy.
func classify(err error) Kind {
	switch err.(type) {
	case *auth.RejectedError:
		return KindAuth
	case *auth.UnreachableError:
		return KindNetwork
	case *auth.MalformedError:
		return KindProtocol
	case *storage.UnreachableError, *storage.AccessDeniedError,
		*storage.NotFoundError, *storage.MalformedError:
		return KindStorage
	case *url.Error:
		return KindNetwork
	case *util.ExhaustedError:
		return KindRetryExhausted
	}
	if he, ok := err.(*util.HTTPError); ok {
		switch {
		case he.StatusCode == 401 || he.StatusCode == 403:
			return KindAuth
		case he.StatusCode >= 500:
			return KindNetwork
		}
		return KindProtocol
	}
	return KindProtocol
}

// wrapErr attaches resource and operation context, classifying the cause.
// nil passes through.
func wrapErr(resource, op string, err error) error {
	if err == nil {
		return nil
	}
	if re, ok := err.(*Error); ok {
		return re
	}
	return &Error{Kind: classify(err), Op: op, Resource: resource, Err: err}
}

// stateErr reports an operation invalid in the task's current state.
func stateErr(resource, op, reason string) error {
	return &Error{Kind: KindState, Op: op, Resource: resource, Err: fmt.Errorf("%s", reason)}
}
