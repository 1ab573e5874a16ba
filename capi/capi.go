// Package main builds the c-shared library exposing resource handles to
// non-Go callers. Handles are registry integers rather than pointers, per
// cgo pointer passing rules, and must be freed explicitly.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"encoding/json"
	"sync"
	"unsafe"

	"github.com/qcgrid/qres/config"
	"github.com/qcgrid/qres/logger"
	"github.com/qcgrid/qres/resource"
)

// Status codes returned across the boundary. Zero is success; negative
// values map the error taxonomy.
const (
	success          = 0
	errConfig        = -1
	errAuth          = -2
	errNetwork       = -3
	errProtocol      = -4
	errStorage       = -5
	errState         = -6
	errRetryExhaust  = -7
	errUnknown       = -8
	errInvalidHandle = -9
)

var registry = struct {
	sync.Mutex
	next    C.long
	handles map[C.long]resource.Resource
}{next: 1, handles: map[C.long]resource.Resource{}}

var log = logger.New("capi")

func errCode(err error) C.int {
	re, ok := err.(*resource.Error)
	if !ok {
		return errUnknown
	}
	switch re.Kind {
	case resource.KindConfig:
		return errConfig
	case resource.KindAuth:
		return errAuth
	case resource.KindNetwork:
		return errNetwork
	case resource.KindProtocol:
		return errProtocol
	case resource.KindStorage:
		return errStorage
	case resource.KindState:
		return errState
	case resource.KindRetryExhausted:
		return errRetryExhaust
	}
	return errUnknown
}

func lookup(h C.long) (resource.Resource, bool) {
	registry.Lock()
	defer registry.Unlock()
	r, ok := registry.handles[h]
	return r, ok
}

// newHandle builds a handle for the named resource in the config file,
// checking it belongs to the expected family.
func newHandle(path, name *C.char, family config.Family) C.long {
	conf := config.DefaultConfig()
	if err := config.ParseFile(C.GoString(path), &conf); err != nil {
		log.Error("loading config", err)
		return errConfig
	}
	rc, ok := conf.Find(C.GoString(name))
	if !ok || rc.Family != family {
		return errConfig
	}

	r, err := resource.New(rc, nil)
	if err != nil {
		log.Error("building resource handle", err)
		return C.long(errCode(err))
	}

	registry.Lock()
	defer registry.Unlock()
	h := registry.next
	registry.next++
	registry.handles[h] = r
	return h
}

//export qres_da_new
func qres_da_new(path, name *C.char) C.long {
	return newHandle(path, name, config.DirectAccess)
}

//export qres_qrs_new
func qres_qrs_new(path, name *C.char) C.long {
	return newHandle(path, name, config.RuntimeService)
}

//export qres_pasqal_new
func qres_pasqal_new(path, name *C.char) C.long {
	return newHandle(path, name, config.PasqalCloud)
}

//export qres_free
func qres_free(h C.long) {
	registry.Lock()
	defer registry.Unlock()
	delete(registry.handles, h)
}

//export qres_is_accessible
func qres_is_accessible(h C.long) C.int {
	r, found := lookup(h)
	if !found {
		return errInvalidHandle
	}
	if r.IsAccessible(context.Background()) {
		return 1
	}
	return 0
}

//export qres_acquire
func qres_acquire(h C.long, out **C.char) C.int {
	r, found := lookup(h)
	if !found {
		return errInvalidHandle
	}
	token, err := r.Acquire(context.Background())
	if err != nil {
		return errCode(err)
	}
	*out = C.CString(token)
	return success
}

//export qres_release
func qres_release(h C.long, token *C.char) C.int {
	r, found := lookup(h)
	if !found {
		return errInvalidHandle
	}
	if err := r.Release(context.Background(), C.GoString(token)); err != nil {
		return errCode(err)
	}
	return success
}

//export qres_target
func qres_target(h C.long, out **C.char) C.int {
	r, found := lookup(h)
	if !found {
		return errInvalidHandle
	}
	doc, err := r.Target(context.Background())
	if err != nil {
		return errCode(err)
	}
	*out = C.CString(string(doc))
	return success
}

//export qres_task_start
func qres_task_start(h C.long, program, payload *C.char, out **C.char) C.int {
	r, found := lookup(h)
	if !found {
		return errInvalidHandle
	}
	id, err := r.TaskStart(context.Background(), resource.Payload{
		Program: C.GoString(program),
		Input:   []byte(C.GoString(payload)),
	})
	if err != nil {
		return errCode(err)
	}
	*out = C.CString(id)
	return success
}

//export qres_task_status
func qres_task_status(h C.long, task *C.char, out **C.char) C.int {
	r, found := lookup(h)
	if !found {
		return errInvalidHandle
	}
	s, err := r.TaskStatus(context.Background(), C.GoString(task))
	if err != nil {
		return errCode(err)
	}
	*out = C.CString(s.String())
	return success
}

//export qres_task_result
func qres_task_result(h C.long, task *C.char, out **C.char) C.int {
	r, found := lookup(h)
	if !found {
		return errInvalidHandle
	}
	data, err := r.TaskResult(context.Background(), C.GoString(task))
	if err != nil {
		return errCode(err)
	}
	*out = C.CString(string(data))
	return success
}

//export qres_task_stop
func qres_task_stop(h C.long, task *C.char) C.int {
	r, found := lookup(h)
	if !found {
		return errInvalidHandle
	}
	if err := r.TaskStop(context.Background(), C.GoString(task)); err != nil {
		return errCode(err)
	}
	return success
}

//export qres_metadata
func qres_metadata(h C.long, out **C.char) C.int {
	r, found := lookup(h)
	if !found {
		return errInvalidHandle
	}
	doc, err := json.Marshal(r.Metadata())
	if err != nil {
		return errUnknown
	}
	*out = C.CString(string(doc))
	return success
}

//export qres_free_string
func qres_free_string(s *C.char) {
	C.free(unsafe.Pointer(s))
}

func main() {}
