// Package ffi backs the C export surface: an opaque handle registry with a
// Ready -> Destroyed lifecycle per object, and a process-wide last-error
// store that callers drain through a length/copy pair of calls.
package ffi

import (
	"fmt"
	"sync"
)

// Kind tags what an opaque handle refers to, so a handle passed to the wrong
// entry point fails cleanly instead of panicking on a type assertion.
type Kind int

const (
	KindFEEBeam Kind = iota
	KindAnalyticBeam
	KindDevice
	KindFEEBeamGPU
	KindAnalyticBeamGPU
	KindJonesBuffer
)

func (k Kind) String() string {
	switch k {
	case KindFEEBeam:
		return "FEE beam"
	case KindAnalyticBeam:
		return "analytic beam"
	case KindDevice:
		return "device"
	case KindFEEBeamGPU:
		return "GPU FEE beam"
	case KindAnalyticBeamGPU:
		return "GPU analytic beam"
	case KindJonesBuffer:
		return "device Jones buffer"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// HandleStateError reports use of a handle that was never issued, was
// already destroyed, or refers to a different kind of object.
type HandleStateError struct {
	Handle uint64
	Want   Kind
}

func (e HandleStateError) Error() string {
	return fmt.Sprintf("ffi: handle %d is not a live %s", e.Handle, e.Want)
}

// Registry issues opaque handles for Go objects crossing the C boundary.
// Handles are never reused within a process, so a double-free surfaces as a
// HandleStateError rather than corrupting another object.
type Registry struct {
	mu      sync.Mutex
	next    uint64
	objects map[uint64]entry
}

type entry struct {
	kind Kind
	obj  any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{objects: make(map[uint64]entry)}
}

// Handles is the process-wide registry the C exports use.
var Handles = NewRegistry()

// Put registers obj and returns its handle. Handle zero is never issued.
func (r *Registry) Put(kind Kind, obj any) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.objects[r.next] = entry{kind: kind, obj: obj}
	return r.next
}

// Get returns the object behind a live handle of the expected kind.
func (r *Registry) Get(kind Kind, handle uint64) (any, error) {
	r.mu.Lock()
	e, ok := r.objects[handle]
	r.mu.Unlock()
	if !ok || e.kind != kind {
		return nil, HandleStateError{Handle: handle, Want: kind}
	}
	return e.obj, nil
}

// Free retires a handle and returns its object so the caller can release
// underlying resources. Freeing a dead handle is an error.
func (r *Registry) Free(kind Kind, handle uint64) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.objects[handle]
	if !ok || e.kind != kind {
		return nil, HandleStateError{Handle: handle, Want: kind}
	}
	delete(r.objects, handle)
	return e.obj, nil
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

var lastError struct {
	mu  sync.Mutex
	msg string
}

// SetLastError records err for retrieval by LastErrorLength/LastErrorMessage.
// A nil err clears the record.
func SetLastError(err error) {
	lastError.mu.Lock()
	defer lastError.mu.Unlock()
	if err == nil {
		lastError.msg = ""
		return
	}
	lastError.msg = err.Error()
}

// LastErrorLength returns the length of the recorded message including its
// trailing NUL, or zero when no error is recorded.
func LastErrorLength() int {
	lastError.mu.Lock()
	defer lastError.mu.Unlock()
	if lastError.msg == "" {
		return 0
	}
	return len(lastError.msg) + 1
}

// LastErrorMessage copies the recorded message plus a trailing NUL into buf.
// It returns the number of bytes written, or -1 when buf is too small.
func LastErrorMessage(buf []byte) int {
	lastError.mu.Lock()
	defer lastError.mu.Unlock()
	if len(buf) < len(lastError.msg)+1 {
		return -1
	}
	n := copy(buf, lastError.msg)
	buf[n] = 0
	return n + 1
}
