package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// Ensure Recorder implements Transport.
var _ Transport = (*Recorder)(nil)

// Call is one request captured by a Recorder
type Call struct {
	Method  string
	Path    string
	Body    json.RawMessage
	Options RequestOptions
}

// Recorder is an in-memory Transport that captures every call and answers
// with stubbed results. Used for dry runs and tests.
type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	stubs    map[string]Result
	fallback Result
}

// NewRecorder creates a Recorder answering every call with an empty success
func NewRecorder() *Recorder {
	return &Recorder{stubs: make(map[string]Result)}
}

// Stub sets the result returned for method+path
func (r *Recorder) Stub(method, path string, result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stubs[method+" "+path] = result
}

// Default sets the result returned when no stub matches
func (r *Recorder) Default(result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = result
}

// Calls returns a copy of the captured calls
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Last returns the most recent call
func (r *Recorder) Last() (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}, false
	}
	return r.calls[len(r.calls)-1], true
}

// Reset forgets captured calls; stubs are kept
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) Get(ctx context.Context, path string, opts *RequestOptions) Result {
	return r.record(http.MethodGet, path, nil, opts)
}

func (r *Recorder) Post(ctx context.Context, path string, body interface{}, opts *RequestOptions) Result {
	return r.record(http.MethodPost, path, body, opts)
}

func (r *Recorder) Put(ctx context.Context, path string, body interface{}, opts *RequestOptions) Result {
	return r.record(http.MethodPut, path, body, opts)
}

func (r *Recorder) Delete(ctx context.Context, path string, body interface{}, opts *RequestOptions) Result {
	return r.record(http.MethodDelete, path, body, opts)
}

func (r *Recorder) record(method, path string, body interface{}, opts *RequestOptions) Result {
	call := Call{Method: method, Path: path}
	if opts != nil {
		call.Options = *opts
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return clientFailure(CodeInvalidBody, err)
		}
		call.Body = data
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if stub, ok := r.stubs[method+" "+path]; ok {
		return stub
	}
	return r.fallback
}
