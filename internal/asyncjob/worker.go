// Package asyncjob runs prompt-support work on a single background
// goroutine so a prompt draw never blocks on a subprocess. Requests
// drain in FIFO order from a bounded queue; completions are delivered
// through a callback invoked on the worker goroutine.
package asyncjob

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lushell/promptline/internal/gitstatus"
	"github.com/lushell/promptline/internal/subproc"
	"github.com/lushell/promptline/pkg/prompterr"
)

// RequestType discriminates the work a request carries.
type RequestType int

const (
	// GitStatus collects a repository snapshot for the request cwd.
	GitStatus RequestType = iota
	// Custom is reserved; submitting one completes with
	// prompterr.ErrFeatureNotAvailable.
	Custom
)

// MaxQueueSize bounds the pending queue; submissions past the bound
// fail with prompterr.ErrResourceExhausted.
const MaxQueueSize = 32

// Request describes one unit of background work.
type Request struct {
	ID       uint64 // assigned at submit
	Type     RequestType
	CWD      string
	Timeout  time.Duration // zero selects subproc.AsyncTimeout
	UserData any
}

// Response reports a completed request.
type Response struct {
	ID       uint64
	Err      error
	TimedOut bool
	Git      *gitstatus.Snapshot // set for GitStatus requests
	UserData any
}

// CompletionFunc receives completions on the worker goroutine. It must
// not block; the reference use publishes a snapshot pointer the render
// path picks up on its next pass.
type CompletionFunc func(*Response)

// Worker owns the queue and the background goroutine.
type Worker struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*Request
	running  bool
	shutdown bool
	nextID   uint64
	done     chan struct{}

	onComplete CompletionFunc

	totalRequests  atomic.Uint64
	totalCompleted atomic.Uint64
	totalTimeouts  atomic.Uint64
}

// New creates a stopped worker. onComplete may be nil.
func New(onComplete CompletionFunc) *Worker {
	w := &Worker{onComplete: onComplete, nextID: 1}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Start launches the worker goroutine. Starting a running worker is an
// invalid state.
func (w *Worker) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return prompterr.ErrInvalidState
	}
	w.running = true
	w.shutdown = false
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.loop()
	return nil
}

// Submit enqueues a request, assigning and returning its ID. Fails with
// ErrInvalidState once shutdown has been requested and with
// ErrResourceExhausted when the queue is full.
func (w *Worker) Submit(req *Request) (uint64, error) {
	if req == nil {
		return 0, prompterr.ErrInvalidParameter
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running || w.shutdown {
		return 0, prompterr.ErrInvalidState
	}
	if len(w.queue) >= MaxQueueSize {
		return 0, prompterr.ErrResourceExhausted
	}

	req.ID = w.nextID
	w.nextID++
	w.queue = append(w.queue, req)
	w.totalRequests.Add(1)
	w.cond.Signal()
	return req.ID, nil
}

// SubmitGitStatus enqueues a git status collection for cwd.
func (w *Worker) SubmitGitStatus(cwd string, timeout time.Duration) (uint64, error) {
	return w.Submit(&Request{Type: GitStatus, CWD: cwd, Timeout: timeout})
}

// Shutdown asks the worker to exit once the queue drains. In-flight and
// already-queued work still completes; new submissions are refused.
func (w *Worker) Shutdown() {
	w.mu.Lock()
	w.shutdown = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

// Wait blocks until the worker goroutine has exited. Safe to call on a
// never-started worker.
func (w *Worker) Wait() {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done != nil {
		<-done
	}
}

// IsRunning reports whether the worker accepts submissions.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running && !w.shutdown
}

// Pending returns the queued-but-unprocessed request count.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// Stats returns lifetime counters. Reads are lock-free; the values are
// informational.
func (w *Worker) Stats() (requests, completed, timeouts uint64) {
	return w.totalRequests.Load(), w.totalCompleted.Load(), w.totalTimeouts.Load()
}

func (w *Worker) loop() {
	defer close(w.done)

	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.shutdown {
			w.cond.Wait()
		}
		if w.shutdown && len(w.queue) == 0 {
			w.running = false
			w.mu.Unlock()
			return
		}
		req := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		resp := w.process(req)

		// Counters update before the callback so a callback that
		// signals completion observes them.
		w.totalCompleted.Add(1)
		if resp.TimedOut {
			w.totalTimeouts.Add(1)
		}
		if w.onComplete != nil {
			w.onComplete(resp)
		}
	}
}

func (w *Worker) process(req *Request) *Response {
	resp := &Response{ID: req.ID, UserData: req.UserData}

	switch req.Type {
	case GitStatus:
		timeout := req.Timeout
		if timeout <= 0 {
			timeout = subproc.AsyncTimeout
		}
		resp.Git, resp.TimedOut = gitstatus.CollectTimed(req.CWD, timeout)
	case Custom:
		resp.Err = prompterr.ErrFeatureNotAvailable
	default:
		resp.Err = prompterr.ErrInvalidParameter
	}
	return resp
}
