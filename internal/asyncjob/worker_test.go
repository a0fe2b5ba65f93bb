package asyncjob

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lushell/promptline/pkg/prompterr"
)

// collector gathers completions and wakes waiters when a target count
// arrives.
type collector struct {
	mu        sync.Mutex
	responses []*Response
	arrived   chan struct{}
	want      int
}

func newCollector(want int) *collector {
	return &collector{arrived: make(chan struct{}), want: want}
}

func (c *collector) complete(r *Response) {
	c.mu.Lock()
	c.responses = append(c.responses, r)
	if len(c.responses) == c.want {
		close(c.arrived)
	}
	c.mu.Unlock()
}

func (c *collector) waitAll(t *testing.T) []*Response {
	t.Helper()
	select {
	case <-c.arrived:
	case <-time.After(10 * time.Second):
		t.Fatal("completions did not arrive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responses
}

func TestWorker_When_SubmitBeforeStart(t *testing.T) {
	t.Parallel()

	w := New(nil)
	_, err := w.SubmitGitStatus(t.TempDir(), time.Second)
	assert.ErrorIs(t, err, prompterr.ErrInvalidState)
}

func TestWorker_When_StartedTwice(t *testing.T) {
	t.Parallel()

	w := New(nil)
	require.NoError(t, w.Start())
	assert.ErrorIs(t, w.Start(), prompterr.ErrInvalidState)
	w.Shutdown()
	w.Wait()
}

func TestWorker_When_GitStatusInNonRepo(t *testing.T) {
	t.Parallel()

	c := newCollector(3)
	w := New(c.complete)
	require.NoError(t, w.Start())

	dir := t.TempDir()
	var ids []uint64
	for i := 0; i < 3; i++ {
		id, err := w.SubmitGitStatus(dir, 2*time.Second)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	responses := c.waitAll(t)
	w.Shutdown()
	w.Wait()

	require.Len(t, responses, 3)
	for i, resp := range responses {
		assert.Equal(t, ids[i], resp.ID, "completions arrive in submission order")
		assert.NoError(t, resp.Err)
		require.NotNil(t, resp.Git)
		assert.False(t, resp.Git.IsRepo)
	}

	requests, completed, _ := w.Stats()
	assert.Equal(t, uint64(3), requests)
	assert.Equal(t, uint64(3), completed)
}

func TestWorker_When_IDsAreMonotonic(t *testing.T) {
	t.Parallel()

	c := newCollector(2)
	w := New(c.complete)
	require.NoError(t, w.Start())

	id1, err := w.SubmitGitStatus(t.TempDir(), time.Second)
	require.NoError(t, err)
	id2, err := w.SubmitGitStatus(t.TempDir(), time.Second)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	c.waitAll(t)
	w.Shutdown()
	w.Wait()
}

func TestWorker_When_CustomRequestUnhandled(t *testing.T) {
	t.Parallel()

	c := newCollector(1)
	w := New(c.complete)
	require.NoError(t, w.Start())

	_, err := w.Submit(&Request{Type: Custom})
	require.NoError(t, err)

	responses := c.waitAll(t)
	w.Shutdown()
	w.Wait()

	assert.ErrorIs(t, responses[0].Err, prompterr.ErrFeatureNotAvailable)
}

func TestWorker_When_SubmitAfterShutdown(t *testing.T) {
	t.Parallel()

	w := New(nil)
	require.NoError(t, w.Start())
	w.Shutdown()

	_, err := w.SubmitGitStatus(t.TempDir(), time.Second)
	assert.ErrorIs(t, err, prompterr.ErrInvalidState)
	w.Wait()
}

func TestWorker_When_ShutdownDrainsQueuedWork(t *testing.T) {
	t.Parallel()

	c := newCollector(4)
	w := New(c.complete)
	require.NoError(t, w.Start())

	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		_, err := w.SubmitGitStatus(dir, 2*time.Second)
		require.NoError(t, err)
	}
	w.Shutdown()
	w.Wait()

	responses := c.waitAll(t)
	assert.Len(t, responses, 4)
	_, completed, _ := w.Stats()
	assert.Equal(t, uint64(4), completed)
}

func TestWorker_When_QueueFull(t *testing.T) {
	t.Parallel()

	// Never started: the queue only fills, nothing drains.
	w := New(nil)
	w.mu.Lock()
	w.running = true // simulate running without a consumer
	w.mu.Unlock()

	dir := t.TempDir()
	for i := 0; i < MaxQueueSize; i++ {
		_, err := w.SubmitGitStatus(dir, time.Second)
		require.NoError(t, err)
	}
	_, err := w.SubmitGitStatus(dir, time.Second)
	assert.ErrorIs(t, err, prompterr.ErrResourceExhausted)
	assert.Equal(t, MaxQueueSize, w.Pending())
}

func TestWorker_When_WaitWithoutStart(t *testing.T) {
	t.Parallel()

	w := New(nil)
	w.Wait() // must not block or panic
	assert.False(t, w.IsRunning())
}
