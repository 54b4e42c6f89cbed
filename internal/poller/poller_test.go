package poller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rio-cli/internal/api"
	"rio-cli/internal/model"
	"rio-cli/internal/poller"
	"rio-cli/internal/testsupport"
)

func running(i, total int) model.Job {
	return model.Job{Status: model.JobRunning, ProgressIndex: i, ProgressTotal: total}
}

func newPoller(t *testing.T, b *testsupport.Backend, mode poller.Mode) (*poller.Poller, *[]poller.Update) {
	t.Helper()
	c, err := api.New(b.URL())
	require.NoError(t, err)
	var updates []poller.Update
	return &poller.Poller{
		Backend:  c,
		Mode:     mode,
		Interval: time.Millisecond,
		Sink:     func(u poller.Update) { updates = append(updates, u) },
	}, &updates
}

func percents(updates []poller.Update) []float64 {
	var out []float64
	for _, u := range updates {
		if u.HasPercent {
			out = append(out, u.Percent)
		}
	}
	return out
}

func TestRun_ProgressThenItemsOnce(t *testing.T) {
	t.Parallel()

	b := testsupport.NewBackend(t)
	b.ScriptStatus("j1", running(1, 2), running(4, 5), model.Job{Status: model.JobDone, Message: "found 2"})
	b.SetItems("j1", []model.Item{{ID: "a", Kind: model.KindImage}, {ID: "b", Kind: model.KindVideo}})
	p, updates := newPoller(t, b, poller.ModeScan)

	res := p.Run(context.Background(), "j1")

	require.NoError(t, res.Err)
	assert.False(t, res.Cancelled)
	assert.Equal(t, []float64{50, 80}, percents(*updates))
	assert.Len(t, *updates, 3)
	assert.True(t, res.ItemsFetched)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, model.JobDone, res.Final.Status)
	assert.Equal(t, 3, b.StatusCalls("j1"))
	assert.Equal(t, 1, b.ItemsCalls("j1"))
	assert.Equal(t, poller.StateTerminal, p.State())
}

func TestRun_ErrorStatusSkipsItems(t *testing.T) {
	t.Parallel()

	b := testsupport.NewBackend(t)
	b.ScriptStatus("j1", running(1, 4), model.Job{Status: model.JobError, Message: "boom"})
	p, _ := newPoller(t, b, poller.ModeScan)

	res := p.Run(context.Background(), "j1")

	require.NoError(t, res.Err)
	assert.Equal(t, model.JobError, res.Final.Status)
	assert.False(t, res.ItemsFetched)
	assert.Nil(t, res.Items)
	assert.Equal(t, 2, b.StatusCalls("j1"))
	assert.Equal(t, 0, b.ItemsCalls("j1"))
}

func TestRun_CancelledStatusSkipsItems(t *testing.T) {
	t.Parallel()

	b := testsupport.NewBackend(t)
	b.ScriptStatus("j1", model.Job{Status: model.JobCancelled})
	p, _ := newPoller(t, b, poller.ModeScan)

	res := p.Run(context.Background(), "j1")
	assert.Equal(t, model.JobCancelled, res.Final.Status)
	assert.Equal(t, 0, b.ItemsCalls("j1"))
}

func TestRun_DirectModeNeverFetchesItems(t *testing.T) {
	t.Parallel()

	b := testsupport.NewBackend(t)
	b.ScriptStatus("d1", running(0, 0), model.Job{Status: model.JobDone})
	p, updates := newPoller(t, b, poller.ModeDirect)

	res := p.Run(context.Background(), "d1")
	assert.Equal(t, model.JobDone, res.Final.Status)
	assert.False(t, res.ItemsFetched)
	assert.Equal(t, 0, b.ItemsCalls("d1"))
	assert.Empty(t, percents(*updates))
}

func TestRun_TransportFailureStopsWithoutRetry(t *testing.T) {
	t.Parallel()

	b := testsupport.NewBackend(t)
	b.FailStatus("j1", 502)
	p, updates := newPoller(t, b, poller.ModeScan)

	res := p.Run(context.Background(), "j1")
	require.Error(t, res.Err)
	assert.Equal(t, 502, api.StatusCodeOf(res.Err))
	assert.Empty(t, *updates)
	assert.Equal(t, 1, b.StatusCalls("j1"))
	assert.Equal(t, 0, b.ItemsCalls("j1"))
}

// blockingBackend reports running forever and records when its contexts
// are cancelled.
type blockingBackend struct {
	mu        sync.Mutex
	cancelled map[string]bool
	calls     map[string]int
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{cancelled: map[string]bool{}, calls: map[string]int{}}
}

func (b *blockingBackend) Status(ctx context.Context, jobID string) (model.Job, error) {
	b.mu.Lock()
	b.calls[jobID]++
	b.mu.Unlock()
	if jobID == "fast" {
		return model.Job{ID: jobID, Status: model.JobDone}, nil
	}
	<-ctx.Done()
	b.mu.Lock()
	b.cancelled[jobID] = true
	b.mu.Unlock()
	return model.Job{}, ctx.Err()
}

func (b *blockingBackend) Items(ctx context.Context, jobID string) ([]model.Item, error) {
	return []model.Item{{ID: "x", Kind: model.KindImage}}, nil
}

func (b *blockingBackend) wasCancelled(jobID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelled[jobID]
}

func TestRunner_StartCancelsPreviousLoop(t *testing.T) {
	t.Parallel()

	bb := newBlockingBackend()
	r := poller.NewRunner(bb, time.Millisecond, nil)
	ctx := context.Background()

	g1 := r.Start(ctx, "slow", poller.ModeScan)
	g2 := r.Start(ctx, "fast", poller.ModeScan)
	require.NotEqual(t, g1, g2)
	assert.False(t, r.Current(g1))
	assert.True(t, r.Current(g2))

	var final *poller.Result
	timeout := time.After(5 * time.Second)
	for final == nil {
		select {
		case ev := <-r.Events():
			if ev.Gen != g2 {
				continue
			}
			if ev.Result != nil {
				final = ev.Result
			}
		case <-timeout:
			t.Fatal("timed out waiting for the replacement loop")
		}
	}
	r.Wait()

	assert.True(t, bb.wasCancelled("slow"))
	assert.Equal(t, "fast", final.JobID)
	assert.True(t, final.ItemsFetched)
}

func TestRunner_StopInvalidatesGeneration(t *testing.T) {
	t.Parallel()

	bb := newBlockingBackend()
	r := poller.NewRunner(bb, time.Millisecond, nil)

	g := r.Start(context.Background(), "slow", poller.ModeDirect)
	r.Stop()
	r.Wait()

	assert.False(t, r.Current(g))
	assert.True(t, bb.wasCancelled("slow"))
}

func TestRun_ContextCancelledDuringWait(t *testing.T) {
	t.Parallel()

	b := testsupport.NewBackend(t)
	b.ScriptStatus("j1", running(1, 10))
	c, err := api.New(b.URL())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	p := &poller.Poller{
		Backend:  c,
		Interval: time.Hour,
		Sink:     func(poller.Update) { cancel() },
	}
	res := p.Run(ctx, "j1")
	assert.True(t, res.Cancelled)
	assert.False(t, errors.Is(res.Err, context.Canceled))
	assert.Equal(t, 1, b.StatusCalls("j1"))
}
