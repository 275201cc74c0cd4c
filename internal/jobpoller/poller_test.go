package jobpoller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"productmap/internal/jobapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- scripted fetcher ----

type step struct {
	status *jobapi.JobStatus
	err    error
}

type scriptedFetcher struct {
	mu      sync.Mutex
	steps   []step
	calls   int
	recent  []jobapi.ImportRecord
	recentN int
}

// Status replays steps in order and repeats the last one.
func (f *scriptedFetcher) Status(_ context.Context, _ string) (*jobapi.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	f.calls++
	return f.steps[i].status, f.steps[i].err
}

func (f *scriptedFetcher) RecentImports(_ context.Context, _ string, _ int) ([]jobapi.ImportRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recentN++
	return f.recent, nil
}

func fastConfig() Config {
	return Config{
		BaseInterval:  2 * time.Millisecond,
		MaxInterval:   8 * time.Millisecond,
		StallProgress: 80,
		StallTimeout:  20 * time.Millisecond,
		GiveUpAfter:   time.Second,
		ImportType:    "Supplier Data",
		FileName:      "suppliers.csv",
	}
}

type recorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recorder) add(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func processing(progress float64) step {
	return step{status: &jobapi.JobStatus{Status: jobapi.StatusProcessing, Progress: progress, Message: "working"}}
}

func TestPoll_CompletesAndBalancesTotals(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		processing(10),
		processing(50),
		{status: &jobapi.JobStatus{Status: jobapi.StatusCompleted, Progress: 100, Results: &jobapi.JobResults{
			Total: 10, Successful: 6, Failed: 1, SuppliersAdded: 2,
			MatchStats: &jobapi.MatchStats{TotalMatched: 6, ByMethod: map[string]int{"ean": 6}},
		}}},
	}}
	rec := &recorder{}

	out, err := New(f, fastConfig(), rec.add).Poll(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, jobapi.StatusCompleted, out.Status)
	assert.Equal(t, Totals{Total: 10, Successful: 6, Failed: 1, Skipped: 3, SuppliersAdded: 2, MatchStats: &jobapi.MatchStats{TotalMatched: 6, ByMethod: map[string]int{"ean": 6}}}, out.Totals)
	assert.False(t, out.Forced)
	assert.Equal(t, 3, f.calls)
	require.Len(t, rec.updates, 3)
	assert.Equal(t, 10.0, rec.updates[0].Progress)
}

func TestPoll_FailedSurfacesServerMessage(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		{status: &jobapi.JobStatus{Status: jobapi.StatusFailed, StatusMessage: "Missing column: cost"}},
	}}

	out, err := New(f, fastConfig(), nil).Poll(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, jobapi.StatusFailed, out.Status)
	assert.Equal(t, "Missing column: cost", out.Message)
}

func TestPoll_ErrorsAreRetriedNotFatal(t *testing.T) {
	boom := errors.New("connection refused")
	f := &scriptedFetcher{steps: []step{
		{err: boom},
		{err: &jobapi.StatusError{StatusCode: 503}},
		processing(40),
		{err: boom},
		{status: &jobapi.JobStatus{Status: jobapi.StatusCompleted, Results: &jobapi.JobResults{Total: 1, Successful: 1}}},
	}}
	rec := &recorder{}

	out, err := New(f, fastConfig(), rec.add).Poll(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, jobapi.StatusCompleted, out.Status)

	retries := 0
	for _, u := range rec.updates {
		if u.Retrying {
			retries++
			assert.Equal(t, RetryMessage, u.Message)
			assert.Equal(t, jobapi.StatusProcessing, u.Status)
		}
	}
	assert.Equal(t, 3, retries)
	assert.Equal(t, 40.0, rec.updates[3].Progress, "retry updates keep the last known progress")
}

func TestPoll_RetryDelaysGrowAndAreCapped(t *testing.T) {
	boom := errors.New("connection refused")
	steps := make([]step, 0, 12)
	for i := 0; i < 8; i++ {
		steps = append(steps, step{err: boom})
	}
	steps = append(steps, processing(30), step{err: boom}, processing(60),
		step{status: &jobapi.JobStatus{Status: jobapi.StatusCompleted, Results: &jobapi.JobResults{Total: 1, Successful: 1}}})
	f := &scriptedFetcher{steps: steps}

	cfg := fastConfig()
	cfg.BaseInterval = 2 * time.Second
	cfg.MaxInterval = 30 * time.Second
	cfg.GiveUpAfter = time.Hour

	var delays []time.Duration
	p := New(f, cfg, nil)
	p.after = func(d time.Duration) <-chan time.Time {
		delays = append(delays, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	out, err := p.Poll(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, jobapi.StatusCompleted, out.Status)

	assert.Equal(t, []time.Duration{
		0,
		2 * time.Second,
		3 * time.Second,
		4500 * time.Millisecond,
		6750 * time.Millisecond,
		10125 * time.Millisecond,
		15187500 * time.Microsecond,
		22781250 * time.Microsecond,
		30 * time.Second,
		2 * time.Second,
		2 * time.Second,
		2 * time.Second,
	}, delays)
}

func TestRetryDelay_NeverExceedsMax(t *testing.T) {
	p := New(&scriptedFetcher{}, Config{BaseInterval: 20 * time.Millisecond, MaxInterval: 40 * time.Millisecond}, nil)
	bo := p.retryBackOff()

	for i := 0; i < 50; i++ {
		d := p.retryDelay(bo)
		assert.GreaterOrEqual(t, d, 20*time.Millisecond)
		assert.LessOrEqual(t, d, 40*time.Millisecond)
	}
}

func TestPoll_GivesUpAsStillProcessing(t *testing.T) {
	f := &scriptedFetcher{steps: []step{{err: errors.New("timeout")}}}
	cfg := fastConfig()
	cfg.GiveUpAfter = 30 * time.Millisecond

	out, err := New(f, cfg, nil).Poll(context.Background(), "job-1")

	assert.ErrorIs(t, err, ErrStatusUnavailable)
	assert.Equal(t, jobapi.StatusProcessing, out.Status)
	assert.Greater(t, f.calls, 1)
}

func TestPoll_StallSafetyNetForcesCompletion(t *testing.T) {
	f := &scriptedFetcher{
		steps: []step{processing(85)},
		recent: []jobapi.ImportRecord{
			{FileName: "other.csv", Status: "Completed", TotalRecords: 99},
			{FileName: "suppliers.csv", Status: "Completed", TotalRecords: 5, SuccessfulRecords: 4, FailedRecords: 1, CreatedAt: time.Now()},
		},
	}
	cfg := fastConfig()
	cfg.SubmittedAt = time.Now()

	out, err := New(f, cfg, nil).Poll(context.Background(), "job-1")

	require.NoError(t, err)
	assert.True(t, out.Forced)
	assert.Equal(t, jobapi.StatusCompleted, out.Status)
	assert.Equal(t, Totals{Total: 5, Successful: 4, Failed: 1}, out.Totals)
}

func TestPoll_StallWithoutHistoryKeepsPolling(t *testing.T) {
	f := &scriptedFetcher{steps: []step{processing(90)}}
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	_, err := New(f, fastConfig(), nil).Poll(ctx, "job-1")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, f.recentN, 1)
}

func TestPoll_LowProgressNeverChecksHistory(t *testing.T) {
	f := &scriptedFetcher{steps: []step{processing(20)}}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	_, err := New(f, fastConfig(), nil).Poll(ctx, "job-1")

	assert.Error(t, err)
	assert.Zero(t, f.recentN)
}

func TestPoll_CancelStopsImmediately(t *testing.T) {
	f := &scriptedFetcher{steps: []step{processing(10)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := New(f, fastConfig(), nil).Poll(ctx, "job-1")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, jobapi.StatusCancelled, out.Status)
}

func TestBalance(t *testing.T) {
	tests := []struct {
		in       Totals
		expected Totals
	}{
		{Totals{Total: 10, Successful: 10}, Totals{Total: 10, Successful: 10}},
		{Totals{Total: 10, Successful: 5, Failed: 2}, Totals{Total: 10, Successful: 5, Failed: 2, Skipped: 3}},
		{Totals{Total: 3, Successful: 3, Failed: 2}, Totals{Total: 5, Successful: 3, Failed: 2}},
	}

	for _, test := range tests {
		got := balance(test.in)
		assert.Equal(t, test.expected, got)
		assert.Equal(t, got.Total, got.Successful+got.Failed+got.Skipped)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	p := New(&scriptedFetcher{}, Config{}, nil)
	assert.Equal(t, 2*time.Second, p.cfg.BaseInterval)
	assert.Equal(t, 30*time.Second, p.cfg.MaxInterval)
	assert.Equal(t, 15*time.Second, p.cfg.StallTimeout)
	assert.Equal(t, 80.0, p.cfg.StallProgress)
}
