package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"productmap/internal/jobapi"
	"productmap/internal/jobpoller"
	"productmap/internal/mapping"
	"productmap/internal/matching"
	"productmap/internal/normalize"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPoll = jobpoller.Config{
	BaseInterval:  time.Millisecond,
	MaxInterval:   5 * time.Millisecond,
	StallProgress: 80,
	StallTimeout:  time.Hour,
	GiveUpAfter:   30 * time.Millisecond,
}

type jobFixture struct {
	*importFixture
	api *fakeJobAPI
	hub *fakeHub
	svc *ImportJobService
}

func newJobFixture(api *fakeJobAPI, fallbackMaxRows int) *jobFixture {
	f := newImportFixture()
	hub := &fakeHub{}
	svc := NewImportJobService(api, f.service, f.history, nil, hub, nil, ImportJobConfig{
		Poll:            fastPoll,
		FallbackMaxRows: fallbackMaxRows,
	})
	return &jobFixture{importFixture: f, api: api, hub: hub, svc: svc}
}

func remoteInput(tenantID uuid.UUID) RemoteImportInput {
	return RemoteImportInput{
		TenantID:  tenantID,
		FileName:  "vendor.csv",
		Content:   []byte("Supplier Name,EAN,MPN,Product Name,Cost\n"),
		Table:     vendorTable(),
		Options:   matching.DefaultOptions(),
		BatchSize: 50,
	}
}

func processing(progress float64) *jobapi.JobStatus {
	return &jobapi.JobStatus{Status: jobapi.StatusProcessing, Progress: progress, Message: "Processing"}
}

func TestImportJob_SubmitAndTrackToCompletion(t *testing.T) {
	api := &fakeJobAPI{jobID: "job-1", statuses: []*jobapi.JobStatus{
		processing(40),
		{
			Status:   jobapi.StatusCompleted,
			Progress: 100,
			Message:  "Import completed",
			Results: &jobapi.JobResults{
				Total: 5, Successful: 3, Failed: 1, Skipped: 1, SuppliersAdded: 2,
				MatchStats: &jobapi.MatchStats{TotalMatched: 3, ByMethod: map[string]int{"ean": 1, "mpn": 1, "name": 1}},
			},
		},
	}}
	f := newJobFixture(api, 100)
	tenantID := uuid.New()

	out, err := f.svc.StartSupplierImport(context.Background(), remoteInput(tenantID))
	require.NoError(t, err)
	require.NotNil(t, out.Accepted)
	assert.Nil(t, out.Local)
	assert.Equal(t, "job-1", out.Accepted.JobID)

	assert.Equal(t, 50, api.lastSubmit.BatchSize)
	assert.Equal(t, "Cost", api.lastSubmit.FieldMapping[mapping.FieldCost])
	assert.Equal(t, []string{"ean", "mpn", "name"}, api.lastSubmit.MatchOptions.Priority)

	require.Eventually(t, func() bool {
		return f.history.get(out.Accepted.HistoryID).Status == models.ImportStatusCompleted
	}, time.Second, 5*time.Millisecond)

	h := f.history.get(out.Accepted.HistoryID)
	assert.Equal(t, ModeRemote, h.Mode)
	assert.Equal(t, "job-1", h.JobID)
	assert.Equal(t, 3, h.SuccessfulRecords)
	assert.Equal(t, 1, h.SkippedRecords)

	require.Eventually(t, func() bool {
		ev, ok := f.hub.last()
		return ok && ev.event == EventImportCompleted
	}, time.Second, 5*time.Millisecond)

	p, err := f.svc.Progress(tenantID, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobStatusCompleted, p.Status)
	assert.Equal(t, float64(100), p.Progress)
	assert.Equal(t, 2, p.SuppliersAdded)
	require.NotNil(t, p.MatchStats)
	assert.Equal(t, 3, p.MatchStats.TotalMatched)

	// nothing was written locally
	assert.Zero(t, f.links.calls)
}

func TestImportJob_SingleFlightAndCancel(t *testing.T) {
	api := &fakeJobAPI{jobID: "job-2", statuses: []*jobapi.JobStatus{processing(10)}}
	f := newJobFixture(api, 100)
	tenantID := uuid.New()

	out, err := f.svc.StartSupplierImport(context.Background(), remoteInput(tenantID))
	require.NoError(t, err)
	require.NotNil(t, out.Accepted)

	_, err = f.svc.StartSupplierImport(context.Background(), remoteInput(tenantID))
	assert.ErrorIs(t, err, ErrImportInProgress)

	// another tenant is not blocked
	other, err := f.svc.StartSupplierImport(context.Background(), remoteInput(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, other.Accepted)

	assert.ErrorIs(t, f.svc.Cancel(context.Background(), tenantID, "unknown"), ErrNoActiveImport)
	require.NoError(t, f.svc.Cancel(context.Background(), tenantID, "job-2"))

	require.Eventually(t, func() bool {
		p, err := f.svc.Progress(tenantID, "job-2")
		return err == nil && p.Status == models.ImportJobStatusCancelled
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.ImportStatusCancelled, f.history.get(out.Accepted.HistoryID).Status)
	assert.Contains(t, api.cancelled, "job-2")

	// the slot is free again
	again, err := f.svc.StartSupplierImport(context.Background(), remoteInput(tenantID))
	require.NoError(t, err)
	require.NotNil(t, again.Accepted)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.svc.Shutdown(ctx))
}

func TestImportJob_SubmitFailureFallsBackLocally(t *testing.T) {
	api := &fakeJobAPI{submitErr: errors.New("connection refused")}
	f := newJobFixture(api, 100)

	out, err := f.svc.StartSupplierImport(context.Background(), remoteInput(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, out.Local)
	assert.Nil(t, out.Accepted)

	assert.Equal(t, 3, out.Local.Successful)
	assert.Equal(t, map[string]int{"ean": 1, "mpn": 1, "name": 1}, out.Local.MatchStats.ByMethod)
	assert.Len(t, f.links.rows, 3)

	h := f.history.only()
	assert.Len(t, f.history.rows, 1, "the remote history row is reused")
	assert.Equal(t, ModeLocalFallback, h.Mode)
	assert.Equal(t, models.ImportStatusCompleted, h.Status)
}

func TestImportJob_SubmitFailureOnLargeFile(t *testing.T) {
	api := &fakeJobAPI{submitErr: errors.New("connection refused")}
	f := newJobFixture(api, 2)
	tenantID := uuid.New()

	out, err := f.svc.StartSupplierImport(context.Background(), remoteInput(tenantID))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Zero(t, f.links.calls)

	h := f.history.only()
	assert.Equal(t, models.ImportStatusFailed, h.Status)
	assert.Equal(t, 5, h.FailedRecords)

	// a failed submission does not hold the slot
	api.submitErr = nil
	api.jobID = "job-3"
	api.statuses = []*jobapi.JobStatus{processing(0)}
	_, err = f.svc.StartSupplierImport(context.Background(), remoteInput(tenantID))
	require.NoError(t, err)
	require.NoError(t, f.svc.Shutdown(context.Background()))
}

func TestImportJob_CurrencyGateBeforeSubmit(t *testing.T) {
	api := &fakeJobAPI{jobID: "job-4"}
	f := newJobFixture(api, 100)
	in := remoteInput(uuid.New())
	in.Table = tableOf(supplierHeaders, []map[string]string{
		supplierRow("Acme", "5012345678901", "", "Widget", "£10"),
	})

	out, err := f.svc.StartSupplierImport(context.Background(), in)
	assert.ErrorIs(t, err, normalize.ErrCurrencyAmbiguous)
	require.NotNil(t, out)
	require.NotNil(t, out.Local)
	assert.True(t, out.Local.CurrencyWarning)
	assert.Zero(t, api.submitted)
	assert.Equal(t, models.ImportStatusFailed, f.history.only().Status)
}

func TestImportJob_StatusUnavailableIsNotFailure(t *testing.T) {
	api := &fakeJobAPI{jobID: "job-5", statusErr: errors.New("502 bad gateway")}
	f := newJobFixture(api, 100)
	tenantID := uuid.New()

	out, err := f.svc.StartSupplierImport(context.Background(), remoteInput(tenantID))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		h := f.history.get(out.Accepted.HistoryID)
		return h.ErrorMessage != nil
	}, time.Second, 5*time.Millisecond)

	h := f.history.get(out.Accepted.HistoryID)
	assert.Equal(t, models.ImportStatusInProgress, h.Status)
	assert.Equal(t, jobpoller.RetryMessage, *h.ErrorMessage)

	require.Eventually(t, func() bool {
		p, err := f.svc.Progress(tenantID, "job-5")
		return err == nil && p.Status == models.ImportJobStatusProcessing && !p.Retrying
	}, time.Second, 5*time.Millisecond)
}

func TestImportJob_ShutdownLeavesHistoryInProgress(t *testing.T) {
	api := &fakeJobAPI{jobID: "job-6", statuses: []*jobapi.JobStatus{processing(50)}}
	f := newJobFixture(api, 100)

	out, err := f.svc.StartSupplierImport(context.Background(), remoteInput(uuid.New()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.svc.Shutdown(ctx))

	h := f.history.get(out.Accepted.HistoryID)
	assert.Equal(t, models.ImportStatusInProgress, h.Status)
	assert.Empty(t, api.cancelled)
}

func TestImportJob_RefusesNewImportsAfterShutdown(t *testing.T) {
	api := &fakeJobAPI{jobID: "job-7", statuses: []*jobapi.JobStatus{processing(10)}}
	f := newJobFixture(api, 100)
	require.NoError(t, f.svc.Shutdown(context.Background()))

	_, err := f.svc.StartSupplierImport(context.Background(), remoteInput(uuid.New()))
	assert.ErrorIs(t, err, ErrShuttingDown)
	assert.Zero(t, api.submitted)
}

func TestImportJob_ShutdownDuringSubmitIsNotTracked(t *testing.T) {
	api := &fakeJobAPI{jobID: "job-8", statuses: []*jobapi.JobStatus{processing(10)}}
	f := newJobFixture(api, 100)

	shutdownErr := make(chan error, 1)
	api.onSubmit = func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		shutdownErr <- f.svc.Shutdown(ctx)
	}

	tenantID := uuid.New()
	out, err := f.svc.StartSupplierImport(context.Background(), remoteInput(tenantID))
	require.NoError(t, err)
	require.NoError(t, <-shutdownErr)
	require.NotNil(t, out.Accepted)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.svc.Shutdown(ctx), "no tracker was started")

	api.mu.Lock()
	polls := api.polls
	api.mu.Unlock()
	assert.Zero(t, polls)
	assert.Equal(t, models.ImportStatusInProgress, f.history.get(out.Accepted.HistoryID).Status)

	p, err := f.svc.Progress(tenantID, "job-8")
	require.NoError(t, err)
	assert.Equal(t, "job-8", p.JobID)
}

func TestJobStatusMapping(t *testing.T) {
	tests := map[string]models.ImportJobStatus{
		jobapi.StatusWaiting:    models.ImportJobStatusQueued,
		jobapi.StatusQueued:     models.ImportJobStatusQueued,
		jobapi.StatusProcessing: models.ImportJobStatusProcessing,
		jobapi.StatusCompleted:  models.ImportJobStatusCompleted,
		jobapi.StatusFailed:     models.ImportJobStatusFailed,
		jobapi.StatusCancelled:  models.ImportJobStatusCancelled,
		"unknown":               models.ImportJobStatusProcessing,
	}
	for in, want := range tests {
		assert.Equal(t, want, jobStatus(in), in)
	}
}
