package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"productmap/internal/jobapi"
	"productmap/internal/jobpoller"
	"productmap/internal/mapping"
	"productmap/internal/matching"
	"productmap/internal/metrics"
	"productmap/internal/utils"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Websocket event types
const (
	EventImportProgress  = "import.progress"
	EventImportCompleted = "import.completed"
	EventImportFailed    = "import.failed"
)

// JobAPI is the external job service as used by ImportJobService.
type JobAPI interface {
	jobpoller.StatusFetcher
	SubmitSupplierFile(ctx context.Context, req jobapi.SubmitRequest) (string, error)
	Cancel(ctx context.Context, jobID string) error
}

// ImportJobService submits supplier files to the external job API and tracks
// them. Each tenant has at most one tracked job at a time.
type ImportJobService struct {
	api             JobAPI
	local           *SupplierImportService
	history         HistoryStore
	archive         Archiver
	hub             Broadcaster
	metrics         *metrics.Metrics
	pollConfig      jobpoller.Config
	fallbackMaxRows int

	mu       sync.Mutex
	active   map[uuid.UUID]*activeJob
	last     map[uuid.UUID]models.ImportJobProgress
	wg       sync.WaitGroup
	stopping atomic.Bool
}

type activeJob struct {
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
	progress models.ImportJobProgress
}

func (j *activeJob) stop() {
	j.once.Do(func() {
		if j.cancel != nil {
			j.cancel()
		}
	})
}

// ImportJobConfig holds the tuning knobs of ImportJobService.
type ImportJobConfig struct {
	Poll            jobpoller.Config
	FallbackMaxRows int
}

// NewImportJobService creates the remote import tracker. archive and hub may be nil.
func NewImportJobService(api JobAPI, local *SupplierImportService, history HistoryStore, archive Archiver, hub Broadcaster, m *metrics.Metrics, cfg ImportJobConfig) *ImportJobService {
	cfg.Poll.ImportType = string(models.ImportTypeSupplier)
	return &ImportJobService{
		api:             api,
		local:           local,
		history:         history,
		archive:         archive,
		hub:             hub,
		metrics:         m,
		pollConfig:      cfg.Poll,
		fallbackMaxRows: cfg.FallbackMaxRows,
		active:          make(map[uuid.UUID]*activeJob),
		last:            make(map[uuid.UUID]models.ImportJobProgress),
	}
}

// RemoteImportInput is a supplier file headed for the job API.
type RemoteImportInput struct {
	TenantID  uuid.UUID
	FileName  string
	Content   []byte
	Table     *utils.Table
	Mapping   mapping.FieldMapping
	Options   matching.Options
	BatchSize int
}

// RemoteImportOutcome holds exactly one of Accepted (job submitted and
// tracked) or Local (the file was imported in-process after the submission
// failed).
type RemoteImportOutcome struct {
	Accepted *models.ImportJobAccepted
	Local    *models.SupplierImportResult
}

// StartSupplierImport validates the file locally, submits it and starts
// tracking the job in the background. Ambiguous-currency files are refused
// before anything is sent.
func (s *ImportJobService) StartSupplierImport(ctx context.Context, in RemoteImportInput) (*RemoteImportOutcome, error) {
	if err := in.Options.Validate(); err != nil {
		return nil, err
	}
	job, err := s.reserve(ctx, in.TenantID, in.FileName)
	if err != nil {
		return nil, err
	}
	tracked := false
	defer func() {
		if !tracked {
			job.stop()
			s.release(in.TenantID, job)
		}
	}()

	prep, err := s.local.Prepare(ctx, in.TenantID, in.Table, in.Mapping)
	if err != nil {
		return nil, err
	}
	if prep.Result.Err() != nil {
		// Import records the refusal in history and returns the wrapped gate error.
		result, err := s.local.Import(ctx, s.localInput(in, ModeRemote, nil))
		return &RemoteImportOutcome{Local: result}, err
	}

	h := &models.ImportHistory{
		Type:     models.ImportTypeSupplier,
		FileName: in.FileName,
		FileSize: int64(len(in.Content)),
		Status:   models.ImportStatusInProgress,
		Mode:     ModeRemote,
	}
	h.TenantID = in.TenantID
	if s.archive != nil {
		key, err := s.archive.ArchiveImport(ctx, in.TenantID, models.ImportTypeSupplier, in.FileName, in.Content)
		if err != nil {
			log.Warn().Err(err).Str("tenant_id", in.TenantID.String()).Str("file_name", in.FileName).Msg("Failed to archive import file")
		}
		h.ArchiveKey = key
	}
	if err := s.history.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to create import history: %w", err)
	}

	submittedAt := time.Now()
	jobID, err := s.api.SubmitSupplierFile(ctx, jobapi.SubmitRequest{
		FileName:     in.FileName,
		File:         bytes.NewReader(in.Content),
		BatchSize:    in.BatchSize,
		FieldMapping: prep.Mapping,
		MatchOptions: wireOptions(in.Options),
	})
	if err != nil {
		return s.submitFailed(ctx, in, h, err)
	}

	h.JobID = jobID
	if err := s.history.Update(ctx, h); err != nil {
		log.Error().Err(err).Str("import_id", h.ID.String()).Msg("Failed to update import history")
	}

	s.mu.Lock()
	job.progress.JobID = jobID
	job.progress.HistoryID = h.ID
	job.progress.Message = "Import queued"
	job.progress.StartedAt = submittedAt
	job.progress.UpdatedAt = submittedAt
	// Shutdown may have started after reserve; its Wait must not race Add.
	if !s.stopping.Load() {
		tracked = true
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if tracked {
		go s.track(job.ctx, job, h, submittedAt)
	} else {
		log.Info().Str("tenant_id", in.TenantID.String()).Str("job_id", jobID).Msg("Job submitted during shutdown, not tracked")
	}

	log.Info().
		Str("tenant_id", in.TenantID.String()).
		Str("job_id", jobID).
		Str("file_name", in.FileName).
		Int("rows", len(in.Table.Rows)).
		Msg("Supplier import submitted")

	return &RemoteImportOutcome{Accepted: &models.ImportJobAccepted{
		JobID:     jobID,
		HistoryID: h.ID,
		Status:    string(models.ImportJobStatusQueued),
		Message:   "Import queued",
	}}, nil
}

// Progress returns the last known state of a tenant's job.
func (s *ImportJobService) Progress(tenantID uuid.UUID, jobID string) (*models.ImportJobProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.active[tenantID]; ok && job.progress.JobID == jobID {
		p := job.progress
		return &p, nil
	}
	if p, ok := s.last[tenantID]; ok && p.JobID == jobID {
		return &p, nil
	}
	return nil, ErrNoActiveImport
}

// Cancel asks the job API to cancel and stops local tracking. A failed remote
// cancel is logged, not returned.
func (s *ImportJobService) Cancel(ctx context.Context, tenantID uuid.UUID, jobID string) error {
	s.mu.Lock()
	job, ok := s.active[tenantID]
	if !ok || job.progress.JobID != jobID {
		s.mu.Unlock()
		return ErrNoActiveImport
	}
	s.mu.Unlock()

	if err := s.api.Cancel(ctx, jobID); err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID.String()).Str("job_id", jobID).Msg("Remote cancel failed")
	}
	job.stop()
	return nil
}

// Shutdown stops tracking every job and waits for the trackers to exit.
// Their history rows stay In Progress.
func (s *ImportJobService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.stopping.Store(true)
	for _, job := range s.active {
		job.stop()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ImportJobService) reserve(ctx context.Context, tenantID uuid.UUID, fileName string) (*activeJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping.Load() {
		return nil, ErrShuttingDown
	}
	if _, busy := s.active[tenantID]; busy {
		return nil, ErrImportInProgress
	}
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	job := &activeJob{ctx: jobCtx, cancel: cancel, progress: models.ImportJobProgress{
		TenantID: tenantID,
		FileName: fileName,
		Status:   models.ImportJobStatusQueued,
	}}
	s.active[tenantID] = job
	return job, nil
}

func (s *ImportJobService) release(tenantID uuid.UUID, job *activeJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active[tenantID] == job {
		delete(s.active, tenantID)
	}
	if job.progress.JobID != "" {
		s.last[tenantID] = job.progress
	}
}

func (s *ImportJobService) localInput(in RemoteImportInput, mode string, h *models.ImportHistory) SupplierImportInput {
	return SupplierImportInput{
		TenantID:  in.TenantID,
		FileName:  in.FileName,
		FileSize:  int64(len(in.Content)),
		Table:     in.Table,
		Mapping:   in.Mapping,
		Options:   in.Options,
		BatchSize: in.BatchSize,
		Mode:      mode,
		History:   h,
	}
}

// submitFailed runs small files locally and fails the rest.
func (s *ImportJobService) submitFailed(ctx context.Context, in RemoteImportInput, h *models.ImportHistory, submitErr error) (*RemoteImportOutcome, error) {
	rows := len(in.Table.Rows)
	logger := log.With().Str("tenant_id", in.TenantID.String()).Str("file_name", in.FileName).Logger()

	if rows <= s.fallbackMaxRows {
		logger.Warn().Err(submitErr).Int("rows", rows).Msg("Job submission failed, importing locally")
		result, err := s.local.Import(ctx, s.localInput(in, ModeLocalFallback, h))
		return &RemoteImportOutcome{Local: result}, err
	}

	logger.Error().Err(submitErr).Int("rows", rows).Msg("Job submission failed")
	h.Finish(models.ImportStatusFailed, rows, 0, rows, 0, submitErr.Error())
	if err := s.history.Update(context.WithoutCancel(ctx), h); err != nil {
		logger.Error().Err(err).Msg("Failed to update import history")
	}
	s.metrics.ImportFinished(string(models.ImportTypeSupplier), ModeRemote, string(models.ImportStatusFailed), 0, rows, 0)
	return nil, fmt.Errorf("failed to submit import job: %w", submitErr)
}

func (s *ImportJobService) track(ctx context.Context, job *activeJob, h *models.ImportHistory, submittedAt time.Time) {
	defer s.wg.Done()
	defer job.stop()

	tenantID, jobID := h.TenantID, h.JobID
	cfg := s.pollConfig
	cfg.FileName = h.FileName
	cfg.SubmittedAt = submittedAt

	poller := jobpoller.New(s.api, cfg, func(u jobpoller.Update) {
		s.onUpdate(job, u)
	})
	out, err := poller.Poll(ctx, jobID)
	progress := s.complete(job, h, out, err)

	s.release(tenantID, job)
	s.broadcast(tenantID, eventFor(progress), progress)
}

func (s *ImportJobService) onUpdate(job *activeJob, u jobpoller.Update) {
	s.mu.Lock()
	job.progress.Status = jobStatus(u.Status)
	job.progress.Progress = u.Progress
	job.progress.Message = u.Message
	job.progress.Retrying = u.Retrying
	job.progress.UpdatedAt = time.Now()
	p := job.progress
	s.mu.Unlock()

	if u.Retrying {
		s.metrics.PollError()
		log.Warn().Str("tenant_id", p.TenantID.String()).Str("job_id", p.JobID).Msg("Job status check failed, retrying")
	}
	s.broadcast(p.TenantID, EventImportProgress, p)
}

// complete records the terminal state in history and returns the final progress.
func (s *ImportJobService) complete(job *activeJob, h *models.ImportHistory, out jobpoller.Outcome, pollErr error) models.ImportJobProgress {
	logger := log.With().Str("tenant_id", h.TenantID.String()).Str("job_id", h.JobID).Logger()
	t := out.Totals

	var status models.ImportStatus
	switch {
	case errors.Is(pollErr, jobpoller.ErrStatusUnavailable):
		h.ErrorMessage = &out.Message
		logger.Warn().Msg("Job status unavailable, giving up tracking")
	case pollErr != nil && s.stopping.Load():
		msg := "tracking stopped at shutdown"
		h.ErrorMessage = &msg
		logger.Info().Msg("Job tracking stopped")
	case pollErr != nil || out.Status == jobapi.StatusCancelled:
		status = models.ImportStatusCancelled
		h.Finish(status, t.Total, t.Successful, t.Failed, t.Skipped, "import cancelled")
	case out.Status == jobapi.StatusCompleted:
		status = models.ImportStatusCompleted
		h.Finish(status, t.Total, t.Successful, t.Failed, t.Skipped, "")
	default:
		status = models.ImportStatusFailed
		h.Finish(status, t.Total, t.Successful, t.Failed, t.Skipped, out.Message)
	}

	summary := matchSummary(t.MatchStats)
	h.Results = models.JSONMap{
		"suppliers_added": t.SuppliersAdded,
		"forced":          out.Forced,
	}
	if summary != nil {
		h.Results["match_stats"] = map[string]interface{}{
			"total_matched": summary.TotalMatched,
			"by_method":     summary.ByMethod,
		}
	}
	if err := s.history.Update(context.Background(), h); err != nil {
		logger.Error().Err(err).Msg("Failed to update import history")
	}
	if status != "" {
		s.metrics.ImportFinished(string(models.ImportTypeSupplier), ModeRemote, string(status), t.Successful, t.Failed, t.Skipped)
		if summary != nil {
			for method, n := range summary.ByMethod {
				s.metrics.Matched(method, n)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := &job.progress
	p.Total, p.Successful, p.Failed, p.Skipped = t.Total, t.Successful, t.Failed, t.Skipped
	p.SuppliersAdded = t.SuppliersAdded
	p.MatchStats = summary
	p.Forced = out.Forced
	p.Retrying = false
	p.UpdatedAt = time.Now()
	switch status {
	case models.ImportStatusCompleted:
		p.Status, p.Progress = models.ImportJobStatusCompleted, 100
		if out.Message != "" {
			p.Message = out.Message
		}
	case models.ImportStatusFailed:
		p.Status, p.Message = models.ImportJobStatusFailed, out.Message
	case models.ImportStatusCancelled:
		p.Status, p.Message = models.ImportJobStatusCancelled, "Import cancelled"
	default:
		p.Status = models.ImportJobStatusProcessing
		if h.ErrorMessage != nil {
			p.Message = *h.ErrorMessage
		}
	}

	logger.Info().
		Str("status", string(p.Status)).
		Int("total", t.Total).
		Int("successful", t.Successful).
		Int("failed", t.Failed).
		Int("skipped", t.Skipped).
		Bool("forced", out.Forced).
		Msg("Supplier import job finished")
	return *p
}

func (s *ImportJobService) broadcast(tenantID uuid.UUID, event string, p models.ImportJobProgress) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToTenant(tenantID, event, p)
}

func eventFor(p models.ImportJobProgress) string {
	switch p.Status {
	case models.ImportJobStatusCompleted:
		return EventImportCompleted
	case models.ImportJobStatusFailed, models.ImportJobStatusCancelled:
		return EventImportFailed
	}
	return EventImportProgress
}

func jobStatus(s string) models.ImportJobStatus {
	switch s {
	case jobapi.StatusWaiting, jobapi.StatusQueued:
		return models.ImportJobStatusQueued
	case jobapi.StatusCompleted:
		return models.ImportJobStatusCompleted
	case jobapi.StatusFailed:
		return models.ImportJobStatusFailed
	case jobapi.StatusCancelled:
		return models.ImportJobStatusCancelled
	}
	return models.ImportJobStatusProcessing
}

func wireOptions(o matching.Options) jobapi.MatchOptions {
	priority := make([]string, 0, len(o.Priority))
	for _, m := range o.EffectivePriority() {
		priority = append(priority, string(m))
	}
	return jobapi.MatchOptions{UseEAN: o.UseEAN, UseMPN: o.UseMPN, UseName: o.UseName, Priority: priority}
}

func matchSummary(ms *jobapi.MatchStats) *models.MatchSummary {
	if ms == nil {
		return nil
	}
	summary := &models.MatchSummary{TotalMatched: ms.TotalMatched, ByMethod: make(map[string]int, len(ms.ByMethod))}
	for method, n := range ms.ByMethod {
		summary.ByMethod[method] = n
	}
	return summary
}
