// Package jobpoller tracks an external import job until it reaches a
// terminal state. Status errors are retried with exponential backoff and are
// never reported as job failure.
package jobpoller

import (
	"context"
	"errors"
	"strings"
	"time"

	"productmap/internal/jobapi"

	"github.com/cenkalti/backoff/v4"
)

// RetryMessage is sent to observers while status checks are failing.
const RetryMessage = "Import is still processing; retrying status check"

// ErrStatusUnavailable means status checks kept failing past GiveUpAfter.
// Callers should assume the job is still running, not that it failed.
var ErrStatusUnavailable = errors.New("job status unavailable")

// StatusFetcher is the part of the job API the poller needs.
type StatusFetcher interface {
	Status(ctx context.Context, jobID string) (*jobapi.JobStatus, error)
	RecentImports(ctx context.Context, importType string, limit int) ([]jobapi.ImportRecord, error)
}

// Config controls polling cadence and the stall safety net.
type Config struct {
	BaseInterval time.Duration
	MaxInterval  time.Duration
	// StallProgress and StallTimeout arm the safety net: once progress has
	// stayed at or above StallProgress for StallTimeout, recent imports are
	// checked for a completion the status endpoint missed.
	StallProgress float64
	StallTimeout  time.Duration
	GiveUpAfter   time.Duration

	ImportType string
	FileName   string
	// SubmittedAt bounds which recent imports can belong to this job.
	SubmittedAt time.Time
}

// DefaultConfig returns the production cadence.
func DefaultConfig() Config {
	return Config{
		BaseInterval:  2 * time.Second,
		MaxInterval:   30 * time.Second,
		StallProgress: 80,
		StallTimeout:  15 * time.Second,
		GiveUpAfter:   10 * time.Minute,
		ImportType:    "Supplier Data",
	}
}

// Update is emitted after every poll attempt.
type Update struct {
	JobID    string  `json:"job_id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
	Retrying bool    `json:"retrying"`
}

// Totals is the internal result shape. Successful+Failed+Skipped == Total.
type Totals struct {
	Total          int                `json:"total"`
	Successful     int                `json:"successful"`
	Failed         int                `json:"failed"`
	Skipped        int                `json:"skipped"`
	SuppliersAdded int                `json:"suppliers_added"`
	MatchStats     *jobapi.MatchStats `json:"match_stats,omitempty"`
}

// Outcome is the terminal state of a job.
type Outcome struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Totals  Totals `json:"totals"`
	// Forced is set when completion was inferred from import history.
	Forced bool `json:"forced"`
}

// Poller polls one job at a time.
type Poller struct {
	fetcher  StatusFetcher
	cfg      Config
	onUpdate func(Update)
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
}

// New creates a Poller. onUpdate may be nil.
func New(fetcher StatusFetcher, cfg Config, onUpdate func(Update)) *Poller {
	def := DefaultConfig()
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = def.BaseInterval
	}
	if cfg.MaxInterval < cfg.BaseInterval {
		cfg.MaxInterval = def.MaxInterval
		if cfg.MaxInterval < cfg.BaseInterval {
			cfg.MaxInterval = cfg.BaseInterval
		}
	}
	if cfg.StallProgress <= 0 {
		cfg.StallProgress = def.StallProgress
	}
	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = def.StallTimeout
	}
	if cfg.GiveUpAfter <= 0 {
		cfg.GiveUpAfter = def.GiveUpAfter
	}
	return &Poller{fetcher: fetcher, cfg: cfg, onUpdate: onUpdate, now: time.Now, after: time.After}
}

// Poll blocks until the job is terminal, the context is cancelled, or status
// checks have failed for longer than GiveUpAfter.
func (p *Poller) Poll(ctx context.Context, jobID string) (Outcome, error) {
	bo := p.retryBackOff()

	var (
		lastProgress float64
		failingSince time.Time
		highSince    time.Time
		delay        time.Duration
	)

	for {
		select {
		case <-ctx.Done():
			return Outcome{JobID: jobID, Status: jobapi.StatusCancelled}, ctx.Err()
		case <-p.after(delay):
		}

		st, err := p.fetcher.Status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{JobID: jobID, Status: jobapi.StatusCancelled}, ctx.Err()
			}
			now := p.now()
			if failingSince.IsZero() {
				failingSince = now
			}
			if now.Sub(failingSince) >= p.cfg.GiveUpAfter {
				return Outcome{JobID: jobID, Status: jobapi.StatusProcessing, Message: RetryMessage}, ErrStatusUnavailable
			}
			p.emit(Update{JobID: jobID, Status: jobapi.StatusProcessing, Progress: lastProgress, Message: RetryMessage, Retrying: true})
			delay = p.retryDelay(bo)
			continue
		}

		failingSince = time.Time{}
		bo.Reset()
		if st.Progress > lastProgress {
			lastProgress = st.Progress
		}
		p.emit(Update{JobID: jobID, Status: st.Status, Progress: lastProgress, Message: st.Text()})

		if st.Terminal() {
			return terminalOutcome(jobID, st), nil
		}

		if st.Progress >= p.cfg.StallProgress {
			if highSince.IsZero() {
				highSince = p.now()
			}
		} else {
			highSince = time.Time{}
		}
		if !highSince.IsZero() && p.now().Sub(highSince) >= p.cfg.StallTimeout {
			if out, ok := p.recentCompletion(ctx, jobID); ok {
				p.emit(Update{JobID: jobID, Status: out.Status, Progress: 100, Message: out.Message})
				return out, nil
			}
			highSince = p.now()
		}

		delay = p.cfg.BaseInterval
	}
}

// retryBackOff grows from BaseInterval to MaxInterval without jitter.
func (p *Poller) retryBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.BaseInterval
	bo.MaxInterval = p.cfg.MaxInterval
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// retryDelay never exceeds MaxInterval.
func (p *Poller) retryDelay(bo *backoff.ExponentialBackOff) time.Duration {
	d := bo.NextBackOff()
	if d == backoff.Stop || d > p.cfg.MaxInterval {
		return p.cfg.MaxInterval
	}
	return d
}

func (p *Poller) emit(u Update) {
	if p.onUpdate != nil {
		p.onUpdate(u)
	}
}

// recentCompletion looks for a finished history row for this job's file.
func (p *Poller) recentCompletion(ctx context.Context, jobID string) (Outcome, bool) {
	recs, err := p.fetcher.RecentImports(ctx, p.cfg.ImportType, 10)
	if err != nil {
		return Outcome{}, false
	}
	since := p.cfg.SubmittedAt.Add(-time.Minute)
	for _, r := range recs {
		if p.cfg.FileName != "" && r.FileName != p.cfg.FileName {
			continue
		}
		if !p.cfg.SubmittedAt.IsZero() && r.CreatedAt.Before(since) {
			continue
		}
		if !strings.EqualFold(r.Status, jobapi.StatusCompleted) {
			continue
		}
		return Outcome{
			JobID:   jobID,
			Status:  jobapi.StatusCompleted,
			Message: "Import completed",
			Totals:  balance(Totals{Total: r.TotalRecords, Successful: r.SuccessfulRecords, Failed: r.FailedRecords}),
			Forced:  true,
		}, true
	}
	return Outcome{}, false
}

func terminalOutcome(jobID string, st *jobapi.JobStatus) Outcome {
	out := Outcome{JobID: jobID, Status: st.Status, Message: st.Text()}
	if st.Results != nil {
		out.Totals = balance(Totals{
			Total:          st.Results.Total,
			Successful:     st.Results.Successful,
			Failed:         st.Results.Failed,
			Skipped:        st.Results.Skipped,
			SuppliersAdded: st.Results.SuppliersAdded,
			MatchStats:     st.Results.MatchStats,
		})
	}
	return out
}

// balance makes Successful+Failed+Skipped equal Total. Rows the server
// counted but did not classify are reported as skipped.
func balance(t Totals) Totals {
	classified := t.Successful + t.Failed + t.Skipped
	switch {
	case classified < t.Total:
		t.Skipped += t.Total - classified
	case classified > t.Total:
		t.Total = classified
	}
	return t
}
