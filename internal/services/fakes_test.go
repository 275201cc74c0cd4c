package services

import (
	"context"
	"errors"
	"sync"

	"productmap/internal/jobapi"
	"productmap/internal/matching"
	"productmap/internal/reconcile"
	"productmap/pkg/models"

	"github.com/google/uuid"
)

type fakeCatalog struct {
	mu         sync.Mutex
	candidates []matching.Candidate
	calls      int
	upserted   []models.Product
	failUpsert bool
}

func (f *fakeCatalog) FindCandidates(ctx context.Context, tenantID uuid.UUID, method matching.Method, values []string) ([]matching.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	var out []matching.Candidate
	for _, c := range f.candidates {
		var key string
		switch method {
		case matching.MethodEAN:
			key = c.EAN
		case matching.MethodMPN:
			key = c.MPN
		case matching.MethodName:
			key = c.Title
		}
		if key != "" && want[key] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpsertBatch(ctx context.Context, products []models.Product) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsert {
		return 0, errors.New("database unavailable")
	}
	f.upserted = append(f.upserted, products...)
	return len(products), nil
}

type fakeSuppliers struct {
	mu     sync.Mutex
	byName map[string]uuid.UUID
}

func newFakeSuppliers() *fakeSuppliers {
	return &fakeSuppliers{byName: make(map[string]uuid.UUID)}
}

func (f *fakeSuppliers) EnsureByNames(ctx context.Context, tenantID uuid.UUID, names []string) (map[string]uuid.UUID, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]uuid.UUID, len(names))
	added := 0
	for _, n := range names {
		id, ok := f.byName[n]
		if !ok {
			id = uuid.New()
			f.byName[n] = id
			added++
		}
		out[n] = id
	}
	return out, added, nil
}

type fakeLinks struct {
	mu    sync.Mutex
	rows  map[reconcile.Key]reconcile.Upsert
	calls int
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{rows: make(map[reconcile.Key]reconcile.Upsert)}
}

func (f *fakeLinks) UpsertBatch(ctx context.Context, tenantID uuid.UUID, batch []reconcile.Upsert) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, u := range batch {
		f.rows[u.Key()] = u
	}
	return len(batch), nil
}

type fakeHistory struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.ImportHistory
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{rows: make(map[uuid.UUID]models.ImportHistory)}
}

func (f *fakeHistory) Create(ctx context.Context, h *models.ImportHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	f.rows[h.ID] = *h
	return nil
}

func (f *fakeHistory) Update(ctx context.Context, h *models.ImportHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[h.ID] = *h
	return nil
}

func (f *fakeHistory) get(id uuid.UUID) models.ImportHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

func (f *fakeHistory) only() models.ImportHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.rows {
		return h
	}
	return models.ImportHistory{}
}

type fakeAttributes struct {
	attrs []models.CustomAttribute
}

func (f fakeAttributes) List(ctx context.Context, tenantID uuid.UUID, forType string) ([]models.CustomAttribute, error) {
	var out []models.CustomAttribute
	for _, a := range f.attrs {
		if a.ForType == forType {
			out = append(out, a)
		}
	}
	return out, nil
}

type broadcastEvent struct {
	tenantID uuid.UUID
	event    string
	progress models.ImportJobProgress
}

type fakeHub struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (f *fakeHub) BroadcastToTenant(tenantID uuid.UUID, messageType string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, _ := data.(models.ImportJobProgress)
	f.events = append(f.events, broadcastEvent{tenantID: tenantID, event: messageType, progress: p})
}

func (f *fakeHub) last() (broadcastEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return broadcastEvent{}, false
	}
	return f.events[len(f.events)-1], true
}

// fakeJobAPI answers status polls from a script; the last entry repeats.
type fakeJobAPI struct {
	mu         sync.Mutex
	submitErr  error
	jobID      string
	submitted  int
	statuses   []*jobapi.JobStatus
	statusErr  error
	polls      int
	cancelled  []string
	lastSubmit jobapi.SubmitRequest
	// onSubmit runs before the submission is answered.
	onSubmit func()
}

func (f *fakeJobAPI) SubmitSupplierFile(ctx context.Context, req jobapi.SubmitRequest) (string, error) {
	if f.onSubmit != nil {
		f.onSubmit()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted++
	f.lastSubmit = req
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.jobID, nil
}

func (f *fakeJobAPI) Status(ctx context.Context, jobID string) (*jobapi.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	i := f.polls - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	st := *f.statuses[i]
	return &st, nil
}

func (f *fakeJobAPI) RecentImports(ctx context.Context, importType string, limit int) ([]jobapi.ImportRecord, error) {
	return nil, nil
}

func (f *fakeJobAPI) Cancel(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, jobID)
	return nil
}
