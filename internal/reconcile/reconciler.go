// Package reconcile turns match results into supplier/product upserts,
// grouped per supplier and written in fixed-size batches.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"productmap/internal/matching"
	"productmap/internal/normalize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultBatchSize is used when no batch size is configured.
const DefaultBatchSize = 100

// Upsert is one supplier/product relationship write, keyed by
// (SupplierID, ProductID).
type Upsert struct {
	SupplierID    uuid.UUID
	ProductID     uuid.UUID
	EAN           string
	MPN           string
	ProductName   string
	Brand         string
	Cost          decimal.Decimal
	MOQ           *int
	LeadTime      string
	PaymentTerms  string
	SupplierStock *int
	MatchMethod   matching.Method
	Attributes    normalize.Attributes
	UpdatedAt     time.Time
}

// Key is the store-level uniqueness key of an upsert.
type Key struct {
	SupplierID uuid.UUID
	ProductID  uuid.UUID
}

func (u Upsert) Key() Key { return Key{SupplierID: u.SupplierID, ProductID: u.ProductID} }

// Group holds the upserts of one supplier.
type Group struct {
	SupplierName string
	SupplierID   uuid.UUID
	Upserts      []Upsert
}

// MatchStats summarizes how records were matched.
type MatchStats struct {
	TotalMatched   int                     `json:"total_matched"`
	ByMethod       map[matching.Method]int `json:"by_method"`
	UnmatchedCount int                     `json:"unmatched_count"`
}

// Stats are the aggregate counters of a reconciliation.
type Stats struct {
	ProcessedCount int        `json:"processed_count"`
	SupplierCount  int        `json:"supplier_count"`
	MatchStats     MatchStats `json:"match_stats"`
	// DuplicateCount is the number of upserts whose key already appeared
	// earlier in the batch. The store keeps the last value.
	DuplicateCount int `json:"duplicate_count"`
	FailedCount    int `json:"failed_count"`
}

// Plan is the reconciled, not yet written, set of upserts.
type Plan struct {
	Groups []Group
	Stats  Stats
	// Unresolved are matches whose supplier name had no id.
	Unresolved []matching.Result
}

// Upserts flattens the plan in write order.
func (p Plan) Upserts() []Upsert {
	var out []Upsert
	for _, g := range p.Groups {
		out = append(out, g.Upserts...)
	}
	return out
}

// Total is the number of upserts in the plan.
func (p Plan) Total() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Upserts)
	}
	return n
}

// Batches splits the upserts of g into chunks of at most size.
func (g Group) Batches(size int) [][]Upsert {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]Upsert
	for start := 0; start < len(g.Upserts); start += size {
		end := start + size
		if end > len(g.Upserts) {
			end = len(g.Upserts)
		}
		out = append(out, g.Upserts[start:end])
	}
	return out
}

// BatchWriter persists one batch of upserts and reports how many were written.
type BatchWriter interface {
	UpsertSupplierProducts(ctx context.Context, batch []Upsert) (int, error)
}

// ProgressFunc receives (records processed so far, total records).
type ProgressFunc func(done, total int)

// Reconciler builds and applies plans.
type Reconciler struct {
	BatchSize  int
	Now        func() time.Time
	OnProgress ProgressFunc
}

// New returns a Reconciler with the given batch size, falling back to
// DefaultBatchSize for non-positive values.
func New(batchSize int) *Reconciler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Reconciler{BatchSize: batchSize, Now: time.Now}
}

// Reconcile groups matches by supplier in first-appearance order and emits one
// upsert per match. suppliers maps each distinct supplier name to the id
// resolved for it once per batch.
func (r *Reconciler) Reconcile(outcome matching.Outcome, suppliers map[string]uuid.UUID) Plan {
	now := r.now()
	plan := Plan{
		Stats: Stats{
			MatchStats: MatchStats{
				ByMethod:       map[matching.Method]int{matching.MethodEAN: 0, matching.MethodMPN: 0, matching.MethodName: 0},
				UnmatchedCount: len(outcome.Unmatched),
			},
		},
	}

	groupIdx := make(map[string]int)
	seen := make(map[Key]bool)
	for _, m := range outcome.Matches {
		plan.Stats.MatchStats.TotalMatched++
		plan.Stats.MatchStats.ByMethod[m.Method]++

		name := m.Record.SupplierName
		supplierID, ok := suppliers[name]
		if !ok || supplierID == uuid.Nil {
			plan.Unresolved = append(plan.Unresolved, m)
			continue
		}

		gi, ok := groupIdx[name]
		if !ok {
			gi = len(plan.Groups)
			groupIdx[name] = gi
			plan.Groups = append(plan.Groups, Group{SupplierName: name, SupplierID: supplierID})
		}

		u := newUpsert(m, supplierID, now)
		if seen[u.Key()] {
			plan.Stats.DuplicateCount++
		}
		seen[u.Key()] = true
		plan.Groups[gi].Upserts = append(plan.Groups[gi].Upserts, u)
	}

	plan.Stats.SupplierCount = len(plan.Groups)
	plan.Stats.FailedCount = len(plan.Unresolved)
	return plan
}

// Apply writes the plan batch by batch. A failed batch is counted and
// skipped; the remaining batches still run. Progress is reported after each
// supplier group. Apply returns an error when the context is cancelled or
// when every batch failed.
func (r *Reconciler) Apply(ctx context.Context, plan Plan, w BatchWriter) (Stats, error) {
	stats := plan.Stats
	total := plan.Total()
	done := 0

	var firstErr error
	for _, g := range plan.Groups {
		for _, batch := range g.Batches(r.BatchSize) {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			n, err := w.UpsertSupplierProducts(ctx, batch)
			if err != nil {
				stats.FailedCount += len(batch)
				if firstErr == nil {
					firstErr = fmt.Errorf("upsert batch for supplier %q: %w", g.SupplierName, err)
				}
				done += len(batch)
				continue
			}
			stats.ProcessedCount += n
			stats.FailedCount += len(batch) - n
			done += len(batch)
		}
		if r.OnProgress != nil {
			r.OnProgress(done, total)
		}
	}

	if firstErr != nil && stats.ProcessedCount == 0 && total > 0 {
		return stats, firstErr
	}
	return stats, nil
}

func (r *Reconciler) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func newUpsert(m matching.Result, supplierID uuid.UUID, now time.Time) Upsert {
	rec := m.Record
	ean := rec.EAN
	if ean == "" {
		ean = m.Product.EAN
	}
	return Upsert{
		SupplierID:    supplierID,
		ProductID:     m.Product.ID,
		EAN:           ean,
		MPN:           rec.MPN,
		ProductName:   rec.ProductName,
		Brand:         rec.Brand,
		Cost:          rec.Cost,
		MOQ:           rec.MOQ,
		LeadTime:      rec.LeadTime,
		PaymentTerms:  rec.PaymentTerms,
		SupplierStock: rec.SupplierStock,
		MatchMethod:   m.Method,
		Attributes:    rec.Attributes,
		UpdatedAt:     now,
	}
}
