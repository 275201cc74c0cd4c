package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"productmap/internal/mapping"
	"productmap/internal/matching"
	"productmap/internal/metrics"
	"productmap/internal/normalize"
	"productmap/internal/reconcile"
	"productmap/internal/utils"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	// candidateChunkSize bounds the identifiers per lookup query.
	candidateChunkSize = 500
	maxParallelLookups = 8

	ModeLocal         = "local"
	ModeRemote        = "remote"
	ModeLocalFallback = "local-fallback"
)

// SupplierImportService runs supplier imports in-process: map, normalize,
// match against the catalog, then reconcile into supplier_products.
type SupplierImportService struct {
	mapping   *MappingService
	products  CandidateFinder
	suppliers SupplierResolver
	links     SupplierProductWriter
	history   HistoryStore
	metrics   *metrics.Metrics
	chunkSize int
}

// NewSupplierImportService creates a new supplier import service
func NewSupplierImportService(mappingService *MappingService, products CandidateFinder, suppliers SupplierResolver, links SupplierProductWriter, history HistoryStore, m *metrics.Metrics) *SupplierImportService {
	return &SupplierImportService{
		mapping:   mappingService,
		products:  products,
		suppliers: suppliers,
		links:     links,
		history:   history,
		metrics:   m,
		chunkSize: candidateChunkSize,
	}
}

// SupplierImportInput describes one supplier file import.
type SupplierImportInput struct {
	TenantID   uuid.UUID
	FileName   string
	FileSize   int64
	Table      *utils.Table
	Mapping    mapping.FieldMapping // nil means auto-map
	Options    matching.Options
	BatchSize  int
	Mode       string
	ArchiveKey string
	// History is reused when set, e.g. when a remote submission fell back.
	History    *models.ImportHistory
	OnProgress reconcile.ProgressFunc
}

// PreparedSupplierFile is a mapped and normalized supplier file.
type PreparedSupplierFile struct {
	Mapping  mapping.FieldMapping
	Warnings []string
	Result   normalize.SupplierResult
}

// Prepare maps and normalizes a file without touching the catalog. The
// currency gate is reported through Result.Err().
func (s *SupplierImportService) Prepare(ctx context.Context, tenantID uuid.UUID, table *utils.Table, manual mapping.FieldMapping) (*PreparedSupplierFile, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	defs, err := s.mapping.Definitions(ctx, tenantID, forTypeSupplier)
	if err != nil {
		return nil, err
	}
	m, warnings, err := s.mapping.Resolve(table.Headers, manual, forTypeSupplier, defs)
	if err != nil {
		return nil, err
	}
	if err := requireMapped(m, mapping.SupplierTable); err != nil {
		return nil, err
	}

	return &PreparedSupplierFile{
		Mapping:  m,
		Warnings: warnings,
		Result:   normalize.NormalizeSuppliers(toRawRows(table.Rows), m, defs),
	}, nil
}

// Import runs the whole pipeline. A currency-ambiguous file is refused as a
// whole: the returned error wraps normalize.ErrCurrencyAmbiguous and nothing
// is written.
func (s *SupplierImportService) Import(ctx context.Context, in SupplierImportInput) (*models.SupplierImportResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "supplier_import")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", in.TenantID.String()),
		attribute.String("import.file_name", in.FileName),
	)

	if err := in.Options.Validate(); err != nil {
		return nil, err
	}
	if in.Mode == "" {
		in.Mode = ModeLocal
	}

	prep, err := s.Prepare(ctx, in.TenantID, in.Table, in.Mapping)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStage("normalize", start)

	h, err := s.openHistory(ctx, in)
	if err != nil {
		return nil, err
	}

	norm := prep.Result
	result := &models.SupplierImportResult{
		ImportID:      h.ID,
		Total:         len(in.Table.Rows),
		FallbackNames: norm.Warnings.FallbackNames,
		Warnings:      prep.Warnings,
		Rejected:      toRejections(norm.Rejected),
		FieldMapping:  models.FieldMap(prep.Mapping),
		MatchStats:    models.MatchSummary{ByMethod: map[string]int{}},
	}

	logger := log.With().
		Str("tenant_id", in.TenantID.String()).
		Str("import_id", h.ID.String()).
		Str("file_name", in.FileName).
		Logger()

	for _, r := range norm.Rejected {
		logger.Debug().Int("row", r.Row).Str("reason", r.Reason).Msg("Supplier row rejected")
	}
	if norm.Warnings.FallbackNames > 0 {
		logger.Info().Int("rows", norm.Warnings.FallbackNames).Msg("Supplier name filled in from fallback")
	}

	if err := norm.Err(); err != nil {
		result.CurrencyWarning = true
		result.CurrencyMessage = norm.Warnings.Message
		result.Failed = result.Total
		s.finish(ctx, h, in.Mode, models.ImportStatusFailed, result, norm.Warnings.Message)
		logger.Warn().Msg("Supplier import refused: ambiguous currency")
		return result, fmt.Errorf("%w: %s", err, norm.Warnings.Message)
	}

	priority := in.Options.EffectivePriority()
	candidates, err := s.loadCandidates(ctx, in.TenantID, norm.Records, priority)
	if err != nil {
		result.Failed = result.Total
		s.finish(ctx, h, in.Mode, models.ImportStatusFailed, result, err.Error())
		return result, err
	}

	matchStart := time.Now()
	outcome := matching.Match(norm.Records, candidates, priority)
	s.metrics.ObserveStage("match", matchStart)

	ids, added, err := s.suppliers.EnsureByNames(ctx, in.TenantID, supplierNames(norm.Records))
	if err != nil {
		result.Failed = result.Total
		s.finish(ctx, h, in.Mode, models.ImportStatusFailed, result, err.Error())
		return result, err
	}

	rec := reconcile.New(in.BatchSize)
	rec.OnProgress = in.OnProgress
	plan := rec.Reconcile(outcome, ids)

	writeStart := time.Now()
	stats, applyErr := rec.Apply(ctx, plan, writerFunc(func(ctx context.Context, batch []reconcile.Upsert) (int, error) {
		return s.links.UpsertBatch(ctx, in.TenantID, batch)
	}))
	s.metrics.ObserveStage("write", writeStart)

	result.SuppliersAdded = added
	result.DuplicateCount = stats.DuplicateCount
	result.Successful = stats.ProcessedCount
	result.Failed = len(norm.Rejected) + stats.FailedCount
	result.Skipped = stats.MatchStats.UnmatchedCount
	result.MatchStats = models.MatchSummary{
		TotalMatched:   stats.MatchStats.TotalMatched,
		ByMethod:       make(map[string]int, len(stats.MatchStats.ByMethod)),
		UnmatchedCount: stats.MatchStats.UnmatchedCount,
	}
	for method, n := range stats.MatchStats.ByMethod {
		result.MatchStats.ByMethod[string(method)] = n
		s.metrics.Matched(string(method), n)
	}
	result.DurationMillis = time.Since(start).Milliseconds()

	status, msg := models.ImportStatusCompleted, ""
	switch {
	case errors.Is(applyErr, context.Canceled):
		status, msg = models.ImportStatusCancelled, "import cancelled"
	case applyErr != nil:
		status, msg = models.ImportStatusFailed, applyErr.Error()
	}
	s.finish(ctx, h, in.Mode, status, result, msg)

	logger.Info().
		Int("total", result.Total).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("suppliers", stats.SupplierCount).
		Int("duplicates", stats.DuplicateCount).
		Dur("duration", time.Since(start)).
		Msg("Supplier import finished")

	return result, applyErr
}

func (s *SupplierImportService) openHistory(ctx context.Context, in SupplierImportInput) (*models.ImportHistory, error) {
	if in.History != nil {
		in.History.Mode = in.Mode
		return in.History, nil
	}
	h := &models.ImportHistory{
		Type:       models.ImportTypeSupplier,
		FileName:   in.FileName,
		FileSize:   in.FileSize,
		Status:     models.ImportStatusInProgress,
		Mode:       in.Mode,
		ArchiveKey: in.ArchiveKey,
	}
	h.TenantID = in.TenantID
	if err := s.history.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to create import history: %w", err)
	}
	return h, nil
}

func (s *SupplierImportService) finish(ctx context.Context, h *models.ImportHistory, mode string, status models.ImportStatus, r *models.SupplierImportResult, msg string) {
	h.Finish(status, r.Total, r.Successful, r.Failed, r.Skipped, msg)
	h.Results = models.JSONMap{
		"suppliers_added": r.SuppliersAdded,
		"duplicate_count": r.DuplicateCount,
		"fallback_names":  r.FallbackNames,
		"match_stats": map[string]interface{}{
			"total_matched":   r.MatchStats.TotalMatched,
			"by_method":       r.MatchStats.ByMethod,
			"unmatched_count": r.MatchStats.UnmatchedCount,
		},
	}
	if err := s.history.Update(context.WithoutCancel(ctx), h); err != nil {
		log.Error().Err(err).Str("import_id", h.ID.String()).Msg("Failed to update import history")
	}
	s.metrics.ImportFinished(string(models.ImportTypeSupplier), mode, string(status), r.Successful, r.Failed, r.Skipped)
}

// loadCandidates fetches only the products whose identifiers occur in the
// batch, in chunks of chunkSize identifiers per query, in parallel.
func (s *SupplierImportService) loadCandidates(ctx context.Context, tenantID uuid.UUID, records []normalize.SupplierRecord, priority []matching.Method) ([]matching.Candidate, error) {
	ctx, span := tracer.Start(ctx, "supplier_import.load_candidates")
	defer span.End()

	ids := matching.CollectIdentifiers(records, priority)
	if ids.Empty() {
		return nil, nil
	}

	lookups := []struct {
		method matching.Method
		values []string
	}{
		{matching.MethodEAN, ids.EANs},
		{matching.MethodMPN, ids.MPNs},
		{matching.MethodName, ids.Titles},
	}

	var (
		mu   sync.Mutex
		byID = make(map[uuid.UUID]matching.Candidate)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLookups)
	for _, l := range lookups {
		for _, chunk := range utils.Chunk(l.values, s.chunkSize) {
			method, chunk := l.method, chunk
			g.Go(func() error {
				found, err := s.products.FindCandidates(gctx, tenantID, method, chunk)
				if err != nil {
					return err
				}
				mu.Lock()
				for _, c := range found {
					byID[c.ID] = c
				}
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load match candidates: %w", err)
	}

	// Stable order keeps last-write-wins in the index deterministic.
	candidates := make([]matching.Candidate, 0, len(byID))
	for _, c := range byID {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID.String() < candidates[j].ID.String()
	})
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	return candidates, nil
}

// supplierNames returns the distinct supplier names in first-seen order.
func supplierNames(records []normalize.SupplierRecord) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		if !seen[r.SupplierName] {
			seen[r.SupplierName] = true
			names = append(names, r.SupplierName)
		}
	}
	return names
}
