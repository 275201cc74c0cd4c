package services

import (
	"context"
	"errors"

	"productmap/internal/matching"
	"productmap/internal/reconcile"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var (
	// ErrImportInProgress is returned when a tenant already has a tracked job.
	ErrImportInProgress = errors.New("an import is already in progress")
	// ErrShuttingDown is returned for imports started after Shutdown.
	ErrShuttingDown = errors.New("import service is shutting down")
	// ErrNoActiveImport is returned when there is no tracked job to report or cancel.
	ErrNoActiveImport = errors.New("no active import")
	// ErrMissingRequiredFields is returned when a required field has no column.
	ErrMissingRequiredFields = errors.New("required fields are not mapped")
	// ErrEmptyFile is returned for a file without data rows.
	ErrEmptyFile = errors.New("file has no data rows")
)

var tracer = otel.Tracer("productmap/services")

// CandidateFinder loads the match candidates for one identifier column.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, tenantID uuid.UUID, method matching.Method, values []string) ([]matching.Candidate, error)
}

// SupplierResolver upserts suppliers by name.
type SupplierResolver interface {
	EnsureByNames(ctx context.Context, tenantID uuid.UUID, names []string) (map[string]uuid.UUID, int, error)
}

// SupplierProductWriter writes relationship batches for a tenant.
type SupplierProductWriter interface {
	UpsertBatch(ctx context.Context, tenantID uuid.UUID, batch []reconcile.Upsert) (int, error)
}

// ProductWriter upserts catalog products.
type ProductWriter interface {
	UpsertBatch(ctx context.Context, products []models.Product) (int, error)
}

// HistoryStore persists import history rows.
type HistoryStore interface {
	Create(ctx context.Context, h *models.ImportHistory) error
	Update(ctx context.Context, h *models.ImportHistory) error
}

// AttributeSource returns tenant attribute definitions.
type AttributeSource interface {
	List(ctx context.Context, tenantID uuid.UUID, forType string) ([]models.CustomAttribute, error)
}

// Broadcaster pushes events to a tenant's websocket clients.
type Broadcaster interface {
	BroadcastToTenant(tenantID uuid.UUID, messageType string, data interface{})
}

// Archiver stores a copy of an uploaded file and returns its key.
type Archiver interface {
	ArchiveImport(ctx context.Context, tenantID uuid.UUID, importType models.ImportType, fileName string, content []byte) (string, error)
}

// writerFunc adapts a tenant-scoped SupplierProductWriter to reconcile.BatchWriter.
type writerFunc func(ctx context.Context, batch []reconcile.Upsert) (int, error)

func (f writerFunc) UpsertSupplierProducts(ctx context.Context, batch []reconcile.Upsert) (int, error) {
	return f(ctx, batch)
}
