package services

import (
	"context"
	"errors"
	"fmt"

	"productmap/internal/mapping"
	"productmap/internal/normalize"
	"productmap/pkg/models"

	"github.com/google/uuid"
)

// ErrInvalidMapping is returned when a mapping names a column the file lacks.
var ErrInvalidMapping = errors.New("field mapping references unknown columns")

const (
	forTypeSupplier = "supplier"
	forTypeProduct  = "product"
)

// MappingService builds column mappings with the tenant's custom attributes.
type MappingService struct {
	attrs AttributeSource
}

// NewMappingService creates a new mapping service
func NewMappingService(attrs AttributeSource) *MappingService {
	return &MappingService{attrs: attrs}
}

// Definitions loads the tenant's attribute definitions for forType.
func (s *MappingService) Definitions(ctx context.Context, tenantID uuid.UUID, forType string) ([]normalize.AttributeDef, error) {
	if s.attrs == nil {
		return nil, nil
	}
	attrs, err := s.attrs.List(ctx, tenantID, forType)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom attributes: %w", err)
	}
	return normalize.FilterDefs(models.Definitions(attrs), forType), nil
}

// Preview auto-maps a header row.
func (s *MappingService) Preview(ctx context.Context, tenantID uuid.UUID, headers []string, forType string) (*models.MappingPreviewResponse, error) {
	if forType == "" {
		forType = forTypeSupplier
	}
	defs, err := s.Definitions(ctx, tenantID, forType)
	if err != nil {
		return nil, err
	}

	res := autoMap(headers, forType, defs)
	unmapped := res.Unmapped
	if unmapped == nil {
		unmapped = []string{}
	}
	return &models.MappingPreviewResponse{
		Mapping:         res.Mapping,
		UnmappedHeaders: unmapped,
		Warnings:        res.Warnings,
	}, nil
}

// Resolve returns the mapping to import with. A nil manual mapping is
// auto-mapped; a manual one is checked against the file's headers.
func (s *MappingService) Resolve(headers []string, manual mapping.FieldMapping, forType string, defs []normalize.AttributeDef) (mapping.FieldMapping, []string, error) {
	if len(manual) == 0 {
		res := autoMap(headers, forType, defs)
		return res.Mapping, res.Warnings, nil
	}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	m := make(mapping.FieldMapping, len(manual))
	for field, header := range manual {
		if header == "" {
			continue
		}
		if !present[header] {
			return nil, nil, fmt.Errorf("%w: %q (for %q)", ErrInvalidMapping, header, field)
		}
		m[field] = header
	}

	var warnings []string
	for _, f := range tableFor(forType, defs) {
		if f.Required && m[f.Name] == "" {
			warnings = append(warnings, fmt.Sprintf("required field %q is not mapped", f.Name))
		}
	}
	if forType == forTypeSupplier {
		warnings = append(warnings, mapping.SupplierWarnings(m)...)
	}
	return m, warnings, nil
}

func autoMap(headers []string, forType string, defs []normalize.AttributeDef) mapping.Result {
	res := mapping.AutoMap(headers, tableFor(forType, defs))
	if forType == forTypeSupplier {
		res.Warnings = append(res.Warnings, mapping.SupplierWarnings(res.Mapping)...)
	}
	return res
}

func tableFor(forType string, defs []normalize.AttributeDef) mapping.Table {
	extras := make([]mapping.ExtraField, 0, len(defs))
	for _, d := range defs {
		extras = append(extras, mapping.ExtraField{Name: d.Name, Required: d.Required})
	}
	if forType == forTypeProduct {
		return mapping.ProductTable.With(extras)
	}
	return mapping.SupplierTable.With(extras)
}

// requireMapped fails with ErrMissingRequiredFields when a required field of
// table has no column. Custom attributes are checked per row instead.
func requireMapped(m mapping.FieldMapping, table mapping.Table) error {
	var missing []string
	for _, f := range table {
		if f.Required && m[f.Name] == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingRequiredFields, missing)
	}
	return nil
}

func toRawRows(rows []map[string]string) []normalize.RawRow {
	out := make([]normalize.RawRow, len(rows))
	for i, r := range rows {
		out[i] = normalize.RawRow(r)
	}
	return out
}

func toRejections(errs []normalize.RowError) []models.RowRejection {
	out := make([]models.RowRejection, 0, len(errs))
	for _, e := range errs {
		out = append(out, models.RowRejection{Row: e.Row, Reason: e.Reason})
	}
	return out
}
