package services

import (
	"context"
	"testing"

	"productmap/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogTable() (headers []string, rows []map[string]string) {
	headers = []string{"Title", "EAN", "Brand", "Sale Price"}
	row := func(title, ean, brand, price string) map[string]string {
		return map[string]string{"Title": title, "EAN": ean, "Brand": brand, "Sale Price": price}
	}
	rows = []map[string]string{
		row("Widget", "5012345678901", "Acme", "19.99"),
		row("Widget v2", "5012345678901", "Acme", "21.00"),
		row("Gadget", "", "Acme", "5"),
		row("Gizmo", "4006381333931", "Beta", "$9.50"),
	}
	return headers, rows
}

func TestProductImport_UpsertsValidRows(t *testing.T) {
	catalog := &fakeCatalog{}
	history := newFakeHistory()
	svc := NewProductImportService(NewMappingService(nil), catalog, history, nil)
	tenantID := uuid.New()

	headers, rows := catalogTable()
	result, err := svc.Import(context.Background(), ProductImportInput{
		TenantID: tenantID,
		FileName: "amazon.csv",
		Table:    tableOf(headers, rows),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Duplicates)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 3, result.Rejected[0].Row)

	require.Len(t, catalog.upserted, 2)
	assert.Equal(t, "Widget v2", catalog.upserted[0].Title, "later row wins on a shared EAN")
	assert.Equal(t, tenantID, catalog.upserted[0].TenantID)
	assert.True(t, decimal.RequireFromString("9.50").Equal(catalog.upserted[1].SalePrice))
	assert.False(t, catalog.upserted[1].BuyBoxPrice.Valid)

	h := history.get(result.ImportID)
	assert.Equal(t, models.ImportTypeProduct, h.Type)
	assert.Equal(t, models.ImportStatusCompleted, h.Status)
}

func TestProductImport_AllBatchesFail(t *testing.T) {
	catalog := &fakeCatalog{failUpsert: true}
	history := newFakeHistory()
	svc := NewProductImportService(NewMappingService(nil), catalog, history, nil)

	headers, rows := catalogTable()
	result, err := svc.Import(context.Background(), ProductImportInput{
		TenantID: uuid.New(),
		FileName: "amazon.csv",
		Table:    tableOf(headers, rows),
	})
	require.Error(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 3, result.Failed)
	assert.Equal(t, result.Total, result.Successful+result.Failed+result.Skipped)
	assert.Equal(t, models.ImportStatusFailed, history.get(result.ImportID).Status)
}

func TestProductImport_RequiredColumns(t *testing.T) {
	svc := NewProductImportService(NewMappingService(nil), &fakeCatalog{}, newFakeHistory(), nil)

	_, err := svc.Import(context.Background(), ProductImportInput{
		TenantID: uuid.New(),
		Table: tableOf([]string{"Title", "EAN"}, []map[string]string{
			{"Title": "Widget", "EAN": "5012345678901"},
		}),
	})
	assert.ErrorIs(t, err, ErrMissingRequiredFields)
}

func TestOptionalDecimal(t *testing.T) {
	assert.False(t, optionalDecimal(decimal.Zero).Valid)

	d := optionalDecimal(decimal.NewFromFloat(1.25))
	require.True(t, d.Valid)
	assert.Equal(t, "1.25", d.Decimal.String())
}
