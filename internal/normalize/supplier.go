// Package normalize turns mapped spreadsheet rows into typed import records.
// Bad rows are isolated and reported; they never abort a batch.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"productmap/internal/mapping"

	"github.com/shopspring/decimal"
)

// UnknownSupplier is used when neither a supplier nor a product name is present.
const UnknownSupplier = "Unknown Supplier"

// CurrencyWarningMessage is returned to operators when the currency gate trips.
const CurrencyWarningMessage = "Some cost values use a non-USD currency symbol or an unrecognized format. " +
	"Convert all costs to plain USD amounts and upload the file again."

// ErrCurrencyAmbiguous refuses an import whose costs could not be read as USD.
var ErrCurrencyAmbiguous = errors.New("cost currency is ambiguous")

// RawRow is one spreadsheet line keyed by its original header.
type RawRow map[string]string

// SupplierRecord is a validated supplier row.
type SupplierRecord struct {
	Row           int
	SupplierName  string
	EAN           string
	MPN           string
	ProductName   string
	Brand         string
	Cost          decimal.Decimal
	MOQ           *int
	LeadTime      string
	PaymentTerms  string
	SupplierStock *int
	Attributes    Attributes
}

// RowError describes a rejected row. Row numbers are 1-based data rows.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Warnings are batch-level findings.
type Warnings struct {
	CurrencyWarning bool   `json:"currency_warning"`
	Message         string `json:"message,omitempty"`
	// FallbackNames counts rows whose supplier name had to be filled in.
	FallbackNames int `json:"fallback_names"`
}

// SupplierResult is the outcome of NormalizeSuppliers.
type SupplierResult struct {
	Records  []SupplierRecord
	Rejected []RowError
	Warnings Warnings
}

// Err returns ErrCurrencyAmbiguous when the batch must be refused.
func (r SupplierResult) Err() error {
	if r.Warnings.CurrencyWarning {
		return ErrCurrencyAmbiguous
	}
	return nil
}

// NormalizeSuppliers converts rows using mapping m. attrs are the tenant's
// supplier attribute definitions, fetched once by the caller.
func NormalizeSuppliers(rows []RawRow, m mapping.FieldMapping, attrs []AttributeDef) SupplierResult {
	var res SupplierResult

	cell := func(row RawRow, field string) string {
		header, ok := m[field]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[header])
	}

	for i, row := range rows {
		rowNum := i + 1

		cost, ambiguous := ParseCost(cell(row, mapping.FieldCost))
		if ambiguous {
			res.Warnings.CurrencyWarning = true
		}

		rec := SupplierRecord{
			Row:          rowNum,
			SupplierName: cell(row, mapping.FieldSupplierName),
			EAN:          NormalizeEAN(cell(row, mapping.FieldEAN)),
			MPN:          FixScientificNotation(cell(row, mapping.FieldMPN)),
			ProductName:  cell(row, mapping.FieldProductName),
			Brand:        cell(row, mapping.FieldBrand),
			Cost:         cost,
			LeadTime:     cell(row, mapping.FieldLeadTime),
			PaymentTerms: cell(row, mapping.FieldPaymentTerms),
		}
		if n, ok := ParseInt(cell(row, mapping.FieldMOQ)); ok {
			rec.MOQ = &n
		}
		if n, ok := ParseInt(cell(row, mapping.FieldSupplierStock)); ok {
			rec.SupplierStock = &n
		}

		if rec.SupplierName == "" {
			res.Warnings.FallbackNames++
			rec.SupplierName = rec.ProductName
			if rec.SupplierName == "" {
				rec.SupplierName = UnknownSupplier
			}
		}

		attrValues, missing := collectAttributes(row, m, attrs)
		rec.Attributes = attrValues

		if reason := validateSupplier(rec, missing); reason != "" {
			res.Rejected = append(res.Rejected, RowError{Row: rowNum, Reason: reason})
			continue
		}
		res.Records = append(res.Records, rec)
	}

	if res.Warnings.CurrencyWarning {
		res.Warnings.Message = CurrencyWarningMessage
	}
	return res
}

func validateSupplier(rec SupplierRecord, missingAttrs []string) string {
	if strings.TrimSpace(rec.SupplierName) == "" {
		return "supplier name is empty"
	}
	if !rec.Cost.IsPositive() {
		return "cost must be greater than zero"
	}
	if len(missingAttrs) > 0 {
		return fmt.Sprintf("missing required attribute(s): %s", strings.Join(missingAttrs, ", "))
	}
	return ""
}

// collectAttributes coerces mapped attribute cells. Required attributes with
// no mapped column take their default. It returns the names of required
// attributes that still have no usable value.
func collectAttributes(row RawRow, m mapping.FieldMapping, defs []AttributeDef) (Attributes, []string) {
	values := make(Attributes)
	var missing []string

	for _, def := range defs {
		header, mapped := m[def.Name]
		switch {
		case mapped && strings.TrimSpace(row[header]) != "":
			values[def.Name] = CoerceAttribute(def.Type, row[header])
		case !mapped && def.Required:
			values[def.Name] = CoerceAttribute(def.Type, def.DefaultValue)
		}

		if !def.Required {
			continue
		}
		if v, ok := values[def.Name]; !ok || v.Missing() {
			missing = append(missing, def.Name)
		}
	}
	return values, missing
}
