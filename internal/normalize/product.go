package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"productmap/internal/mapping"

	"github.com/shopspring/decimal"
)

// ProductRecord is a validated catalog row.
type ProductRecord struct {
	Row         int
	Title       string
	EAN         string
	MPN         string
	ASIN        string
	UPC         string
	Brand       string
	Category    string
	SalePrice   decimal.Decimal
	BuyBoxPrice decimal.Decimal
	AmazonFee   decimal.Decimal
	FBAFees     decimal.Decimal
	ReferralFee decimal.Decimal
	UnitsSold   int
	Rating      float64
	ReviewCount int
	Attributes  Attributes
}

// ProductResult is the outcome of NormalizeProducts.
type ProductResult struct {
	Records  []ProductRecord
	Rejected []RowError
	// Duplicates counts rows dropped because a later row carried the same EAN.
	Duplicates int
}

// NormalizeProducts converts catalog rows. Title, EAN, brand and sale price
// are required. When two rows share an EAN the later one wins.
func NormalizeProducts(rows []RawRow, m mapping.FieldMapping, attrs []AttributeDef) ProductResult {
	var res ProductResult

	cell := func(row RawRow, field string) string {
		header, ok := m[field]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[header])
	}
	price := func(row RawRow, field string) decimal.Decimal {
		d, _ := ParsePrice(cell(row, field))
		return d
	}

	byEAN := make(map[string]int)
	for i, row := range rows {
		rowNum := i + 1
		rec := ProductRecord{
			Row:         rowNum,
			Title:       cell(row, mapping.ProductTitle),
			EAN:         NormalizeEAN(cell(row, mapping.ProductEAN)),
			MPN:         FixScientificNotation(cell(row, mapping.ProductMPN)),
			ASIN:        cell(row, mapping.ProductASIN),
			UPC:         FixScientificNotation(cell(row, mapping.ProductUPC)),
			Brand:       cell(row, mapping.ProductBrand),
			Category:    cell(row, mapping.ProductCategory),
			BuyBoxPrice: price(row, mapping.ProductBuyBoxPrice),
			AmazonFee:   price(row, mapping.ProductAmazonFee),
			FBAFees:     price(row, mapping.ProductFBAFees),
			ReferralFee: price(row, mapping.ProductReferralFee),
		}
		rec.UnitsSold, _ = ParseInt(cell(row, mapping.ProductUnitsSold))
		rec.ReviewCount, _ = ParseInt(cell(row, mapping.ProductReviewCount))
		if f, err := strconv.ParseFloat(cell(row, mapping.ProductRating), 64); err == nil {
			rec.Rating = f
		}

		salePrice, ok := ParsePrice(cell(row, mapping.ProductSalePrice))
		rec.SalePrice = salePrice

		var missing []string
		if rec.Title == "" {
			missing = append(missing, "title")
		}
		if rec.EAN == "" {
			missing = append(missing, "ean")
		}
		if rec.Brand == "" {
			missing = append(missing, "brand")
		}
		if !ok {
			missing = append(missing, "sale_price")
		}

		attrValues, missingAttrs := collectAttributes(row, m, attrs)
		rec.Attributes = attrValues
		missing = append(missing, missingAttrs...)

		if len(missing) > 0 {
			res.Rejected = append(res.Rejected, RowError{
				Row:    rowNum,
				Reason: fmt.Sprintf("missing required field(s): %s", strings.Join(missing, ", ")),
			})
			continue
		}

		if idx, seen := byEAN[rec.EAN]; seen {
			res.Records[idx] = rec
			res.Duplicates++
			continue
		}
		byEAN[rec.EAN] = len(res.Records)
		res.Records = append(res.Records, rec)
	}
	return res
}
