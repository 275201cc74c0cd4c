package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supplier is a vendor, unique by name within a tenant.
type Supplier struct {
	BaseTenantModel
	Name             string  `gorm:"size:255;not null" json:"name"`
	CustomAttributes JSONMap `gorm:"type:jsonb;default:'{}'" json:"custom_attributes"`
}

// Product is a catalog entry, unique by EAN within a tenant.
type Product struct {
	BaseTenantModel
	Title            string              `gorm:"type:text;not null;index" json:"title"`
	EAN              string              `gorm:"column:ean;size:64;not null" json:"ean"`
	MPN              string              `gorm:"column:mpn;size:128;index" json:"mpn"`
	ASIN             string              `gorm:"column:asin;size:32" json:"asin"`
	UPC              string              `gorm:"column:upc;size:32" json:"upc"`
	Brand            string              `gorm:"size:255;not null" json:"brand"`
	Category         string              `gorm:"size:255" json:"category"`
	SalePrice        decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"sale_price" swaggertype:"number"`
	BuyBoxPrice      decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"buy_box_price" swaggertype:"number"`
	AmazonFee        decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"amazon_fee" swaggertype:"number"`
	FBAFees          decimal.NullDecimal `gorm:"column:fba_fees;type:numeric(12,2)" json:"fba_fees" swaggertype:"number"`
	ReferralFee      decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"referral_fee" swaggertype:"number"`
	UnitsSold        int                 `gorm:"default:0" json:"units_sold"`
	Rating           float64             `gorm:"default:0" json:"rating"`
	ReviewCount      int                 `gorm:"default:0" json:"review_count"`
	CustomAttributes JSONMap             `gorm:"type:jsonb;default:'{}'" json:"custom_attributes"`
}

// SupplierProduct links a supplier to a catalog product with the supplier's
// terms. (SupplierID, ProductID) is unique; re-imports overwrite.
type SupplierProduct struct {
	BaseTenantModel
	SupplierID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	EAN              string          `gorm:"column:ean;size:64" json:"ean"`
	MPN              string          `gorm:"column:mpn;size:128" json:"mpn"`
	ProductName      string          `gorm:"type:text" json:"product_name"`
	Brand            string          `gorm:"size:255" json:"brand"`
	Cost             decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cost" swaggertype:"number"`
	MOQ              int             `gorm:"column:moq;default:1" json:"moq"`
	LeadTime         string          `gorm:"size:100;default:'3 days'" json:"lead_time"`
	PaymentTerms     string          `gorm:"size:100;default:'Net 30'" json:"payment_terms"`
	SupplierStock    *int            `json:"supplier_stock"`
	MatchMethod      string          `gorm:"size:16;index" json:"match_method"`
	CustomAttributes JSONMap         `gorm:"type:jsonb;default:'{}'" json:"custom_attributes"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE" json:"supplier,omitempty"`
	Product  *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
}

// Defaults applied when a supplier row leaves the field empty.
const (
	DefaultMOQ          = 1
	DefaultLeadTime     = "3 days"
	DefaultPaymentTerms = "Net 30"
)

// CostRange is the cheapest and most expensive offer of a supplier.
type CostRange struct {
	MinCost decimal.Decimal `json:"min_cost" swaggertype:"number"`
	MaxCost decimal.Decimal `json:"max_cost" swaggertype:"number"`
	Count   int64           `json:"count"`
}

// DuplicateReport is the outcome of a duplicate repair run.
type DuplicateReport struct {
	ProductPairsRemoved int64 `json:"product_pairs_removed"`
	EANPairsRemoved     int64 `json:"ean_pairs_removed"`
}
