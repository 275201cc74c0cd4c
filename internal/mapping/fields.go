package mapping

// Canonical supplier fields.
const (
	FieldSupplierName  = "Supplier Name"
	FieldEAN           = "EAN"
	FieldMPN           = "MPN"
	FieldProductName   = "Product Name"
	FieldCost          = "Cost"
	FieldMOQ           = "MOQ"
	FieldLeadTime      = "Lead Time"
	FieldPaymentTerms  = "Payment Terms"
	FieldBrand         = "Brand"
	FieldSupplierStock = "Supplier Stock"
)

// Canonical product (catalog) fields.
const (
	ProductTitle       = "title"
	ProductEAN         = "ean"
	ProductMPN         = "mpn"
	ProductASIN        = "asin"
	ProductUPC         = "upc"
	ProductBrand       = "brand"
	ProductCategory    = "category"
	ProductSalePrice   = "sale_price"
	ProductBuyBoxPrice = "buy_box_price"
	ProductAmazonFee   = "amazon_fee"
	ProductFBAFees     = "fba_fees"
	ProductReferralFee = "referral_fee"
	ProductUnitsSold   = "units_sold"
	ProductRating      = "rating"
	ProductReviewCount = "review_count"
)

// Field is one canonical target of the mapper. Synonyms are compared against
// normalized headers, so they must themselves be in normalized form.
type Field struct {
	Name     string
	Synonyms []string
	Required bool
	// CatchAll holds fragments checked in the last pass for headers that no
	// synonym claimed.
	CatchAll []string
}

// Table is an ordered list of fields. Declaration order breaks scoring ties.
type Table []Field

// SupplierTable is the synonym table for supplier cost files.
var SupplierTable = Table{
	{
		Name: FieldSupplierName,
		Synonyms: []string{
			"supplier_name", "supplier", "vendor", "vendor_name", "distributor",
			"wholesaler", "seller", "company", "company_name", "manufacturer_name",
		},
	},
	{
		Name: FieldEAN,
		Synonyms: []string{
			"ean", "barcode", "upc", "sku", "gtin", "asin", "ean13", "ean_code",
			"bar_code", "upc_code", "product_code",
		},
	},
	{
		Name: FieldMPN,
		Synonyms: []string{
			"mpn", "part_number", "manufacturer_part_number", "part_no", "mfr_part",
			"model_number", "model", "item_number", "item_code", "reference",
		},
	},
	{
		Name: FieldProductName,
		Synonyms: []string{
			"product_name", "title", "item_title", "item_name", "name", "description",
			"product_title", "product", "item_description",
		},
	},
	{
		Name:     FieldCost,
		Required: true,
		Synonyms: []string{
			"cost", "unit_cost", "price", "unit_price", "cost_price", "wholesale_price",
			"buy_price", "net_price", "trade_price", "supplier_cost", "purchase_price",
		},
	},
	{
		Name: FieldMOQ,
		Synonyms: []string{
			"moq", "minimum_order_quantity", "min_order_qty", "min_qty", "minimum_order",
		},
	},
	{
		Name: FieldLeadTime,
		Synonyms: []string{
			"lead_time", "leadtime", "delivery_time", "shipping_time", "lead_days",
		},
	},
	{
		Name: FieldPaymentTerms,
		Synonyms: []string{
			"payment_terms", "terms", "payment", "payment_term", "credit_terms",
		},
	},
	{
		Name:     FieldBrand,
		Synonyms: []string{"brand", "brand_name", "manufacturer", "make"},
		CatchAll: []string{"brand", "manufacturer"},
	},
	{
		Name:     FieldSupplierStock,
		Synonyms: []string{"supplier_stock", "stock", "stock_level", "inventory", "available"},
		CatchAll: []string{"stock", "inventory", "avail", "qty"},
	},
}

// SupplierIdentifierFields are the fields a supplier row can be matched on.
var SupplierIdentifierFields = []string{FieldEAN, FieldMPN, FieldProductName}

// ProductTable is the synonym table for catalog (Amazon export) files.
var ProductTable = Table{
	{Name: ProductTitle, Required: true, Synonyms: []string{"title", "product_name", "name", "product_title", "item_name"}},
	{Name: ProductEAN, Required: true, Synonyms: []string{"ean", "barcode", "ean13", "gtin", "ean_code"}},
	{Name: ProductMPN, Synonyms: []string{"mpn", "manufacturer_part_number", "part_number", "model_number"}},
	{Name: ProductASIN, Synonyms: []string{"asin"}},
	{Name: ProductUPC, Synonyms: []string{"upc", "upc_code"}},
	{Name: ProductBrand, Required: true, Synonyms: []string{"brand", "brand_name", "manufacturer"}, CatchAll: []string{"brand"}},
	{Name: ProductCategory, Synonyms: []string{"category", "categories", "root_category", "product_group"}},
	{Name: ProductSalePrice, Required: true, Synonyms: []string{"sale_price", "saleprice", "price", "selling_price", "current_price"}},
	{Name: ProductBuyBoxPrice, Synonyms: []string{"buy_box_price", "buybox_price", "buy_box"}},
	{Name: ProductAmazonFee, Synonyms: []string{"amazon_fee", "amazon_fees", "total_fees"}},
	{Name: ProductFBAFees, Synonyms: []string{"fba_fees", "fba_fee", "fulfillment_fee"}},
	{Name: ProductReferralFee, Synonyms: []string{"referral_fee", "referral_fees"}},
	{Name: ProductUnitsSold, Synonyms: []string{"units_sold", "monthly_units_sold", "monthly_sales", "sales_units"}},
	{Name: ProductRating, Synonyms: []string{"rating", "ratings", "stars", "review_rating"}},
	{Name: ProductReviewCount, Synonyms: []string{"review_count", "reviews", "number_of_reviews", "review_total"}},
}

// ExtraField is a tenant-defined attribute appended to a table at mapping time.
type ExtraField struct {
	Name     string
	Required bool
}

// With returns a copy of t with one field per extra attribute, each using its
// own normalized name as sole synonym. Extras whose normalized form is empty
// are skipped.
func (t Table) With(extras []ExtraField) Table {
	out := make(Table, len(t), len(t)+len(extras))
	copy(out, t)
	for _, e := range extras {
		key := NormalizeHeader(e.Name)
		if key == "" {
			continue
		}
		out = append(out, Field{Name: e.Name, Synonyms: []string{key}, Required: e.Required})
	}
	return out
}

// Field looks up a field by canonical name.
func (t Table) Field(name string) (Field, bool) {
	for _, f := range t {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
