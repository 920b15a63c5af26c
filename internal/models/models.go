package models

import "time"

// Product represents a sellable item in the catalog
type Product struct {
	ID         int64     `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Reference  string    `db:"reference" json:"reference"`
	Style      string    `db:"style" json:"style"`
	Model      string    `db:"model" json:"model"`
	VendorCode string    `db:"vendor_code" json:"vendor_code"`
	BrandID    *int64    `db:"brand_id" json:"brand_id"`
	CategoryID *int64    `db:"category_id" json:"category_id"`
	SeriesID   *int64    `db:"series_id" json:"series_id"`
	NameRu     string    `db:"name_ru" json:"name_ru"`
	NameUa     string    `db:"name_ua" json:"name_ua"`
	Weight     float64   `db:"weight" json:"weight"`
	Width      float64   `db:"width" json:"width"`
	Height     float64   `db:"height" json:"height"`
	Length     float64   `db:"length" json:"length"`
	Price      float64   `db:"price" json:"price"`
	OldPrice   float64   `db:"old_price" json:"old_price"`
	PromoPrice float64   `db:"promo_price" json:"promo_price"`
	InStock    bool      `db:"in_stock" json:"in_stock"`
	OutOfStock bool      `db:"out_of_stock" json:"out_of_stock"`
	Active     bool      `db:"active" json:"active"`
	Disabled   bool      `db:"disabled" json:"disabled"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Option is a canonical attribute family (size, color, gender...)
type Option struct {
	ID     int64  `db:"id" json:"id"`
	Code   string `db:"code" json:"code"`
	NameRu string `db:"name_ru" json:"name_ru"`
	NameUa string `db:"name_ua" json:"name_ua"`
}

// OptionVariant is a canonical value within an option
type OptionVariant struct {
	ID       int64  `db:"id" json:"id"`
	OptionID int64  `db:"option_id" json:"option_id"`
	Code     string `db:"code" json:"code"`
	ValueRu  string `db:"value_ru" json:"value_ru"`
	ValueUa  string `db:"value_ua" json:"value_ua"`
	GroupID  *int64 `db:"group_id" json:"group_id,omitempty"`
}

// ProductOption assigns one canonical (option, variant) pair to a product
type ProductOption struct {
	ID         int64  `db:"id" json:"id"`
	ProductID  int64  `db:"product_id" json:"product_id"`
	OptionID   int64  `db:"option_id" json:"option_id"`
	VariantID  int64  `db:"variant_id" json:"variant_id"`
	GroupID    *int64 `db:"group_id" json:"group_id,omitempty"`
	CategoryID *int64 `db:"category_id" json:"category_id,omitempty"`
	IsVisible  bool   `db:"is_visible" json:"is_visible"`
	IsTop      bool   `db:"is_top" json:"is_top"`
	IsFilter   bool   `db:"is_filter" json:"is_filter"`
	Filterable bool   `db:"filterable" json:"filterable"`
}

// ProductOptionView is a product option joined with its option code and variant values
type ProductOptionView struct {
	ProductOption
	OptionCode   string `db:"option_code" json:"option_code"`
	VariantCode  string `db:"variant_code" json:"variant_code"`
	VariantValRu string `db:"variant_value_ru" json:"variant_value_ru"`
	VariantValUa string `db:"variant_value_ua" json:"variant_value_ua"`
}

// Variant returns the joined variant of the assignment
func (v ProductOptionView) Variant() OptionVariant {
	return OptionVariant{
		ID:       v.VariantID,
		OptionID: v.OptionID,
		Code:     v.VariantCode,
		ValueRu:  v.VariantValRu,
		ValueUa:  v.VariantValUa,
		GroupID:  v.GroupID,
	}
}

// VariantMapping maps a raw vendor value to a canonical variant.
// Empty Brand, Gender or Kind match any value.
type VariantMapping struct {
	ID             int64  `db:"id" json:"id"`
	OptionID       int64  `db:"option_id" json:"option_id"`
	RawValue       string `db:"raw_value" json:"raw_value"`
	Brand          string `db:"brand" json:"brand"`
	Gender         string `db:"gender" json:"gender"`
	Kind           string `db:"kind" json:"kind"`
	VariantID      int64  `db:"variant_id" json:"variant_id"`
	ExtraVariantID *int64 `db:"extra_variant_id" json:"extra_variant_id,omitempty"`
}

// Category is a node of the category tree
type Category struct {
	ID       int64  `db:"id" json:"id"`
	ParentID *int64 `db:"parent_id" json:"parent_id"`
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
}

// CategoryRelation maps an original vendor kind variant to a category and kind variant
type CategoryRelation struct {
	ID                int64  `db:"id"`
	OriginalVariantID int64  `db:"original_variant_id"`
	CategoryID        *int64 `db:"category_id"`
	VariantID         *int64 `db:"variant_id"`
}

// Series groups colorway and size variants of one logical item
type Series struct {
	ID        int64     `db:"id" json:"id"`
	Model     string    `db:"model" json:"model"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Store is a physical or virtual stock location
type Store struct {
	ID              int64  `db:"id" json:"id"`
	Code            string `db:"code" json:"code"`
	Enabled         bool   `db:"enabled" json:"enabled"`
	EnabledForOrder bool   `db:"enabled_for_order" json:"enabled_for_order"`
	IsOutlet        bool   `db:"is_outlet" json:"is_outlet"`
}

// SiteProductQuantity is the stock of a product in one store
type SiteProductQuantity struct {
	ProductID int64 `db:"product_id" json:"product_id"`
	StoreID   int64 `db:"store_id" json:"store_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
}

// ProductPrice is the price of a product in one store
type ProductPrice struct {
	ProductID int64    `db:"product_id" json:"product_id"`
	StoreID   int64    `db:"store_id" json:"store_id"`
	Price     *float64 `db:"price" json:"price"`
	OldPrice  *float64 `db:"old_price" json:"old_price"`
}

// ProductPicture is an image attached to a product
type ProductPicture struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	URL       string `db:"url" json:"url"`
	Position  int    `db:"position" json:"position"`
}

// ProductCard is the display model returned for analogs
type ProductCard struct {
	Product
	ActionStatus *string          `db:"action_status" json:"action_status,omitempty"`
	Images       []ProductPicture `db:"-" json:"images"`
}

// Product visibility modes
const (
	VisibilityAll     = "ALL"
	VisibilityInStock = "IN_STOCK"
)
