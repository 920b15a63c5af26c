package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/store"
)

var (
	// ErrUnmappedAttribute marks a raw vendor value without a canonical counterpart
	ErrUnmappedAttribute = errors.New("unmapped attribute")

	// ErrMissingPrerequisite marks an absent related entity (option, category, brand)
	ErrMissingPrerequisite = errors.New("missing prerequisite")
)

// UnmappedAttributeError describes one unresolved raw value
type UnmappedAttributeError struct {
	Family   string
	RawValue string
}

func (e *UnmappedAttributeError) Error() string {
	return fmt.Sprintf("%s: %s=%q", ErrUnmappedAttribute, e.Family, e.RawValue)
}

func (e *UnmappedAttributeError) Unwrap() error {
	return ErrUnmappedAttribute
}

// MappingSource looks up vendor value mappings and the variants they point to
type MappingSource interface {
	FindVariantMappings(ctx context.Context, optionID int64, key models.MappingKey) ([]models.VariantMapping, error)
	GetVariants(ctx context.Context, ids []int64) ([]models.OptionVariant, error)
}

// Repository is the persistence contract of the catalog engine.
// Calls made inside RunInTx share one transaction through ctx.
type Repository interface {
	MappingSource

	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	FindProduct(ctx context.Context, filters ...store.Filter) (*models.Product, error)
	FindAnalogIDs(ctx context.Context, filters ...store.Filter) ([]int64, error)
	GetProductCards(ctx context.Context, ids []int64, limit int) ([]models.ProductCard, error)
	DeleteProduct(ctx context.Context, productID int64) error

	UpdatePrices(ctx context.Context, productID int64, price, oldPrice, promoPrice float64) error
	UpdateAvailability(ctx context.Context, productID int64, inStock, active bool) error
	ForceVisible(ctx context.Context, productID int64) error
	UpdateCategory(ctx context.Context, productID, categoryID int64) error
	UpdateSeries(ctx context.Context, productID, seriesID int64) error
	UpdateNames(ctx context.Context, productID int64, nameRu, nameUa string) error

	OrderStoreIDs(ctx context.Context) ([]int64, error)
	StockedOrderStoreIDs(ctx context.Context, productID int64) ([]int64, error)
	MaxPrices(ctx context.Context, productID int64, storeIDs []int64) (*float64, *float64, error)
	OrderableQuantity(ctx context.Context, productID int64) (int, error)
	StockDistribution(ctx context.Context, productID int64) (int, int, error)
	CountPictures(ctx context.Context, productID int64) (int, error)
	GetActiveAction(ctx context.Context, productID int64, now time.Time) (*models.Action, error)

	GetOptionByCode(ctx context.Context, code string) (*models.Option, error)
	GetVariantByCode(ctx context.Context, optionID int64, code string) (*models.OptionVariant, error)
	GetProductOptions(ctx context.Context, productID int64) ([]models.ProductOptionView, error)
	DeleteProductOptions(ctx context.Context, productID int64, optionIDs ...int64) error
	CreateProductOptions(ctx context.Context, options []models.ProductOption) error
	SetFilterable(ctx context.Context, productID int64, filterable bool) error

	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	GetCategoryByCode(ctx context.Context, code string) (*models.Category, error)
	GetCategoryRelation(ctx context.Context, originalVariantID int64) (*models.CategoryRelation, error)
	FindOrCreateSeries(ctx context.Context, model string) (*models.Series, error)
}

// Searcher is the external full-text index
type Searcher interface {
	Search(ctx context.Context, text string) (*models.SearchResponse, error)
}

// Indexer keeps the search index in sync with normalized products
type Indexer interface {
	IndexProduct(ctx context.Context, doc models.SearchDocument) error
}

// SearchCache stores ranked search results for a short time
type SearchCache interface {
	GetSearchResult(ctx context.Context, key string) (*models.SearchResult, error)
	SetSearchResult(ctx context.Context, key string, result *models.SearchResult) error
}
