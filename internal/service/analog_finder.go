package service

import (
	"context"
	"fmt"
	"strconv"

	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/util"

	"go.uber.org/zap"
)

// AnalogConfig holds the ascending price tolerance bands
type AnalogConfig struct {
	Bands []float64
}

// DefaultAnalogBands are the first, second and third price variations
var DefaultAnalogBands = []float64{0.05, 0.10, 0.20}

// AnalogFinder finds substitute products in other series
type AnalogFinder struct {
	repo   Repository
	bands  []float64
	logger *zap.Logger
}

// NewAnalogFinder creates a new analog finder
func NewAnalogFinder(repo Repository, cfg AnalogConfig) *AnalogFinder {
	bands := cfg.Bands
	if len(bands) == 0 {
		bands = DefaultAnalogBands
	}
	return &AnalogFinder{
		repo:   repo,
		bands:  bands,
		logger: util.GetLogger(),
	}
}

// FindAnalogs returns one product id per series matching the reference within the band
func (f *AnalogFinder) FindAnalogs(ctx context.Context, product *models.Product, band float64) ([]int64, error) {
	ctx, span := util.StartSpan(ctx, "AnalogFinder.FindAnalogs")
	defer span.End()

	gender, err := f.genderVariant(ctx, product)
	if err != nil {
		return nil, err
	}
	return f.find(ctx, product, gender, band)
}

// GetDefaultAnalogs widens the band until enough candidates are found and loads their cards
func (f *AnalogFinder) GetDefaultAnalogs(ctx context.Context, product *models.Product, limit int) ([]models.ProductCard, error) {
	ctx, span := util.StartSpan(ctx, "AnalogFinder.GetDefaultAnalogs")
	defer span.End()

	if product.CategoryID == nil || limit <= 0 {
		return []models.ProductCard{}, nil
	}

	gender, err := f.genderVariant(ctx, product)
	if err != nil {
		return nil, err
	}

	var ids []int64
	var chosen float64
	for _, band := range f.bands {
		chosen = band
		if ids, err = f.find(ctx, product, gender, band); err != nil {
			return nil, err
		}
		if len(ids) >= limit {
			break
		}
	}

	util.AnalogBandsTotal.WithLabelValues(strconv.FormatFloat(chosen, 'f', -1, 64)).Inc()
	f.logger.Debug("Analog candidates found",
		zap.String("product_code", product.Code),
		zap.Float64("band", chosen),
		zap.Int("count", len(ids)))

	cards, err := f.repo.GetProductCards(ctx, ids, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load analog cards: %w", err)
	}
	return cards, nil
}

func (f *AnalogFinder) find(ctx context.Context, product *models.Product, gender *int64, band float64) ([]int64, error) {
	if product.CategoryID == nil {
		return []int64{}, nil
	}

	filters := []store.Filter{
		store.Sellable(),
		store.InCategory(*product.CategoryID),
		store.OutsideSeries(product.SeriesID),
		store.PriceBetween(product.Price*(1-band), product.Price*(1+band)),
	}
	if gender != nil {
		filters = append(filters, store.HasVariant(*gender))
	}

	ids, err := f.repo.FindAnalogIDs(ctx, filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to find analogs: %w", err)
	}
	return ids, nil
}

// genderVariant returns the reference product's gender variant id, or nil
func (f *AnalogFinder) genderVariant(ctx context.Context, product *models.Product) (*int64, error) {
	options, err := f.repo.GetProductOptions(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product options: %w", err)
	}
	if po := models.FindOption(options, models.OptionCodeGender); po != nil {
		id := po.VariantID
		return &id, nil
	}
	return nil, nil
}
