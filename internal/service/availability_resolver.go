package service

import (
	"context"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/util"

	"go.uber.org/zap"
)

// minSellablePrice is the smallest price a product can be sold or shown at
const minSellablePrice = 1

// AvailabilityConfig is the immutable configuration of the availability resolver
type AvailabilityConfig struct {
	// Visibility is VisibilityAll to force every product visible, or VisibilityInStock
	Visibility string
}

// AvailabilityResolver aggregates store stock and prices into the product's sellable state.
// It owns the price and availability columns of products.
type AvailabilityResolver struct {
	repo   Repository
	cfg    AvailabilityConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewAvailabilityResolver creates a new availability resolver
func NewAvailabilityResolver(repo Repository, cfg AvailabilityConfig) *AvailabilityResolver {
	return &AvailabilityResolver{
		repo:   repo,
		cfg:    cfg,
		now:    time.Now,
		logger: util.GetLogger(),
	}
}

// ComputePrice aggregates store prices into price, old price and promo price
func (r *AvailabilityResolver) ComputePrice(ctx context.Context, product *models.Product) error {
	ctx, span := util.StartSpan(ctx, "AvailabilityResolver.ComputePrice")
	defer span.End()

	storeIDs, err := r.repo.StockedOrderStoreIDs(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to get stocked stores: %w", err)
	}
	if len(storeIDs) == 0 {
		if storeIDs, err = r.repo.OrderStoreIDs(ctx); err != nil {
			return fmt.Errorf("failed to get order stores: %w", err)
		}
	}

	maxPrice, maxOldPrice, err := r.repo.MaxPrices(ctx, product.ID, storeIDs)
	if err != nil {
		return fmt.Errorf("failed to aggregate prices: %w", err)
	}

	price := firstPositive(maxPrice, maxOldPrice)
	oldPrice := firstPositive(maxOldPrice, maxPrice)
	if price == 0 && oldPrice == 0 {
		r.logger.Debug("No store price, keeping current prices",
			zap.Int64("product_id", product.ID),
			zap.String("product_code", product.Code))
		return nil
	}

	promoPrice := price
	action, err := r.repo.GetActiveAction(ctx, product.ID, r.now())
	if err != nil {
		return fmt.Errorf("failed to get active action: %w", err)
	}
	if action != nil && action.IsActive(r.now()) {
		promoPrice = action.ProductPrice(price)
		if promoPrice == 0 {
			promoPrice = oldPrice
		}
	}

	if err := r.repo.UpdatePrices(ctx, product.ID, price, oldPrice, promoPrice); err != nil {
		return fmt.Errorf("failed to update prices: %w", err)
	}

	product.Price = price
	product.OldPrice = oldPrice
	product.PromoPrice = promoPrice
	return nil
}

// ComputeAvailability derives in-stock and active flags and persists them together.
// Filterable flags must be synced afterwards.
func (r *AvailabilityResolver) ComputeAvailability(ctx context.Context, product *models.Product) error {
	ctx, span := util.StartSpan(ctx, "AvailabilityResolver.ComputeAvailability")
	defer span.End()

	if r.cfg.Visibility == models.VisibilityAll {
		if err := r.repo.ForceVisible(ctx, product.ID); err != nil {
			return fmt.Errorf("failed to force visibility: %w", err)
		}
		product.InStock = true
		product.Active = true
		product.Disabled = false
		product.OutOfStock = false
		util.AvailabilityChangesTotal.WithLabelValues("forced").Inc()
		return nil
	}

	active := true
	switch {
	case product.BrandID == nil:
		active = false
	case product.CategoryID == nil:
		active = false
	case product.Price < minSellablePrice:
		active = false
	default:
		pictures, err := r.repo.CountPictures(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("failed to count pictures: %w", err)
		}
		active = pictures > 0
	}

	quantity, err := r.repo.OrderableQuantity(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to get orderable quantity: %w", err)
	}
	inStock := quantity > 0 && product.Price > minSellablePrice

	if err := r.repo.UpdateAvailability(ctx, product.ID, inStock, active); err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}

	product.InStock = inStock
	product.Active = active

	outcome := "unavailable"
	if product.Sellable() {
		outcome = "sellable"
	}
	util.AvailabilityChangesTotal.WithLabelValues(outcome).Inc()
	return nil
}

// firstPositive returns the first non-zero value, or 0
func firstPositive(values ...*float64) float64 {
	for _, v := range values {
		if v != nil && *v != 0 {
			return *v
		}
	}
	return 0
}
