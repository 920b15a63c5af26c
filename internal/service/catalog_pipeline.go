package service

import (
	"context"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher publishes catalog domain events
type EventPublisher interface {
	PublishProductNormalized(ctx context.Context, event *models.ProductNormalizedEvent) error
}

// CatalogPipeline runs the full normalization of one product
type CatalogPipeline struct {
	repo         Repository
	normalizer   *AttributeNormalizer
	availability *AvailabilityResolver
	indexer      Indexer
	publisher    EventPublisher
	logger       *zap.Logger
}

// NewCatalogPipeline creates a new catalog pipeline. indexer and publisher may be nil.
func NewCatalogPipeline(
	repo Repository,
	normalizer *AttributeNormalizer,
	availability *AvailabilityResolver,
	indexer Indexer,
	publisher EventPublisher,
) *CatalogPipeline {
	return &CatalogPipeline{
		repo:         repo,
		normalizer:   normalizer,
		availability: availability,
		indexer:      indexer,
		publisher:    publisher,
		logger:       util.GetLogger(),
	}
}

// Process normalizes, prices and indexes a product.
// Store writes share one transaction, indexing and the event follow the commit.
func (p *CatalogPipeline) Process(ctx context.Context, productID int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogPipeline.Process")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ProductProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	var product *models.Product
	err := p.repo.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if product, err = p.repo.GetProduct(ctx, productID); err != nil {
			return err
		}

		steps := []func(context.Context, *models.Product) error{
			p.AssignSeries,
			p.normalizer.NormalizeAll,
			p.InitNames,
			p.availability.ComputePrice,
			p.availability.ComputeAvailability,
		}
		for _, step := range steps {
			if err := step(ctx, product); err != nil {
				return err
			}
		}

		if product, err = p.repo.GetProduct(ctx, productID); err != nil {
			return err
		}
		return p.normalizer.SyncFilterable(ctx, product)
	})
	if err != nil {
		util.ProductsProcessedTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to process product %d: %w", productID, err)
	}
	util.ProductsProcessedTotal.WithLabelValues("success").Inc()

	p.index(ctx, product)
	p.publish(ctx, product)

	p.logger.Info("Product processed",
		zap.Int64("product_id", product.ID),
		zap.String("product_code", product.Code),
		zap.Float64("price", product.RoundedPrice()),
		zap.Bool("sellable", product.Sellable()))

	return product, nil
}

// Delete hard deletes a product and everything it owns
func (p *CatalogPipeline) Delete(ctx context.Context, productID int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogPipeline.Delete")
	defer span.End()

	if err := p.repo.DeleteProduct(ctx, productID); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", productID, err)
	}
	util.ProductsDeletedTotal.Inc()

	p.logger.Info("Product deleted", zap.Int64("product_id", productID))
	return nil
}

// AssignSeries links the product to the series of its model signature
func (p *CatalogPipeline) AssignSeries(ctx context.Context, product *models.Product) error {
	options, err := p.repo.GetProductOptions(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to load product options: %w", err)
	}
	attrs := rawAttributes(options)

	reference := product.Reference
	if reference == "" {
		reference = models.DeriveReference(product.Style, product.Model, product.Code)
	}

	signature := models.SeriesSignature(
		product.Model,
		attrs.valueRu(models.OptionCodeOriginalKind),
		attrs.valueRu(models.OptionCodeOriginalGender),
		reference,
		product.Code,
	)

	series, err := p.repo.FindOrCreateSeries(ctx, signature)
	if err != nil {
		return err
	}
	if product.SeriesID != nil && *product.SeriesID == series.ID {
		return nil
	}

	if err := p.repo.UpdateSeries(ctx, product.ID, series.ID); err != nil {
		return fmt.Errorf("failed to update series: %w", err)
	}
	product.SeriesID = &series.ID
	return nil
}

// InitNames composes localized display names from kind, brand, model and gender
func (p *CatalogPipeline) InitNames(ctx context.Context, product *models.Product) error {
	options, err := p.repo.GetProductOptions(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to load product options: %w", err)
	}
	attrs := rawAttributes(options)

	model := product.Model
	if model == "" {
		model = product.Style
	}

	nameRu := models.ComposeName(
		attrs.valueRu(models.OptionCodeKind),
		attrs.valueRu(models.OptionCodeBrand),
		model,
		attrs.valueRu(models.OptionCodeGender),
	)
	nameUa := models.ComposeName(
		attrs.valueUa(models.OptionCodeKind),
		attrs.valueUa(models.OptionCodeBrand),
		model,
		attrs.valueUa(models.OptionCodeGender),
	)

	if err := p.repo.UpdateNames(ctx, product.ID, nameRu, nameUa); err != nil {
		return fmt.Errorf("failed to update names: %w", err)
	}
	product.NameRu = nameRu
	product.NameUa = nameUa
	return nil
}

func (p *CatalogPipeline) index(ctx context.Context, product *models.Product) {
	if p.indexer == nil {
		return
	}

	options, err := p.repo.GetProductOptions(ctx, product.ID)
	if err != nil {
		p.logger.Warn("Failed to load options for indexing", zap.Int64("product_id", product.ID), zap.Error(err))
		return
	}

	doc := models.NewSearchDocument(product, models.OptionValue(options, models.OptionCodeSport))
	if err := p.indexer.IndexProduct(ctx, doc); err != nil {
		p.logger.Warn("Failed to index product",
			zap.String("product_code", product.Code),
			zap.Error(err))
	}
}

func (p *CatalogPipeline) publish(ctx context.Context, product *models.Product) {
	if p.publisher == nil {
		return
	}

	event := &models.ProductNormalizedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProductNormalized,
			Timestamp: time.Now(),
		},
		ProductID:  product.ID,
		Code:       product.Code,
		Price:      product.RoundedPrice(),
		PromoPrice: models.RoundPrice(product.PromoPrice),
		InStock:    product.InStock,
		Active:     product.Active,
	}

	if err := p.publisher.PublishProductNormalized(ctx, event); err != nil {
		p.logger.Warn("Failed to publish product normalized event",
			zap.String("product_code", product.Code),
			zap.Error(err))
	}
}
