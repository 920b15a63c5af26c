package service

import (
	"context"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/util"

	"go.uber.org/zap"
)

// Attribute families
const (
	FamilyApparelSize  = "apparel_size"
	FamilyFootwearSize = "footwear_size"
	FamilyHardwareSize = "hardware_size"
	FamilyColor        = "color"
	FamilyGender       = "gender"
	FamilySport        = "sport"
	FamilyOutlet       = "outlet"
	FamilyKind         = "kind"
)

// AttributeNormalizer turns vendor-coded raw attributes into canonical option assignments.
// It owns the product_options rows of every family it normalizes.
type AttributeNormalizer struct {
	repo     Repository
	resolver *VariantResolver
	logger   *zap.Logger
}

// NewAttributeNormalizer creates a new attribute normalizer
func NewAttributeNormalizer(repo Repository, resolver *VariantResolver) *AttributeNormalizer {
	return &AttributeNormalizer{
		repo:     repo,
		resolver: resolver,
		logger:   util.GetLogger(),
	}
}

// rawAttributes is a product's current assignments, read once per family pass
type rawAttributes []models.ProductOptionView

func (r rawAttributes) variant(code string) *models.OptionVariant {
	return models.OptionValue(r, code)
}

func (r rawAttributes) valueRu(code string) string {
	if v := r.variant(code); v != nil {
		return v.ValueRu
	}
	return ""
}

func (r rawAttributes) valueUa(code string) string {
	if v := r.variant(code); v != nil {
		return v.ValueUa
	}
	return ""
}

// NormalizeAll runs every family for one product in a single transaction
func (n *AttributeNormalizer) NormalizeAll(ctx context.Context, product *models.Product) error {
	ctx, span := util.StartSpan(ctx, "AttributeNormalizer.NormalizeAll")
	defer span.End()

	return n.repo.RunInTx(ctx, func(ctx context.Context) error {
		steps := []func(context.Context, *models.Product) error{
			n.NormalizeKind,
			n.NormalizeSize,
			n.NormalizeColor,
			n.NormalizeGender,
			n.NormalizeSport,
			n.NormalizeOutlet,
		}
		for _, step := range steps {
			if err := step(ctx, product); err != nil {
				return err
			}
		}
		return nil
	})
}

// NormalizeKind maps the vendor kind to a category and a canonical kind assignment
func (n *AttributeNormalizer) NormalizeKind(ctx context.Context, product *models.Product) error {
	defer observeFamily(FamilyKind, time.Now())

	return n.repo.RunInTx(ctx, func(ctx context.Context) error {
		raw, err := n.loadAttributes(ctx, product)
		if err != nil {
			return err
		}

		original := models.FindOption(raw, models.OptionCodeOriginalKind)
		if original == nil {
			return nil
		}

		kindOption, err := n.option(ctx, product, models.OptionCodeKind)
		if err != nil || kindOption == nil {
			return err
		}

		rel, err := n.repo.GetCategoryRelation(ctx, original.VariantID)
		if err != nil {
			return fmt.Errorf("failed to get category relation: %w", err)
		}
		if rel == nil || rel.CategoryID == nil || rel.VariantID == nil {
			n.warnUnmapped(product, FamilyKind, original.VariantValUa)
			return nil
		}

		if err := n.repo.UpdateCategory(ctx, product.ID, *rel.CategoryID); err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		product.CategoryID = rel.CategoryID

		if err := n.repo.DeleteProductOptions(ctx, product.ID, kindOption.ID); err != nil {
			return fmt.Errorf("failed to delete kind option: %w", err)
		}
		return n.repo.CreateProductOptions(ctx, []models.ProductOption{
			n.assignment(product, kindOption, models.OptionVariant{ID: *rel.VariantID}),
		})
	})
}

// NormalizeColor resolves the vendor color into zero or more canonical color facets
func (n *AttributeNormalizer) NormalizeColor(ctx context.Context, product *models.Product) error {
	defer observeFamily(FamilyColor, time.Now())

	return n.repo.RunInTx(ctx, func(ctx context.Context) error {
		option, err := n.option(ctx, product, models.OptionCodeColor)
		if err != nil || option == nil {
			return err
		}

		raw, err := n.loadAttributes(ctx, product)
		if err != nil {
			return err
		}
		sourceColor := raw.valueRu(models.OptionCodeOriginalColor)

		variants, err := n.resolver.ResolveAll(ctx, option, sourceColor, Hints{})
		if err != nil {
			return err
		}
		if sourceColor != "" && len(variants) == 0 {
			n.warnUnmapped(product, FamilyColor, sourceColor)
		}

		if err := n.repo.DeleteProductOptions(ctx, product.ID, option.ID); err != nil {
			return fmt.Errorf("failed to delete color options: %w", err)
		}

		assignments := make([]models.ProductOption, 0, len(variants))
		for _, v := range variants {
			assignments = append(assignments, n.assignment(product, option, v))
		}
		return n.repo.CreateProductOptions(ctx, assignments)
	})
}

// NormalizeGender replaces the canonical gender assignment
func (n *AttributeNormalizer) NormalizeGender(ctx context.Context, product *models.Product) error {
	defer observeFamily(FamilyGender, time.Now())

	return n.repo.RunInTx(ctx, func(ctx context.Context) error {
		option, err := n.option(ctx, product, models.OptionCodeGender)
		if err != nil || option == nil {
			return err
		}

		raw, err := n.loadAttributes(ctx, product)
		if err != nil {
			return err
		}
		sourceGender := raw.valueRu(models.OptionCodeOriginalGender)

		variant, err := n.resolver.Resolve(ctx, option, sourceGender, Hints{})
		if err != nil {
			return err
		}
		if sourceGender != "" && variant == nil {
			n.warnUnmapped(product, FamilyGender, sourceGender)
		}

		return n.replace(ctx, product, option, nil, variant)
	})
}

// NormalizeSport assigns the primary sport and the optional additional sport
func (n *AttributeNormalizer) NormalizeSport(ctx context.Context, product *models.Product) error {
	defer observeFamily(FamilySport, time.Now())

	return n.repo.RunInTx(ctx, func(ctx context.Context) error {
		option, err := n.option(ctx, product, models.OptionCodeSport)
		if err != nil || option == nil {
			return err
		}

		raw, err := n.loadAttributes(ctx, product)
		if err != nil {
			return err
		}
		group := raw.valueRu(models.OptionCodeOriginalSport)
		kind := raw.valueRu(models.OptionCodeOriginalKind)

		primary, additional, err := n.resolver.ResolvePair(ctx, option, group, Hints{Kind: kind})
		if err != nil {
			return err
		}
		if group != "" && primary == nil {
			n.warnUnmapped(product, FamilySport, group)
		}

		if err := n.repo.DeleteProductOptions(ctx, product.ID, option.ID); err != nil {
			return fmt.Errorf("failed to delete sport options: %w", err)
		}

		var assignments []models.ProductOption
		if primary != nil {
			assignments = append(assignments, n.assignment(product, option, *primary))
		}
		if additional != nil && (primary == nil || additional.ID != primary.ID) {
			assignments = append(assignments, n.assignment(product, option, *additional))
		}
		return n.repo.CreateProductOptions(ctx, assignments)
	})
}

// NormalizeOutlet classifies the product as outlet or regular from its stock distribution
func (n *AttributeNormalizer) NormalizeOutlet(ctx context.Context, product *models.Product) error {
	defer observeFamily(FamilyOutlet, time.Now())

	return n.repo.RunInTx(ctx, func(ctx context.Context) error {
		option, err := n.option(ctx, product, models.OptionCodeOutlet)
		if err != nil || option == nil {
			return err
		}

		if err := n.repo.DeleteProductOptions(ctx, product.ID, option.ID); err != nil {
			return fmt.Errorf("failed to delete outlet option: %w", err)
		}

		outlet, regular, err := n.repo.StockDistribution(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("failed to get stock distribution: %w", err)
		}

		code := models.OutletVariantRegular
		if outlet > 0 && regular == 0 {
			code = models.OutletVariantOutlet
		}

		variant, err := n.repo.GetVariantByCode(ctx, option.ID, code)
		if err != nil {
			return fmt.Errorf("failed to get outlet variant: %w", err)
		}
		if variant == nil {
			n.warnMissing(product, FamilyOutlet, "variant "+code)
			return nil
		}

		po := n.assignment(product, option, *variant)
		po.IsVisible = false
		po.IsTop = false
		po.IsFilter = true
		return n.repo.CreateProductOptions(ctx, []models.ProductOption{po})
	})
}

// SyncFilterable mirrors the product's sellable state on all of its assignments
func (n *AttributeNormalizer) SyncFilterable(ctx context.Context, product *models.Product) error {
	ctx, span := util.StartSpan(ctx, "AttributeNormalizer.SyncFilterable")
	defer span.End()

	if err := n.repo.SetFilterable(ctx, product.ID, product.Sellable()); err != nil {
		return fmt.Errorf("failed to sync filterable flag: %w", err)
	}
	return nil
}

// replace destroys the option's assignments and creates the given ones
func (n *AttributeNormalizer) replace(ctx context.Context, product *models.Product, option *models.Option, adjunct *models.Option, variant *models.OptionVariant) error {
	ids := []int64{option.ID}
	if adjunct != nil {
		ids = append(ids, adjunct.ID)
	}
	if err := n.repo.DeleteProductOptions(ctx, product.ID, ids...); err != nil {
		return fmt.Errorf("failed to delete %s options: %w", option.Code, err)
	}
	if variant == nil {
		return nil
	}
	return n.repo.CreateProductOptions(ctx, []models.ProductOption{n.assignment(product, option, *variant)})
}

// assignment builds a visible, filterable assignment inheriting the sellable state
func (n *AttributeNormalizer) assignment(product *models.Product, option *models.Option, variant models.OptionVariant) models.ProductOption {
	return models.ProductOption{
		ProductID:  product.ID,
		OptionID:   option.ID,
		VariantID:  variant.ID,
		GroupID:    variant.GroupID,
		CategoryID: product.CategoryID,
		IsVisible:  true,
		IsTop:      false,
		IsFilter:   true,
		Filterable: product.Sellable(),
	}
}

func (n *AttributeNormalizer) loadAttributes(ctx context.Context, product *models.Product) (rawAttributes, error) {
	options, err := n.repo.GetProductOptions(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product options: %w", err)
	}
	return rawAttributes(options), nil
}

// option loads reference data. A missing option turns the family into a no-op.
func (n *AttributeNormalizer) option(ctx context.Context, product *models.Product, code string) (*models.Option, error) {
	option, err := n.repo.GetOptionByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get option %s: %w", code, err)
	}
	if option == nil {
		n.warnMissing(product, code, "option "+code)
	}
	return option, nil
}

func (n *AttributeNormalizer) warnUnmapped(product *models.Product, family, raw string) {
	util.AttributesUnmappedTotal.WithLabelValues(family).Inc()
	n.logger.Warn("Unmapped attribute value",
		zap.Int64("product_id", product.ID),
		zap.String("product_code", product.Code),
		zap.String("family", family),
		zap.String("raw_value", raw),
		zap.Error(&UnmappedAttributeError{Family: family, RawValue: raw}))
}

func (n *AttributeNormalizer) warnMissing(product *models.Product, family, what string) {
	n.logger.Warn("Missing reference data",
		zap.Int64("product_id", product.ID),
		zap.String("product_code", product.Code),
		zap.String("family", family),
		zap.String("missing", what),
		zap.Error(ErrMissingPrerequisite))
}

func observeFamily(family string, start time.Time) {
	util.NormalizationLatency.WithLabelValues(family).Observe(time.Since(start).Seconds())
}
