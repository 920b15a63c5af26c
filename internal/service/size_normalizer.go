package service

import (
	"context"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/util"

	"go.uber.org/zap"
)

// maxCategoryDepth bounds the ancestry walk on a malformed tree
const maxCategoryDepth = 32

// sizeFamily describes one size pipeline gated by a root category
type sizeFamily struct {
	name          string
	rootCategory  string
	sizeOption    string
	adjunctOption string
	raw           func(attrs rawAttributes) string
	sizeHints     func(attrs rawAttributes) Hints
	adjunctHints  func(attrs rawAttributes) Hints
}

func contextHints(attrs rawAttributes) Hints {
	return Hints{
		Brand:  attrs.valueUa(models.OptionCodeBrand),
		Gender: attrs.valueUa(models.OptionCodeOriginalGender),
		Kind:   attrs.valueUa(models.OptionCodeKind),
	}
}

var sizeFamilies = []sizeFamily{
	{
		name:          FamilyApparelSize,
		rootCategory:  models.CategoryApparel,
		sizeOption:    models.OptionCodeApparelSize,
		adjunctOption: models.OptionCodeCupSize,
		raw: func(attrs rawAttributes) string {
			return attrs.valueUa(models.OptionCodeOriginalSize)
		},
		sizeHints: contextHints,
		adjunctHints: func(attrs rawAttributes) Hints {
			h := contextHints(attrs)
			h.Gender = ""
			return h
		},
	},
	{
		name:          FamilyFootwearSize,
		rootCategory:  models.CategoryFootwear,
		sizeOption:    models.OptionCodeFootwearSize,
		adjunctOption: models.OptionCodeInsoleLength,
		raw: func(attrs rawAttributes) string {
			return NormalizeNumericSize(attrs.valueUa(models.OptionCodeOriginalSize))
		},
		sizeHints:    contextHints,
		adjunctHints: contextHints,
	},
	{
		name:         FamilyHardwareSize,
		rootCategory: models.CategoryHardware,
		sizeOption:   models.OptionCodeHardwareSize,
		raw: func(attrs rawAttributes) string {
			return attrs.valueRu(models.OptionCodeOriginalSize)
		},
		sizeHints: func(rawAttributes) Hints { return Hints{} },
	},
}

// NormalizeSize runs the apparel, footwear and hardware size pipelines.
// At most one of them leaves assignments behind.
func (n *AttributeNormalizer) NormalizeSize(ctx context.Context, product *models.Product) error {
	ctx, span := util.StartSpan(ctx, "AttributeNormalizer.NormalizeSize")
	defer span.End()

	return n.repo.RunInTx(ctx, func(ctx context.Context) error {
		for _, family := range sizeFamilies {
			if err := n.normalizeSizeFamily(ctx, product, family); err != nil {
				return err
			}
		}
		return nil
	})
}

func (n *AttributeNormalizer) normalizeSizeFamily(ctx context.Context, product *models.Product, family sizeFamily) error {
	defer observeFamily(family.name, time.Now())

	option, err := n.option(ctx, product, family.sizeOption)
	if err != nil || option == nil {
		return err
	}

	var adjunct *models.Option
	if family.adjunctOption != "" {
		if adjunct, err = n.option(ctx, product, family.adjunctOption); err != nil {
			return err
		}
	}

	if err := n.replace(ctx, product, option, adjunct, nil); err != nil {
		return err
	}

	applies, err := n.underRoot(ctx, product, family.rootCategory)
	if err != nil || !applies {
		return err
	}

	attrs, err := n.loadAttributes(ctx, product)
	if err != nil {
		return err
	}

	raw := family.raw(attrs)
	if raw == "" {
		return nil
	}

	size, err := n.resolver.Resolve(ctx, option, raw, family.sizeHints(attrs))
	if err != nil {
		return err
	}
	if size == nil {
		n.warnUnmapped(product, family.name, raw)
	}

	var assignments []models.ProductOption
	if size != nil {
		assignments = append(assignments, n.assignment(product, option, *size))
	}

	if adjunct != nil {
		extra, err := n.resolver.Resolve(ctx, adjunct, raw, family.adjunctHints(attrs))
		if err != nil {
			return err
		}
		if extra != nil {
			assignments = append(assignments, n.assignment(product, adjunct, *extra))
		}
	}

	return n.repo.CreateProductOptions(ctx, assignments)
}

// underRoot reports whether the product's category descends from the root category with the given code.
// A missing category or root short-circuits to false.
func (n *AttributeNormalizer) underRoot(ctx context.Context, product *models.Product, rootCode string) (bool, error) {
	if product.CategoryID == nil {
		return false, nil
	}

	root, err := n.repo.GetCategoryByCode(ctx, rootCode)
	if err != nil {
		return false, fmt.Errorf("failed to get root category %s: %w", rootCode, err)
	}
	if root == nil {
		n.logger.Debug("Root category not found", zap.String("category", rootCode))
		return false, nil
	}

	category, err := n.repo.GetCategory(ctx, *product.CategoryID)
	if err != nil {
		return false, fmt.Errorf("failed to get category: %w", err)
	}

	for depth := 0; category != nil && depth < maxCategoryDepth; depth++ {
		if category.ParentID == nil {
			return false, nil
		}
		if *category.ParentID == root.ID {
			return true, nil
		}
		if category, err = n.repo.GetCategory(ctx, *category.ParentID); err != nil {
			return false, fmt.Errorf("failed to get parent category: %w", err)
		}
	}
	return false, nil
}
