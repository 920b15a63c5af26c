package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetOptionByCode retrieves an option by its stable code, or nil
func (s *Store) GetOptionByCode(ctx context.Context, code string) (*models.Option, error) {
	var option models.Option
	err := s.q(ctx).GetContext(ctx, &option, "SELECT * FROM options WHERE code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &option, nil
}

// GetVariantByCode retrieves a variant of an option by its code, or nil
func (s *Store) GetVariantByCode(ctx context.Context, optionID int64, code string) (*models.OptionVariant, error) {
	var variant models.OptionVariant
	err := s.q(ctx).GetContext(ctx, &variant,
		"SELECT * FROM option_variants WHERE option_id = $1 AND code = $2", optionID, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// GetVariants retrieves variants by IDs
func (s *Store) GetVariants(ctx context.Context, ids []int64) ([]models.OptionVariant, error) {
	variants := []models.OptionVariant{}
	if len(ids) == 0 {
		return variants, nil
	}

	query, args, err := sqlx.In("SELECT * FROM option_variants WHERE id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, err
	}
	err = s.q(ctx).SelectContext(ctx, &variants, s.db.Rebind(query), args...)
	return variants, err
}

// FindVariantMappings returns mapping rows matching the key exactly.
// Empty key parts only match wildcard rows.
func (s *Store) FindVariantMappings(ctx context.Context, optionID int64, key models.MappingKey) ([]models.VariantMapping, error) {
	mappings := []models.VariantMapping{}
	err := s.q(ctx).SelectContext(ctx, &mappings, `
		SELECT * FROM variant_mappings
		WHERE option_id = $1 AND raw_value = $2 AND brand = $3 AND gender = $4 AND kind = $5
		ORDER BY id`,
		optionID, key.Raw, key.Brand, key.Gender, key.Kind)
	return mappings, err
}

// GetProductOptions retrieves a product's assignments with option codes and variant values
func (s *Store) GetProductOptions(ctx context.Context, productID int64) ([]models.ProductOptionView, error) {
	views := []models.ProductOptionView{}
	err := s.q(ctx).SelectContext(ctx, &views, `
		SELECT po.*,
			o.code AS option_code,
			v.code AS variant_code,
			v.value_ru AS variant_value_ru,
			v.value_ua AS variant_value_ua
		FROM product_options po
		JOIN options o ON o.id = po.option_id
		JOIN option_variants v ON v.id = po.variant_id
		WHERE po.product_id = $1
		ORDER BY po.id`, productID)
	return views, err
}

// DeleteProductOptions removes a product's assignments for the given options
func (s *Store) DeleteProductOptions(ctx context.Context, productID int64, optionIDs ...int64) error {
	if len(optionIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In("DELETE FROM product_options WHERE product_id = ? AND option_id IN (?)", productID, optionIDs)
	if err != nil {
		return err
	}
	_, err = s.q(ctx).ExecContext(ctx, s.db.Rebind(query), args...)
	return err
}

// CreateProductOptions bulk inserts assignments
func (s *Store) CreateProductOptions(ctx context.Context, options []models.ProductOption) error {
	if len(options) == 0 {
		return nil
	}

	query := `
		INSERT INTO product_options (
			product_id, option_id, variant_id, group_id, category_id,
			is_visible, is_top, is_filter, filterable
		)
		VALUES (
			:product_id, :option_id, :variant_id, :group_id, :category_id,
			:is_visible, :is_top, :is_filter, :filterable
		)`

	if _, err := s.q(ctx).NamedExecContext(ctx, query, options); err != nil {
		return fmt.Errorf("failed to create product options: %w", err)
	}
	return nil
}

// SetFilterable sets the filterable flag on every assignment of a product
func (s *Store) SetFilterable(ctx context.Context, productID int64, filterable bool) error {
	_, err := s.q(ctx).ExecContext(ctx,
		"UPDATE product_options SET filterable = $1 WHERE product_id = $2",
		filterable, productID)
	return err
}

// GetCategory retrieves a category by ID, or nil
func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := s.q(ctx).GetContext(ctx, &category, "SELECT * FROM categories WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryByCode retrieves a category by code, or nil
func (s *Store) GetCategoryByCode(ctx context.Context, code string) (*models.Category, error) {
	var category models.Category
	err := s.q(ctx).GetContext(ctx, &category, "SELECT * FROM categories WHERE code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryRelation maps an original kind variant to a category, or nil
func (s *Store) GetCategoryRelation(ctx context.Context, originalVariantID int64) (*models.CategoryRelation, error) {
	var rel models.CategoryRelation
	err := s.q(ctx).GetContext(ctx, &rel,
		"SELECT * FROM category_relations WHERE original_variant_id = $1 LIMIT 1", originalVariantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// FindOrCreateSeries returns the series with the given model signature, creating it if needed
func (s *Store) FindOrCreateSeries(ctx context.Context, model string) (*models.Series, error) {
	var series models.Series
	err := s.q(ctx).GetContext(ctx, &series, `
		INSERT INTO series (model) VALUES ($1)
		ON CONFLICT (model) DO UPDATE SET model = EXCLUDED.model
		RETURNING id, model, created_at`, model)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert series: %w", err)
	}
	return &series, nil
}
