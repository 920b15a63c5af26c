package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.q(ctx).GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProduct returns the first product matching all filters, or nil
func (s *Store) FindProduct(ctx context.Context, filters ...Filter) (*models.Product, error) {
	var product models.Product
	err := s.getWhere(ctx, &product, "SELECT p.* FROM products p", " ORDER BY p.id LIMIT 1", filters...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindAnalogIDs returns one product ID per series among products matching the filters
func (s *Store) FindAnalogIDs(ctx context.Context, filters ...Filter) ([]int64, error) {
	ids := []int64{}
	err := s.selectWhere(ctx, &ids, "SELECT MIN(p.id) FROM products p", " GROUP BY p.series_id", filters...)
	return ids, err
}

// GetProductCards loads display data for products that have no action or an active one
func (s *Store) GetProductCards(ctx context.Context, ids []int64, limit int) ([]models.ProductCard, error) {
	cards := []models.ProductCard{}
	if len(ids) == 0 {
		return cards, nil
	}

	status := Filter{
		Name:   "action_status",
		Clause: "a.status = ? OR a.status IS NULL",
		Args:   []interface{}{models.ActionStatusActive},
	}
	base := `
		SELECT DISTINCT ON (p.id) p.*, a.status AS action_status
		FROM products p
		LEFT JOIN action_products ap ON ap.product_id = p.id
		LEFT JOIN actions a ON a.id = ap.action_id`
	suffix := fmt.Sprintf(" ORDER BY p.id, a.status NULLS LAST LIMIT %d", limit)

	if err := s.selectWhere(ctx, &cards, base, suffix, ByIDs(ids), status); err != nil {
		return nil, fmt.Errorf("failed to load product cards: %w", err)
	}

	if len(cards) == 0 {
		return cards, nil
	}

	cardIDs := make([]int64, len(cards))
	for i := range cards {
		cardIDs[i] = cards[i].ID
	}

	query, args, err := sqlx.In("SELECT * FROM product_pictures WHERE product_id IN (?) ORDER BY product_id, position", cardIDs)
	if err != nil {
		return nil, err
	}

	var pictures []models.ProductPicture
	if err := s.q(ctx).SelectContext(ctx, &pictures, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load product pictures: %w", err)
	}

	byProduct := make(map[int64][]models.ProductPicture)
	for _, pic := range pictures {
		byProduct[pic.ProductID] = append(byProduct[pic.ProductID], pic)
	}
	for i := range cards {
		cards[i].Images = byProduct[cards[i].ID]
	}

	return cards, nil
}

// UpdatePrices stores the computed price fields
func (s *Store) UpdatePrices(ctx context.Context, productID int64, price, oldPrice, promoPrice float64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		"UPDATE products SET price = $1, old_price = $2, promo_price = $3, updated_at = NOW() WHERE id = $4",
		price, oldPrice, promoPrice, productID)
	return err
}

// UpdateAvailability stores stock and activity flags together
func (s *Store) UpdateAvailability(ctx context.Context, productID int64, inStock, active bool) error {
	_, err := s.q(ctx).ExecContext(ctx,
		"UPDATE products SET in_stock = $1, active = $2, updated_at = NOW() WHERE id = $3",
		inStock, active, productID)
	return err
}

// ForceVisible marks a product as in stock, active and enabled
func (s *Store) ForceVisible(ctx context.Context, productID int64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE products
		SET in_stock = TRUE, active = TRUE, disabled = FALSE, out_of_stock = FALSE, updated_at = NOW()
		WHERE id = $1`,
		productID)
	return err
}

// UpdateCategory moves a product to another category
func (s *Store) UpdateCategory(ctx context.Context, productID, categoryID int64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		"UPDATE products SET category_id = $1, updated_at = NOW() WHERE id = $2",
		categoryID, productID)
	return err
}

// UpdateSeries links a product to a series
func (s *Store) UpdateSeries(ctx context.Context, productID, seriesID int64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		"UPDATE products SET series_id = $1, updated_at = NOW() WHERE id = $2",
		seriesID, productID)
	return err
}

// UpdateNames stores localized display names
func (s *Store) UpdateNames(ctx context.Context, productID int64, nameRu, nameUa string) error {
	_, err := s.q(ctx).ExecContext(ctx,
		"UPDATE products SET name_ru = $1, name_ua = $2, updated_at = NOW() WHERE id = $3",
		nameRu, nameUa, productID)
	return err
}

// ownedRelations lists tables whose rows belong to a product, in deletion order
var ownedRelations = []struct {
	table  string
	column string
	byCode bool
}{
	{table: "action_products", column: "product_id"},
	{table: "banner_products", column: "product_code", byCode: true},
	{table: "series_relation_products", column: "product_id"},
	{table: "order_products", column: "product_id"},
	{table: "product_options", column: "product_id"},
	{table: "product_pictures", column: "product_id"},
}

// DeleteProduct removes a product and every row it owns in one transaction
func (s *Store) DeleteProduct(ctx context.Context, productID int64) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		product, err := s.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		for _, rel := range ownedRelations {
			var key interface{} = product.ID
			if rel.byCode {
				key = product.Code
			}
			query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", rel.table, rel.column)
			if _, err := s.q(ctx).ExecContext(ctx, query, key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", rel.table, err)
			}
		}

		_, err = s.q(ctx).ExecContext(ctx, "DELETE FROM products WHERE id = $1", product.ID)
		return err
	})
}

// OrderStoreIDs returns stores whose stock counts toward availability
func (s *Store) OrderStoreIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	err := s.q(ctx).SelectContext(ctx, &ids,
		"SELECT id FROM stores WHERE enabled_for_order = TRUE ORDER BY id")
	return ids, err
}

// StockedOrderStoreIDs returns order stores holding positive stock of a product
func (s *Store) StockedOrderStoreIDs(ctx context.Context, productID int64) ([]int64, error) {
	ids := []int64{}
	err := s.q(ctx).SelectContext(ctx, &ids, `
		SELECT q.store_id
		FROM site_product_quantities q
		JOIN stores st ON st.id = q.store_id
		WHERE q.product_id = $1 AND st.enabled_for_order = TRUE
		GROUP BY q.store_id
		HAVING SUM(q.quantity) > 0
		ORDER BY q.store_id`, productID)
	return ids, err
}

// MaxPrices returns the highest price and old price across the given stores
func (s *Store) MaxPrices(ctx context.Context, productID int64, storeIDs []int64) (*float64, *float64, error) {
	if len(storeIDs) == 0 {
		return nil, nil, nil
	}

	query, args, err := sqlx.In(
		"SELECT MAX(price) AS price, MAX(old_price) AS old_price FROM product_prices WHERE product_id = ? AND store_id IN (?)",
		productID, storeIDs)
	if err != nil {
		return nil, nil, err
	}

	var row struct {
		Price    sql.NullFloat64 `db:"price"`
		OldPrice sql.NullFloat64 `db:"old_price"`
	}
	if err := s.q(ctx).GetContext(ctx, &row, s.db.Rebind(query), args...); err != nil {
		return nil, nil, err
	}

	var price, oldPrice *float64
	if row.Price.Valid {
		price = &row.Price.Float64
	}
	if row.OldPrice.Valid {
		oldPrice = &row.OldPrice.Float64
	}
	return price, oldPrice, nil
}

// OrderableQuantity sums stock in enabled stores that accept orders
func (s *Store) OrderableQuantity(ctx context.Context, productID int64) (int, error) {
	var total int
	err := s.q(ctx).GetContext(ctx, &total, `
		SELECT COALESCE(SUM(q.quantity), 0)
		FROM site_product_quantities q
		JOIN stores st ON st.id = q.store_id
		WHERE q.product_id = $1 AND st.enabled = TRUE AND st.enabled_for_order = TRUE`, productID)
	return total, err
}

// StockDistribution counts positive stock rows in outlet and regular stores
func (s *Store) StockDistribution(ctx context.Context, productID int64) (int, int, error) {
	var row struct {
		Outlet  int `db:"outlet"`
		Regular int `db:"regular"`
	}
	err := s.q(ctx).GetContext(ctx, &row, `
		SELECT
			COUNT(*) FILTER (WHERE st.is_outlet) AS outlet,
			COUNT(*) FILTER (WHERE NOT st.is_outlet) AS regular
		FROM site_product_quantities q
		JOIN stores st ON st.id = q.store_id
		WHERE q.product_id = $1 AND q.quantity > 0`, productID)
	return row.Outlet, row.Regular, err
}

// CountPictures counts images of a product
func (s *Store) CountPictures(ctx context.Context, productID int64) (int, error) {
	var count int
	err := s.q(ctx).GetContext(ctx, &count,
		"SELECT COUNT(*) FROM product_pictures WHERE product_id = $1", productID)
	return count, err
}

// GetActiveAction returns the promotional action running for a product, or nil
func (s *Store) GetActiveAction(ctx context.Context, productID int64, now time.Time) (*models.Action, error) {
	var action models.Action
	err := s.q(ctx).GetContext(ctx, &action, `
		SELECT a.id, a.type, a.status, a.starts_at, a.ends_at, a.discount_percent, a.discount_amount
		FROM actions a
		JOIN action_products ap ON ap.action_id = a.id
		WHERE ap.product_id = $1
			AND a.status = $2
			AND a.starts_at <= $3
			AND (a.ends_at IS NULL OR a.ends_at > $3)
		ORDER BY a.starts_at DESC
		LIMIT 1`, productID, models.ActionStatusActive, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &action, nil
}
