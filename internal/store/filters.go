package store

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

// Filter is a named SQL predicate over the products table aliased as p.
// Placeholders are written as ? and rebound when the query is built.
type Filter struct {
	Name   string
	Clause string
	Args   []interface{}
}

// Where combines filters with AND. Empty filters are skipped.
func Where(filters ...Filter) (string, []interface{}) {
	clauses := make([]string, 0, len(filters))
	var args []interface{}

	for _, f := range filters {
		if f.Clause == "" {
			continue
		}
		clauses = append(clauses, "("+f.Clause+")")
		args = append(args, f.Args...)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Build renders base + WHERE + suffix with postgres placeholders
func Build(base, suffix string, filters ...Filter) (string, []interface{}, error) {
	where, args := Where(filters...)
	query := base + where + suffix

	if len(args) > 0 {
		var err error
		query, args, err = sqlx.In(query, args...)
		if err != nil {
			return "", nil, err
		}
	}

	return sqlx.Rebind(sqlx.DOLLAR, query), args, nil
}

// Sellable keeps products that can be bought
func Sellable() Filter {
	return Filter{
		Name:   "sellable",
		Clause: "p.in_stock = TRUE AND p.active = TRUE AND p.out_of_stock = FALSE AND p.disabled = FALSE",
	}
}

// ByID matches one product
func ByID(id int64) Filter {
	return Filter{Name: "id", Clause: "p.id = ?", Args: []interface{}{id}}
}

// ByIDs matches a set of products
func ByIDs(ids []int64) Filter {
	if len(ids) == 0 {
		return Filter{Name: "ids", Clause: "FALSE"}
	}
	return Filter{Name: "ids", Clause: "p.id IN (?)", Args: []interface{}{ids}}
}

// InCategory matches products of one category
func InCategory(categoryID int64) Filter {
	return Filter{Name: "category", Clause: "p.category_id = ?", Args: []interface{}{categoryID}}
}

// OutsideSeries excludes a series. A nil series keeps any product that has one.
func OutsideSeries(seriesID *int64) Filter {
	if seriesID == nil {
		return Filter{Name: "series", Clause: "p.series_id IS NOT NULL"}
	}
	return Filter{Name: "series", Clause: "p.series_id <> ?", Args: []interface{}{*seriesID}}
}

// PriceBetween matches products priced within [lo, hi]
func PriceBetween(lo, hi float64) Filter {
	return Filter{Name: "price", Clause: "p.price >= ? AND p.price <= ?", Args: []interface{}{lo, hi}}
}

// HasVariant matches products assigned the given option variant
func HasVariant(variantID int64) Filter {
	return Filter{
		Name:   "variant",
		Clause: "EXISTS (SELECT 1 FROM product_options po WHERE po.product_id = p.id AND po.variant_id = ?)",
		Args:   []interface{}{variantID},
	}
}

// ExactReference matches the trimmed query against reference or code
func ExactReference(search string) Filter {
	search = strings.TrimSpace(search)
	if search == "" {
		return Filter{Name: "exact", Clause: "FALSE"}
	}
	return Filter{Name: "exact", Clause: "p.reference = ? OR p.code = ?", Args: []interface{}{search, search}}
}
