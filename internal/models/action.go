package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action statuses
const (
	ActionStatusActive   = "ACTIVE"
	ActionStatusInactive = "INACTIVE"
)

// Action types
const (
	ActionTypeFixedDiscount   = "FIXED_DISCOUNT"
	ActionTypePercentDiscount = "PERCENT_DISCOUNT"
)

// Action is a time-bounded promotional rule
type Action struct {
	ID              int64           `db:"id" json:"id"`
	Type            string          `db:"type" json:"type"`
	Status          string          `db:"status" json:"status"`
	StartsAt        time.Time       `db:"starts_at" json:"starts_at"`
	EndsAt          *time.Time      `db:"ends_at" json:"ends_at"`
	DiscountPercent decimal.NullDecimal `db:"discount_percent" json:"discount_percent"`
	DiscountAmount  decimal.NullDecimal `db:"discount_amount" json:"discount_amount"`
}

// IsActive reports whether the action applies at the given moment
func (a *Action) IsActive(now time.Time) bool {
	if a.Status != ActionStatusActive {
		return false
	}
	if now.Before(a.StartsAt) {
		return false
	}
	return a.EndsAt == nil || now.Before(*a.EndsAt)
}

// ProductPrice returns the discounted price, or 0 when the action yields no price.
// A NULL discount counts as zero.
func (a *Action) ProductPrice(price float64) float64 {
	base := decimal.NewFromFloat(price)
	var discounted decimal.Decimal

	switch a.Type {
	case ActionTypeFixedDiscount:
		discounted = base.Sub(a.DiscountAmount.Decimal)
	case ActionTypePercentDiscount:
		factor := decimal.NewFromInt(100).Sub(a.DiscountPercent.Decimal).Div(decimal.NewFromInt(100))
		discounted = base.Mul(factor)
	default:
		return 0
	}

	if !discounted.IsPositive() {
		return 0
	}
	return discounted.Round(2).InexactFloat64()
}
