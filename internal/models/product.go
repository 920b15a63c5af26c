package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Locales supported by the storefront
const (
	LangRu = "ru"
	LangUa = "ua"
)

// Carrier codes used for volume weight
const (
	CarrierJustin = "justin"
)

// RoundPrice rounds a price half-up to 2 decimal places
func RoundPrice(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// RoundedPrice returns the price as exposed to clients
func (p *Product) RoundedPrice() float64 {
	return RoundPrice(p.Price)
}

// RoundedOldPrice returns the old price as exposed to clients
func (p *Product) RoundedOldPrice() float64 {
	return RoundPrice(p.OldPrice)
}

// Sellable reports whether the product can be bought right now.
// Option assignments mirror this value in their filterable flag.
func (p *Product) Sellable() bool {
	return p.InStock && p.Active && !p.OutOfStock && !p.Disabled
}

// SiteInStock reports the storefront stock badge
func (p *Product) SiteInStock() bool {
	return p.InStock && !p.OutOfStock
}

// LocalizedName returns the product name for a locale, falling back to ru
func (p *Product) LocalizedName(lang string) string {
	if lang == LangUa {
		return p.NameUa
	}
	return p.NameRu
}

// DeriveReference builds the product reference from style and model
func DeriveReference(style, model, code string) string {
	if style != "" || model != "" {
		return style + "-" + model
	}
	return "reference-" + code
}

// SeriesSignature derives the key grouping colorways of one item.
// Products without a model are grouped by reference, then by code.
func SeriesSignature(model, kind, gender, reference, code string) string {
	if model != "" {
		parts := []string{strings.TrimSpace(model), strings.TrimSpace(kind), strings.TrimSpace(gender)}
		return strings.ToLower(strings.Join(parts, "|"))
	}
	if reference != "" {
		return strings.ToLower(reference)
	}
	return strings.ToLower(code)
}

// ComposeName builds a display name from kind, brand, model and gender text
func ComposeName(kind, brand, model, gender string) string {
	name := fmt.Sprintf("%s %s %s %s", kind, brand, model, strings.ToLower(gender))
	return strings.Join(strings.Fields(name), " ")
}

// SuggestTokens returns completion inputs for a localized name
func SuggestTokens(name string) []string {
	return strings.Split(strings.ToLower(name), " ")
}

// IndexName returns the searchable name enriched with the sport value
func IndexName(name, sport string) string {
	return fmt.Sprintf("%s %s", name, sport)
}

// WeightKg returns the shipping weight, preferring the weight option value in grams
func (p *Product) WeightKg(optionGrams float64) float64 {
	grams := optionGrams
	if grams == 0 {
		grams = p.Weight
	}
	if grams == 0 {
		grams = 1000
	}
	return grams / 1000
}

// Dimensions returns height, length and width in millimeters
func (p *Product) Dimensions(options []ProductOptionView) (height, length, width float64) {
	height = dimension(options, OptionCodeHeight, p.Height)
	length = dimension(options, OptionCodeLength, p.Length)
	width = dimension(options, OptionCodeWidth, p.Width)
	return height, length, width
}

// VolumeM3 returns the package volume in cubic meters
func (p *Product) VolumeM3(options []ProductOptionView) float64 {
	h, l, w := p.Dimensions(options)
	volume := h * l * w
	if volume == 0 {
		volume = 1000000
	}
	return volume / 1000000000
}

// VolumeWeightKg returns the billable weight for a carrier
func (p *Product) VolumeWeightKg(carrier string, options []ProductOptionView) float64 {
	h, l, w := p.Dimensions(options)
	var grams float64
	if v := OptionValue(options, OptionCodeWeight); v != nil {
		fmt.Sscanf(v.ValueRu, "%g", &grams)
	}
	weight := p.WeightKg(grams)

	var bySize float64
	if carrier == CarrierJustin {
		bySize = h * w * l * 100 * 250
	} else {
		bySize = h * w * l / 4000 / 1000
	}

	if bySize > weight {
		return bySize
	}
	return weight
}

func dimension(options []ProductOptionView, code string, fallback float64) float64 {
	if v := OptionValue(options, code); v != nil {
		var mm float64
		if _, err := fmt.Sscanf(v.ValueRu, "%g", &mm); err == nil && mm > 0 {
			return mm
		}
	}
	if fallback > 0 {
		return fallback
	}
	return 300
}
