package service

import (
	"context"
	"fmt"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/util"
)

// Hints disambiguate a raw vendor value
type Hints struct {
	Brand  string
	Gender string
	Kind   string
}

// VariantResolver maps raw vendor values to canonical option variants
type VariantResolver struct {
	source MappingSource
}

// NewVariantResolver creates a new variant resolver
func NewVariantResolver(source MappingSource) *VariantResolver {
	return &VariantResolver{source: source}
}

// fallbackKeys lists lookup keys from the most to the least qualified:
// full key, then without kind, then without gender, then without brand.
func fallbackKeys(raw string, hints Hints) []models.MappingKey {
	full := models.MappingKey{Raw: raw, Brand: hints.Brand, Gender: hints.Gender, Kind: hints.Kind}
	noKind := full
	noKind.Kind = ""
	noGender := noKind
	noGender.Gender = ""
	rawOnly := models.MappingKey{Raw: raw}

	keys := make([]models.MappingKey, 0, 4)
	for _, k := range []models.MappingKey{full, noKind, noGender, rawOnly} {
		if len(keys) > 0 && keys[len(keys)-1] == k {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// lookup returns the mappings of the first key level that has any
func (r *VariantResolver) lookup(ctx context.Context, option *models.Option, raw string, hints Hints) ([]models.VariantMapping, error) {
	raw = strings.TrimSpace(raw)
	if option == nil || raw == "" {
		return nil, nil
	}

	for _, key := range fallbackKeys(raw, hints) {
		mappings, err := r.source.FindVariantMappings(ctx, option.ID, key)
		if err != nil {
			return nil, fmt.Errorf("failed to find %s mapping: %w", option.Code, err)
		}
		if len(mappings) > 0 {
			return mappings, nil
		}
	}
	return nil, nil
}

// Resolve returns the best canonical variant for a raw value, or nil when unmapped
func (r *VariantResolver) Resolve(ctx context.Context, option *models.Option, raw string, hints Hints) (*models.OptionVariant, error) {
	primary, _, err := r.ResolvePair(ctx, option, raw, hints)
	return primary, err
}

// ResolvePair returns the primary variant and the optional extra variant of the best mapping
func (r *VariantResolver) ResolvePair(ctx context.Context, option *models.Option, raw string, hints Hints) (*models.OptionVariant, *models.OptionVariant, error) {
	ctx, span := util.StartSpan(ctx, "VariantResolver.Resolve")
	defer span.End()

	mappings, err := r.lookup(ctx, option, raw, hints)
	if err != nil || len(mappings) == 0 {
		return nil, nil, err
	}

	best := mappings[0]
	ids := []int64{best.VariantID}
	if best.ExtraVariantID != nil {
		ids = append(ids, *best.ExtraVariantID)
	}

	variants, err := r.source.GetVariants(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s variants: %w", option.Code, err)
	}

	byID := indexVariants(variants)
	primary := byID[best.VariantID]
	var extra *models.OptionVariant
	if best.ExtraVariantID != nil {
		extra = byID[*best.ExtraVariantID]
	}
	return primary, extra, nil
}

// ResolveAll returns every canonical variant a raw value fans out to
func (r *VariantResolver) ResolveAll(ctx context.Context, option *models.Option, raw string, hints Hints) ([]models.OptionVariant, error) {
	ctx, span := util.StartSpan(ctx, "VariantResolver.ResolveAll")
	defer span.End()

	mappings, err := r.lookup(ctx, option, raw, hints)
	if err != nil || len(mappings) == 0 {
		return nil, err
	}

	ids := make([]int64, 0, len(mappings))
	seen := make(map[int64]bool, len(mappings))
	for _, m := range mappings {
		if !seen[m.VariantID] {
			seen[m.VariantID] = true
			ids = append(ids, m.VariantID)
		}
	}

	variants, err := r.source.GetVariants(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s variants: %w", option.Code, err)
	}

	byID := indexVariants(variants)
	result := make([]models.OptionVariant, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			result = append(result, *v)
		}
	}
	return result, nil
}

// NormalizeNumericSize converts a decimal comma to a dot
func NormalizeNumericSize(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
}

func indexVariants(variants []models.OptionVariant) map[int64]*models.OptionVariant {
	byID := make(map[int64]*models.OptionVariant, len(variants))
	for i := range variants {
		byID[variants[i].ID] = &variants[i]
	}
	return byID
}
