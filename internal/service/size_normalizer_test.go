package service

import (
	"context"
	"testing"

	"catalog-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sizeFixture struct {
	repo       *memRepo
	normalizer *AttributeNormalizer

	apparel  *models.Category
	tops     *models.Category
	footwear *models.Category
	running  *models.Category
	hardware *models.Category
	balls    *models.Category

	originalSize   *models.Option
	originalGender *models.Option
	brand          *models.Option
	kind           *models.Option
	apparelSize    *models.Option
	cupSize        *models.Option
	footwearSize   *models.Option
	insoleLength   *models.Option
	hardwareSize   *models.Option
}

func newSizeFixture() *sizeFixture {
	repo := newMemRepo()
	f := &sizeFixture{
		repo:           repo,
		normalizer:     NewAttributeNormalizer(repo, NewVariantResolver(repo)),
		originalSize:   repo.addOption(models.OptionCodeOriginalSize),
		originalGender: repo.addOption(models.OptionCodeOriginalGender),
		brand:          repo.addOption(models.OptionCodeBrand),
		kind:           repo.addOption(models.OptionCodeKind),
		apparelSize:    repo.addOption(models.OptionCodeApparelSize),
		cupSize:        repo.addOption(models.OptionCodeCupSize),
		footwearSize:   repo.addOption(models.OptionCodeFootwearSize),
		insoleLength:   repo.addOption(models.OptionCodeInsoleLength),
		hardwareSize:   repo.addOption(models.OptionCodeHardwareSize),
	}
	f.apparel = repo.addCategory(models.CategoryApparel, nil)
	f.tops = repo.addCategory("tops", repo.addCategory("clothing", f.apparel))
	f.footwear = repo.addCategory(models.CategoryFootwear, nil)
	f.running = repo.addCategory("running-shoes", f.footwear)
	f.hardware = repo.addCategory(models.CategoryHardware, nil)
	f.balls = repo.addCategory("balls", f.hardware)
	return f
}

func (f *sizeFixture) product(category *models.Category, size, brand, gender string) *models.Product {
	p := f.repo.addProduct(models.Product{CategoryID: &category.ID, InStock: true, Active: true})
	f.repo.assign(p, f.repo.addVariant(f.originalSize, size, size+"-ru", size))
	f.repo.assign(p, f.repo.addVariant(f.brand, brand, brand, brand))
	f.repo.assign(p, f.repo.addVariant(f.originalGender, gender, gender, gender))
	return p
}

func TestApparelSizeWithCupSize(t *testing.T) {
	f := newSizeFixture()
	s75 := f.repo.addVariant(f.apparelSize, "75", "75", "75")
	cupB := f.repo.addVariant(f.cupSize, "b", "B", "B")
	f.repo.addMapping(f.apparelSize, models.MappingKey{Raw: "75B", Brand: "Nike", Gender: "Women"}, s75, nil)
	f.repo.addMapping(f.cupSize, models.MappingKey{Raw: "75B", Brand: "Nike"}, cupB, nil)

	p := f.product(f.tops, "75B", "Nike", "Women")

	ctx := context.Background()
	require.NoError(t, f.normalizer.NormalizeSize(ctx, p))
	require.NoError(t, f.normalizer.NormalizeSize(ctx, p))

	assert.Equal(t, []int64{s75.ID}, f.repo.variantIDsOf(p.ID, f.apparelSize))
	assert.Equal(t, []int64{cupB.ID}, f.repo.variantIDsOf(p.ID, f.cupSize))
	assert.Empty(t, f.repo.optionsOf(p.ID, f.footwearSize))
}

func TestApparelSizeGatedByCategory(t *testing.T) {
	f := newSizeFixture()
	m := f.repo.addVariant(f.apparelSize, "m", "M", "M")
	f.repo.addMapping(f.apparelSize, models.MappingKey{Raw: "M"}, m, nil)

	p := f.product(f.running, "M", "Nike", "Men")
	stale := f.repo.addVariant(f.apparelSize, "l", "L", "L")
	f.repo.assign(p, stale)

	require.NoError(t, f.normalizer.NormalizeSize(context.Background(), p))

	assert.Empty(t, f.repo.optionsOf(p.ID, f.apparelSize))
	assert.Empty(t, f.repo.optionsOf(p.ID, f.cupSize))
}

func TestRootCategoryItselfIsNotSized(t *testing.T) {
	f := newSizeFixture()
	m := f.repo.addVariant(f.apparelSize, "m", "M", "M")
	f.repo.addMapping(f.apparelSize, models.MappingKey{Raw: "M"}, m, nil)

	p := f.product(f.apparel, "M", "Nike", "Men")

	require.NoError(t, f.normalizer.NormalizeSize(context.Background(), p))

	assert.Empty(t, f.repo.optionsOf(p.ID, f.apparelSize))
}

func TestSizeWithoutCategoryIsNoop(t *testing.T) {
	f := newSizeFixture()
	m := f.repo.addVariant(f.apparelSize, "m", "M", "M")
	f.repo.addMapping(f.apparelSize, models.MappingKey{Raw: "M"}, m, nil)

	p := f.product(f.tops, "M", "Nike", "Men")
	p.CategoryID = nil

	require.NoError(t, f.normalizer.NormalizeSize(context.Background(), p))

	assert.Empty(t, f.repo.optionsOf(p.ID, f.apparelSize))
}

func TestFootwearSizeNormalizesDecimalComma(t *testing.T) {
	f := newSizeFixture()
	s425 := f.repo.addVariant(f.footwearSize, "42.5", "42.5", "42.5")
	insole := f.repo.addVariant(f.insoleLength, "27", "27 см", "27 см")
	f.repo.addMapping(f.footwearSize, models.MappingKey{Raw: "42.5"}, s425, nil)
	f.repo.addMapping(f.insoleLength, models.MappingKey{Raw: "42.5", Brand: "Asics"}, insole, nil)

	p := f.product(f.running, "42,5", "Asics", "Men")

	require.NoError(t, f.normalizer.NormalizeSize(context.Background(), p))

	assert.Equal(t, []int64{s425.ID}, f.repo.variantIDsOf(p.ID, f.footwearSize))
	assert.Equal(t, []int64{insole.ID}, f.repo.variantIDsOf(p.ID, f.insoleLength))
	assert.Empty(t, f.repo.optionsOf(p.ID, f.apparelSize))
}

func TestHardwareSizeUsesRussianValueWithoutHints(t *testing.T) {
	f := newSizeFixture()
	five := f.repo.addVariant(f.hardwareSize, "5", "5", "5")
	f.repo.addMapping(f.hardwareSize, models.MappingKey{Raw: "5-ru"}, five, nil)

	p := f.product(f.balls, "5", "Select", "Unisex")

	require.NoError(t, f.normalizer.NormalizeSize(context.Background(), p))

	assert.Equal(t, []int64{five.ID}, f.repo.variantIDsOf(p.ID, f.hardwareSize))
}

func TestCategoryChangeMovesSizeFamily(t *testing.T) {
	f := newSizeFixture()
	m := f.repo.addVariant(f.apparelSize, "m", "M", "M")
	s42 := f.repo.addVariant(f.footwearSize, "42", "42", "42")
	f.repo.addMapping(f.apparelSize, models.MappingKey{Raw: "42"}, m, nil)
	f.repo.addMapping(f.footwearSize, models.MappingKey{Raw: "42"}, s42, nil)

	p := f.product(f.tops, "42", "Nike", "Men")
	ctx := context.Background()
	require.NoError(t, f.normalizer.NormalizeSize(ctx, p))
	require.Len(t, f.repo.optionsOf(p.ID, f.apparelSize), 1)

	p.CategoryID = &f.running.ID
	require.NoError(t, f.normalizer.NormalizeSize(ctx, p))

	assert.Empty(t, f.repo.optionsOf(p.ID, f.apparelSize))
	assert.Equal(t, []int64{s42.ID}, f.repo.variantIDsOf(p.ID, f.footwearSize))
}
