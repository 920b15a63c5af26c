package service

import (
	"context"
	"errors"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIndexer struct {
	docs []models.SearchDocument
	err  error
}

func (r *recordingIndexer) IndexProduct(ctx context.Context, doc models.SearchDocument) error {
	r.docs = append(r.docs, doc)
	return r.err
}

type recordingPublisher struct {
	events []*models.ProductNormalizedEvent
}

func (r *recordingPublisher) PublishProductNormalized(ctx context.Context, event *models.ProductNormalizedEvent) error {
	r.events = append(r.events, event)
	return nil
}

type pipelineFixture struct {
	repo      *memRepo
	pipeline  *CatalogPipeline
	indexer   *recordingIndexer
	publisher *recordingPublisher
	product   *models.Product
	color     *models.Option
	sport     *models.Option
	outlet    *models.Option
	size      *models.Option
}

func newPipelineFixture() *pipelineFixture {
	repo := newMemRepo()
	resolver := NewVariantResolver(repo)
	f := &pipelineFixture{
		repo:      repo,
		indexer:   &recordingIndexer{},
		publisher: &recordingPublisher{},
	}
	f.pipeline = NewCatalogPipeline(
		repo,
		NewAttributeNormalizer(repo, resolver),
		NewAvailabilityResolver(repo, AvailabilityConfig{Visibility: models.VisibilityInStock}),
		f.indexer,
		f.publisher,
	)

	apparel := repo.addCategory(models.CategoryApparel, nil)
	hoodies := repo.addCategory("hoodies", apparel)

	originalKind := repo.addOption(models.OptionCodeOriginalKind)
	originalColor := repo.addOption(models.OptionCodeOriginalColor)
	originalSport := repo.addOption(models.OptionCodeOriginalSport)
	originalGender := repo.addOption(models.OptionCodeOriginalGender)
	originalSize := repo.addOption(models.OptionCodeOriginalSize)
	brand := repo.addOption(models.OptionCodeBrand)
	kind := repo.addOption(models.OptionCodeKind)
	gender := repo.addOption(models.OptionCodeGender)
	f.color = repo.addOption(models.OptionCodeColor)
	f.sport = repo.addOption(models.OptionCodeSport)
	f.outlet = repo.addOption(models.OptionCodeOutlet)
	f.size = repo.addOption(models.OptionCodeApparelSize)

	hoodie := repo.addVariant(kind, "hoodie", "Худи", "Худі")
	men := repo.addVariant(gender, "men", "Мужское", "Чоловіче")
	grey := repo.addVariant(f.color, "grey", "Серый", "Сірий")
	football := repo.addVariant(f.sport, "football", "Футбол", "Футбол")
	l := repo.addVariant(f.size, "l", "L", "L")
	repo.addVariant(f.outlet, models.OutletVariantOutlet, "Аутлет", "Аутлет")
	repo.addVariant(f.outlet, models.OutletVariantRegular, "Обычный", "Звичайний")

	rawKind := repo.addVariant(originalKind, "HD", "HOODIE", "HOODIE")
	repo.relations[rawKind.ID] = &models.CategoryRelation{
		OriginalVariantID: rawKind.ID,
		CategoryID:        &hoodies.ID,
		VariantID:         &hoodie.ID,
	}
	repo.addMapping(gender, models.MappingKey{Raw: "MALE"}, men, nil)
	repo.addMapping(f.color, models.MappingKey{Raw: "GRY"}, grey, nil)
	repo.addMapping(f.sport, models.MappingKey{Raw: "SOCCER", Kind: "HOODIE"}, football, nil)
	repo.addMapping(f.size, models.MappingKey{Raw: "L"}, l, nil)

	f.product = repo.addProduct(models.Product{
		Code:      "HD-001",
		Reference: "CW1234-010",
		Model:     "Club",
		BrandID:   int64Ptr(7),
	})
	repo.assign(f.product, rawKind)
	repo.assign(f.product, repo.addVariant(originalColor, "GRY", "GRY", "GRY"))
	repo.assign(f.product, repo.addVariant(originalSport, "SOCCER", "SOCCER", "SOCCER"))
	repo.assign(f.product, repo.addVariant(originalGender, "MALE", "MALE", "MALE"))
	repo.assign(f.product, repo.addVariant(originalSize, "L", "L", "L"))
	repo.assign(f.product, repo.addVariant(brand, "nike", "Nike", "Nike"))

	st := repo.addStore(false, true)
	repo.setStock(f.product, st, 4)
	repo.setPrice(f.product, st, floatPtr(1999.005), floatPtr(2499))
	repo.pictures[f.product.ID] = 3

	return f
}

func TestProcessNormalizesPricesAndIndexes(t *testing.T) {
	f := newPipelineFixture()

	product, err := f.pipeline.Process(context.Background(), f.product.ID)
	require.NoError(t, err)

	assert.NotNil(t, product.CategoryID)
	assert.NotNil(t, product.SeriesID)
	assert.Equal(t, "Худи Nike Club мужское", product.NameRu)
	assert.Equal(t, "Худі Nike Club чоловіче", product.NameUa)
	assert.Equal(t, 1999.01, product.RoundedPrice())
	assert.True(t, product.InStock)
	assert.True(t, product.Active)

	assert.Len(t, f.repo.optionsOf(product.ID, f.color), 1)
	assert.Len(t, f.repo.optionsOf(product.ID, f.sport), 1)
	assert.Len(t, f.repo.optionsOf(product.ID, f.size), 1)
	assert.Len(t, f.repo.optionsOf(product.ID, f.outlet), 1)

	for _, po := range f.repo.assignments {
		assert.Equal(t, product.Sellable(), po.Filterable)
	}

	require.Len(t, f.indexer.docs, 1)
	assert.Equal(t, "Худи Nike Club мужское Футбол", f.indexer.docs[0].IndexNameRu)
	assert.Equal(t, []string{"худи", "nike", "club", "мужское"}, f.indexer.docs[0].SuggestRu)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.EventTypeProductNormalized, f.publisher.events[0].EventType)
	assert.Equal(t, "HD-001", f.publisher.events[0].Code)
	assert.NotEmpty(t, f.publisher.events[0].EventID)
}

func TestProcessIsIdempotent(t *testing.T) {
	f := newPipelineFixture()
	ctx := context.Background()

	first, err := f.pipeline.Process(ctx, f.product.ID)
	require.NoError(t, err)
	before := len(f.repo.assignments)

	second, err := f.pipeline.Process(ctx, f.product.ID)
	require.NoError(t, err)

	assert.Equal(t, before, len(f.repo.assignments))
	assert.Equal(t, first.SeriesID, second.SeriesID)
	assert.Equal(t, first.NameRu, second.NameRu)
}

func TestProcessFilterableFollowsLostStock(t *testing.T) {
	f := newPipelineFixture()
	ctx := context.Background()

	_, err := f.pipeline.Process(ctx, f.product.ID)
	require.NoError(t, err)

	f.repo.quantities = nil
	product, err := f.pipeline.Process(ctx, f.product.ID)
	require.NoError(t, err)

	assert.False(t, product.InStock)
	for _, po := range f.repo.assignments {
		assert.False(t, po.Filterable)
	}
}

func TestProcessIndexFailureIsNotFatal(t *testing.T) {
	f := newPipelineFixture()
	f.indexer.err = errors.New("index unavailable")

	_, err := f.pipeline.Process(context.Background(), f.product.ID)
	assert.NoError(t, err)
}

func TestProcessUnknownProduct(t *testing.T) {
	f := newPipelineFixture()

	_, err := f.pipeline.Process(context.Background(), 999999)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.publisher.events)
}

func TestProcessRollsBackOnStoreFailure(t *testing.T) {
	f := newPipelineFixture()
	ctx := context.Background()

	_, err := f.pipeline.Process(ctx, f.product.ID)
	require.NoError(t, err)
	assignments := append([]models.ProductOption(nil), f.repo.assignments...)
	stored := *f.repo.products[f.product.ID]

	writeErr := errors.New("write failed")
	f.repo.createErr = writeErr
	f.repo.prices[0].Price = floatPtr(1500)

	_, err = f.pipeline.Process(ctx, f.product.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, writeErr)

	assert.Equal(t, assignments, f.repo.assignments)
	assert.Equal(t, stored, *f.repo.products[f.product.ID])
	assert.Len(t, f.publisher.events, 1)
	assert.Len(t, f.indexer.docs, 1)
}

func TestSeriesSharedByColorways(t *testing.T) {
	f := newPipelineFixture()
	ctx := context.Background()

	sibling := f.repo.addProduct(models.Product{Code: "HD-002", Model: "Club"})
	for _, po := range f.repo.viewsOf(f.product.ID, models.OptionCodeOriginalKind, models.OptionCodeOriginalGender) {
		f.repo.assign(sibling, f.repo.variants[po.VariantID])
	}

	require.NoError(t, f.pipeline.AssignSeries(ctx, f.product))
	require.NoError(t, f.pipeline.AssignSeries(ctx, sibling))

	require.NotNil(t, sibling.SeriesID)
	assert.Equal(t, *f.product.SeriesID, *sibling.SeriesID)
}

func TestDeleteRemovesOwnedRows(t *testing.T) {
	f := newPipelineFixture()
	ctx := context.Background()

	require.NoError(t, f.pipeline.Delete(ctx, f.product.ID))

	_, err := f.repo.GetProduct(ctx, f.product.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	options, err := f.repo.GetProductOptions(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Empty(t, options)
}
