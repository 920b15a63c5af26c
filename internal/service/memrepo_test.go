package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/store"
)

// memRepo is an in-memory Repository that evaluates store filters by name
type memRepo struct {
	nextID int64

	products    map[int64]*models.Product
	options     map[int64]*models.Option
	variants    map[int64]models.OptionVariant
	mappings    []models.VariantMapping
	assignments []models.ProductOption
	categories  map[int64]*models.Category
	relations   map[int64]*models.CategoryRelation
	series      map[string]*models.Series
	stores      map[int64]models.Store
	quantities  []models.SiteProductQuantity
	prices      []models.ProductPrice
	pictures    map[int64]int
	actions     map[int64]*models.Action

	transactions int
	txDepth      int
	updates      int

	// createErr fails every CreateProductOptions call when set
	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		nextID:     1000,
		products:   map[int64]*models.Product{},
		options:    map[int64]*models.Option{},
		variants:   map[int64]models.OptionVariant{},
		categories: map[int64]*models.Category{},
		relations:  map[int64]*models.CategoryRelation{},
		series:     map[string]*models.Series{},
		stores:     map[int64]models.Store{},
		pictures:   map[int64]int{},
		actions:    map[int64]*models.Action{},
	}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

// fixtures

func (m *memRepo) addProduct(p models.Product) *models.Product {
	if p.ID == 0 {
		p.ID = m.id()
	}
	if p.Code == "" {
		p.Code = fmt.Sprintf("P%d", p.ID)
	}
	m.products[p.ID] = &p
	return &p
}

func (m *memRepo) addOption(code string) *models.Option {
	o := &models.Option{ID: m.id(), Code: code}
	m.options[o.ID] = o
	return o
}

func (m *memRepo) addVariant(option *models.Option, code, ru, ua string) models.OptionVariant {
	v := models.OptionVariant{ID: m.id(), OptionID: option.ID, Code: code, ValueRu: ru, ValueUa: ua}
	m.variants[v.ID] = v
	return v
}

func (m *memRepo) addMapping(option *models.Option, key models.MappingKey, variant models.OptionVariant, extra *models.OptionVariant) {
	vm := models.VariantMapping{
		ID:        m.id(),
		OptionID:  option.ID,
		RawValue:  key.Raw,
		Brand:     key.Brand,
		Gender:    key.Gender,
		Kind:      key.Kind,
		VariantID: variant.ID,
	}
	if extra != nil {
		vm.ExtraVariantID = &extra.ID
	}
	m.mappings = append(m.mappings, vm)
}

func (m *memRepo) assign(product *models.Product, variant models.OptionVariant) {
	m.assignments = append(m.assignments, models.ProductOption{
		ID:        m.id(),
		ProductID: product.ID,
		OptionID:  variant.OptionID,
		VariantID: variant.ID,
		IsVisible: true,
		IsFilter:  true,
	})
}

func (m *memRepo) addCategory(code string, parent *models.Category) *models.Category {
	c := &models.Category{ID: m.id(), Code: code}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	m.categories[c.ID] = c
	return c
}

func (m *memRepo) addStore(outlet, forOrder bool) models.Store {
	s := models.Store{ID: m.id(), Code: fmt.Sprintf("S%d", m.nextID), Enabled: true, EnabledForOrder: forOrder, IsOutlet: outlet}
	m.stores[s.ID] = s
	return s
}

func (m *memRepo) setStock(product *models.Product, st models.Store, qty int) {
	m.quantities = append(m.quantities, models.SiteProductQuantity{ProductID: product.ID, StoreID: st.ID, Quantity: qty})
}

func (m *memRepo) setPrice(product *models.Product, st models.Store, price, oldPrice *float64) {
	m.prices = append(m.prices, models.ProductPrice{ProductID: product.ID, StoreID: st.ID, Price: price, OldPrice: oldPrice})
}

// optionsOf returns the assignments of a product for one option
func (m *memRepo) optionsOf(productID int64, option *models.Option) []models.ProductOption {
	var out []models.ProductOption
	for _, po := range m.assignments {
		if po.ProductID == productID && po.OptionID == option.ID {
			out = append(out, po)
		}
	}
	return out
}

func (m *memRepo) variantIDsOf(productID int64, option *models.Option) []int64 {
	var ids []int64
	for _, po := range m.optionsOf(productID, option) {
		ids = append(ids, po.VariantID)
	}
	return ids
}

// viewsOf returns the joined assignments of a product for the given option codes
func (m *memRepo) viewsOf(productID int64, codes ...string) []models.ProductOptionView {
	views, _ := m.GetProductOptions(context.Background(), productID)
	var out []models.ProductOptionView
	for _, v := range views {
		for _, code := range codes {
			if v.OptionCode == code {
				out = append(out, v)
			}
		}
	}
	return out
}

// Repository

// RunInTx restores products and assignments when the outermost call fails
func (m *memRepo) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.transactions++
	if m.txDepth > 0 {
		return fn(ctx)
	}

	products := make(map[int64]models.Product, len(m.products))
	for id, p := range m.products {
		products[id] = *p
	}
	assignments := append([]models.ProductOption(nil), m.assignments...)

	m.txDepth++
	err := fn(ctx)
	m.txDepth--

	if err != nil {
		for id, p := range products {
			if stored, ok := m.products[id]; ok {
				*stored = p
			} else {
				cp := p
				m.products[id] = &cp
			}
		}
		m.assignments = assignments
	}
	return err
}

func (m *memRepo) FindVariantMappings(ctx context.Context, optionID int64, key models.MappingKey) ([]models.VariantMapping, error) {
	var out []models.VariantMapping
	for _, vm := range m.mappings {
		if vm.OptionID == optionID && vm.RawValue == key.Raw && vm.Brand == key.Brand &&
			vm.Gender == key.Gender && vm.Kind == key.Kind {
			out = append(out, vm)
		}
	}
	return out, nil
}

func (m *memRepo) GetVariants(ctx context.Context, ids []int64) ([]models.OptionVariant, error) {
	var out []models.OptionVariant
	for _, id := range ids {
		if v, ok := m.variants[id]; ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) match(p *models.Product, f store.Filter) bool {
	switch f.Name {
	case "":
		return true
	case "sellable":
		return p.Sellable()
	case "id":
		return p.ID == f.Args[0].(int64)
	case "ids":
		if len(f.Args) == 0 {
			return false
		}
		for _, id := range f.Args[0].([]int64) {
			if p.ID == id {
				return true
			}
		}
		return false
	case "category":
		return p.CategoryID != nil && *p.CategoryID == f.Args[0].(int64)
	case "series":
		if len(f.Args) == 0 {
			return p.SeriesID != nil
		}
		return p.SeriesID != nil && *p.SeriesID != f.Args[0].(int64)
	case "price":
		return p.Price >= f.Args[0].(float64) && p.Price <= f.Args[1].(float64)
	case "variant":
		for _, po := range m.assignments {
			if po.ProductID == p.ID && po.VariantID == f.Args[0].(int64) {
				return true
			}
		}
		return false
	case "exact":
		if len(f.Args) == 0 {
			return false
		}
		q := f.Args[0].(string)
		return p.Reference == q || p.Code == q
	}
	panic("unknown filter " + f.Name)
}

func (m *memRepo) filtered(filters []store.Filter) []*models.Product {
	var out []*models.Product
	for _, p := range m.products {
		ok := true
		for _, f := range filters {
			if !m.match(p, f) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memRepo) FindProduct(ctx context.Context, filters ...store.Filter) (*models.Product, error) {
	found := m.filtered(filters)
	if len(found) == 0 {
		return nil, nil
	}
	cp := *found[0]
	return &cp, nil
}

func (m *memRepo) FindAnalogIDs(ctx context.Context, filters ...store.Filter) ([]int64, error) {
	bySeries := map[int64]int64{}
	for _, p := range m.filtered(filters) {
		var key int64
		if p.SeriesID != nil {
			key = *p.SeriesID
		}
		if _, ok := bySeries[key]; !ok {
			bySeries[key] = p.ID
		}
	}
	ids := []int64{}
	for _, id := range bySeries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memRepo) GetProductCards(ctx context.Context, ids []int64, limit int) ([]models.ProductCard, error) {
	cards := []models.ProductCard{}
	for _, p := range m.filtered([]store.Filter{store.ByIDs(ids)}) {
		card := models.ProductCard{Product: *p}
		if a, ok := m.actions[p.ID]; ok {
			if a.Status != models.ActionStatusActive {
				continue
			}
			status := a.Status
			card.ActionStatus = &status
		}
		cards = append(cards, card)
		if len(cards) == limit {
			break
		}
	}
	return cards, nil
}

func (m *memRepo) DeleteProduct(ctx context.Context, productID int64) error {
	if _, ok := m.products[productID]; !ok {
		return fmt.Errorf("product %d: %w", productID, store.ErrNotFound)
	}
	kept := m.assignments[:0]
	for _, po := range m.assignments {
		if po.ProductID != productID {
			kept = append(kept, po)
		}
	}
	m.assignments = kept
	delete(m.pictures, productID)
	delete(m.actions, productID)
	delete(m.products, productID)
	return nil
}

func (m *memRepo) UpdatePrices(ctx context.Context, productID int64, price, oldPrice, promoPrice float64) error {
	m.updates++
	p := m.products[productID]
	p.Price, p.OldPrice, p.PromoPrice = price, oldPrice, promoPrice
	return nil
}

func (m *memRepo) UpdateAvailability(ctx context.Context, productID int64, inStock, active bool) error {
	m.updates++
	p := m.products[productID]
	p.InStock, p.Active = inStock, active
	return nil
}

func (m *memRepo) ForceVisible(ctx context.Context, productID int64) error {
	m.updates++
	p := m.products[productID]
	p.InStock, p.Active, p.Disabled, p.OutOfStock = true, true, false, false
	return nil
}

func (m *memRepo) UpdateCategory(ctx context.Context, productID, categoryID int64) error {
	m.products[productID].CategoryID = &categoryID
	return nil
}

func (m *memRepo) UpdateSeries(ctx context.Context, productID, seriesID int64) error {
	m.products[productID].SeriesID = &seriesID
	return nil
}

func (m *memRepo) UpdateNames(ctx context.Context, productID int64, nameRu, nameUa string) error {
	p := m.products[productID]
	p.NameRu, p.NameUa = nameRu, nameUa
	return nil
}

func (m *memRepo) OrderStoreIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	for _, s := range m.stores {
		if s.EnabledForOrder {
			ids = append(ids, s.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memRepo) StockedOrderStoreIDs(ctx context.Context, productID int64) ([]int64, error) {
	sums := map[int64]int{}
	for _, q := range m.quantities {
		if q.ProductID == productID && m.stores[q.StoreID].EnabledForOrder {
			sums[q.StoreID] += q.Quantity
		}
	}
	ids := []int64{}
	for id, sum := range sums {
		if sum > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memRepo) MaxPrices(ctx context.Context, productID int64, storeIDs []int64) (*float64, *float64, error) {
	in := map[int64]bool{}
	for _, id := range storeIDs {
		in[id] = true
	}
	var price, oldPrice *float64
	for _, pp := range m.prices {
		if pp.ProductID != productID || !in[pp.StoreID] {
			continue
		}
		if pp.Price != nil && (price == nil || *pp.Price > *price) {
			v := *pp.Price
			price = &v
		}
		if pp.OldPrice != nil && (oldPrice == nil || *pp.OldPrice > *oldPrice) {
			v := *pp.OldPrice
			oldPrice = &v
		}
	}
	return price, oldPrice, nil
}

func (m *memRepo) OrderableQuantity(ctx context.Context, productID int64) (int, error) {
	total := 0
	for _, q := range m.quantities {
		s := m.stores[q.StoreID]
		if q.ProductID == productID && s.Enabled && s.EnabledForOrder {
			total += q.Quantity
		}
	}
	return total, nil
}

func (m *memRepo) StockDistribution(ctx context.Context, productID int64) (int, int, error) {
	var outlet, regular int
	for _, q := range m.quantities {
		if q.ProductID != productID || q.Quantity <= 0 {
			continue
		}
		if m.stores[q.StoreID].IsOutlet {
			outlet++
		} else {
			regular++
		}
	}
	return outlet, regular, nil
}

func (m *memRepo) CountPictures(ctx context.Context, productID int64) (int, error) {
	return m.pictures[productID], nil
}

func (m *memRepo) GetActiveAction(ctx context.Context, productID int64, now time.Time) (*models.Action, error) {
	a, ok := m.actions[productID]
	if !ok || !a.IsActive(now) {
		return nil, nil
	}
	return a, nil
}

func (m *memRepo) GetOptionByCode(ctx context.Context, code string) (*models.Option, error) {
	for _, o := range m.options {
		if o.Code == code {
			return o, nil
		}
	}
	return nil, nil
}

func (m *memRepo) GetVariantByCode(ctx context.Context, optionID int64, code string) (*models.OptionVariant, error) {
	for _, v := range m.variants {
		if v.OptionID == optionID && v.Code == code {
			cp := v
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) GetProductOptions(ctx context.Context, productID int64) ([]models.ProductOptionView, error) {
	views := []models.ProductOptionView{}
	for _, po := range m.assignments {
		if po.ProductID != productID {
			continue
		}
		v := m.variants[po.VariantID]
		views = append(views, models.ProductOptionView{
			ProductOption: po,
			OptionCode:    m.options[po.OptionID].Code,
			VariantCode:   v.Code,
			VariantValRu:  v.ValueRu,
			VariantValUa:  v.ValueUa,
		})
	}
	return views, nil
}

func (m *memRepo) DeleteProductOptions(ctx context.Context, productID int64, optionIDs ...int64) error {
	drop := map[int64]bool{}
	for _, id := range optionIDs {
		drop[id] = true
	}
	kept := m.assignments[:0]
	for _, po := range m.assignments {
		if po.ProductID == productID && drop[po.OptionID] {
			continue
		}
		kept = append(kept, po)
	}
	m.assignments = kept
	return nil
}

func (m *memRepo) CreateProductOptions(ctx context.Context, options []models.ProductOption) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, po := range options {
		po.ID = m.id()
		m.assignments = append(m.assignments, po)
	}
	return nil
}

func (m *memRepo) SetFilterable(ctx context.Context, productID int64, filterable bool) error {
	for i := range m.assignments {
		if m.assignments[i].ProductID == productID {
			m.assignments[i].Filterable = filterable
		}
	}
	return nil
}

func (m *memRepo) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return m.categories[id], nil
}

func (m *memRepo) GetCategoryByCode(ctx context.Context, code string) (*models.Category, error) {
	for _, c := range m.categories {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memRepo) GetCategoryRelation(ctx context.Context, originalVariantID int64) (*models.CategoryRelation, error) {
	return m.relations[originalVariantID], nil
}

func (m *memRepo) FindOrCreateSeries(ctx context.Context, model string) (*models.Series, error) {
	if s, ok := m.series[model]; ok {
		return s, nil
	}
	s := &models.Series{ID: m.id(), Model: model}
	m.series[model] = s
	return s, nil
}

func floatPtr(v float64) *float64 {
	return &v
}

func int64Ptr(v int64) *int64 {
	return &v
}
