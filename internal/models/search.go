package models

// SearchHit is one scored document returned by the search index
type SearchHit struct {
	Code  string  `json:"code"`
	Score float64 `json:"score"`
}

// SearchSuggestion is one completion option
type SearchSuggestion struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// SearchResponse is the raw answer of the search index.
// Suggestions are keyed by locale.
type SearchResponse struct {
	Hits        []SearchHit                   `json:"hits"`
	Suggestions map[string][]SearchSuggestion `json:"suggestions"`
}

// SearchResult is the resolved outcome of a free-text query
type SearchResult struct {
	Codes   []string          `json:"codes"`
	Suggest *SearchSuggestion `json:"suggest"`
	Exact   bool              `json:"exact"`
}

// SearchDocument is the indexed representation of a product
type SearchDocument struct {
	Code        string   `json:"code"`
	Model       string   `json:"model"`
	Reference   string   `json:"reference"`
	IndexNameRu string   `json:"indexNameRu"`
	IndexNameUa string   `json:"indexNameUa"`
	SuggestRu   []string `json:"suggestRu"`
	SuggestUa   []string `json:"suggestUa"`
}

// NewSearchDocument builds the index document from stored fields and the sport assignment
func NewSearchDocument(p *Product, sport *OptionVariant) SearchDocument {
	var sportRu, sportUa string
	if sport != nil {
		sportRu, sportUa = sport.ValueRu, sport.ValueUa
	}

	return SearchDocument{
		Code:        p.Code,
		Model:       p.Model,
		Reference:   p.Reference,
		IndexNameRu: IndexName(p.NameRu, sportRu),
		IndexNameUa: IndexName(p.NameUa, sportUa),
		SuggestRu:   SuggestTokens(p.NameRu),
		SuggestUa:   SuggestTokens(p.NameUa),
	}
}
