package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/util"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// Suggester names per locale
const (
	suggestRu = "suggestRu"
	suggestUa = "suggestUa"
)

// indexMapping declares completion fields for suggestions
const indexMapping = `{
	"mappings": {
		"properties": {
			"code":        { "type": "keyword" },
			"reference":   { "type": "keyword" },
			"model":       { "type": "text" },
			"indexNameRu": { "type": "text" },
			"indexNameUa": { "type": "text" },
			"suggestRu":   { "type": "completion" },
			"suggestUa":   { "type": "completion" }
		}
	}
}`

// Config holds Elasticsearch connection settings
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	HitsSize  int
}

// Client searches and indexes product documents
type Client struct {
	es     *elasticsearch.Client
	index  string
	size   int
	logger *zap.Logger
}

// NewClient creates a new Elasticsearch client
func NewClient(cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	size := cfg.HitsSize
	if size <= 0 {
		size = 50
	}

	return &Client{
		es:     es,
		index:  cfg.Index,
		size:   size,
		logger: util.GetLogger(),
	}, nil
}

// Ping checks the cluster is reachable
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the product index when it does not exist
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}

	c.logger.Info("Search index created", zap.String("index", c.index))
	return nil
}

// IndexProduct upserts a product document keyed by its code
func (c *Client) IndexProduct(ctx context.Context, doc models.SearchDocument) error {
	ctx, span := util.StartSpan(ctx, "search.IndexProduct")
	defer span.End()

	body, err := json.Marshal(indexedDocument(doc))
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := c.es.Index(c.index, bytes.NewReader(body),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(doc.Code))
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res)
	}
	return nil
}

// Search runs the full-text query with per-locale completion suggestions
func (c *Client) Search(ctx context.Context, text string) (*models.SearchResponse, error) {
	ctx, span := util.StartSpan(ctx, "search.Search")
	defer span.End()

	body, err := json.Marshal(buildQuery(text, c.size))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res)
	}

	return parseResponse(res.Body)
}

// document is the stored form, with completion inputs
type document struct {
	models.SearchDocument
	SuggestRu completion `json:"suggestRu"`
	SuggestUa completion `json:"suggestUa"`
}

type completion struct {
	Input []string `json:"input"`
}

func indexedDocument(doc models.SearchDocument) document {
	return document{
		SearchDocument: doc,
		SuggestRu:      completion{Input: doc.SuggestRu},
		SuggestUa:      completion{Input: doc.SuggestUa},
	}
}

func buildQuery(text string, size int) map[string]interface{} {
	suggester := func(field string) map[string]interface{} {
		return map[string]interface{}{
			"prefix": text,
			"completion": map[string]interface{}{
				"field":           field,
				"skip_duplicates": true,
				"fuzzy":           map[string]interface{}{"fuzziness": "AUTO"},
			},
		}
	}

	return map[string]interface{}{
		"size":    size,
		"_source": []string{"code"},
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     text,
				"fields":    []string{"reference^4", "code^4", "model^2", "indexNameRu", "indexNameUa"},
				"fuzziness": "AUTO",
			},
		},
		"suggest": map[string]interface{}{
			suggestRu: suggester(suggestRu),
			suggestUa: suggester(suggestUa),
		},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64 `json:"_score"`
			Source struct {
				Code string `json:"code"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Suggest map[string][]struct {
		Options []struct {
			Text        string   `json:"text"`
			Score       *float64 `json:"_score"`
			LegacyScore *float64 `json:"score"`
		} `json:"options"`
	} `json:"suggest"`
}

// localeBySuggester maps suggester names to storefront locales
var localeBySuggester = map[string]string{
	suggestRu: models.LangRu,
	suggestUa: models.LangUa,
}

func parseResponse(body io.Reader) (*models.SearchResponse, error) {
	var raw searchResponse
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	resp := &models.SearchResponse{
		Hits:        make([]models.SearchHit, 0, len(raw.Hits.Hits)),
		Suggestions: make(map[string][]models.SearchSuggestion),
	}
	for _, h := range raw.Hits.Hits {
		resp.Hits = append(resp.Hits, models.SearchHit{Code: h.Source.Code, Score: h.Score})
	}

	for name, entries := range raw.Suggest {
		lang, ok := localeBySuggester[name]
		if !ok || len(entries) == 0 {
			continue
		}
		options := make([]models.SearchSuggestion, 0, len(entries[0].Options))
		for _, o := range entries[0].Options {
			s := models.SearchSuggestion{Text: o.Text}
			switch {
			case o.Score != nil:
				s.Score = *o.Score
			case o.LegacyScore != nil:
				s.Score = *o.LegacyScore
			}
			options = append(options, s)
		}
		resp.Suggestions[lang] = options
	}

	return resp, nil
}

func responseError(op string, res *esapi.Response) error {
	msg, _ := io.ReadAll(res.Body)
	return fmt.Errorf("elasticsearch %s failed: %s: %s", op, res.Status(), strings.TrimSpace(string(msg)))
}
