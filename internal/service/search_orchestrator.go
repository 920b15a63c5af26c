package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/util"

	"go.uber.org/zap"
)

// SuggestionThreshold is the confidence a suggestion must exceed to be returned
const SuggestionThreshold = 0.75

// SearchConfig configures the search orchestrator
type SearchConfig struct {
	// MaxTiedHits caps the number of codes sharing the top score, 0 means unbounded
	MaxTiedHits int
}

// SearchOrchestrator resolves free-text queries to product codes
type SearchOrchestrator struct {
	repo     Repository
	searcher Searcher
	cache    SearchCache
	cfg      SearchConfig
	logger   *zap.Logger
}

// NewSearchOrchestrator creates a new search orchestrator. cache may be nil.
func NewSearchOrchestrator(repo Repository, searcher Searcher, cache SearchCache, cfg SearchConfig) *SearchOrchestrator {
	return &SearchOrchestrator{
		repo:     repo,
		searcher: searcher,
		cache:    cache,
		cfg:      cfg,
		logger:   util.GetLogger(),
	}
}

// Resolve returns the codes matching the query and an optional suggestion for the locale
func (o *SearchOrchestrator) Resolve(ctx context.Context, query, lang string) (*models.SearchResult, error) {
	ctx, span := util.StartSpan(ctx, "SearchOrchestrator.Resolve")
	defer span.End()

	start := time.Now()
	defer func() {
		util.SearchLatency.Observe(time.Since(start).Seconds())
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		util.SearchRequestsTotal.WithLabelValues("empty").Inc()
		return &models.SearchResult{Codes: []string{}}, nil
	}
	if lang == "" {
		lang = models.LangRu
	}

	exact, err := o.repo.FindProduct(ctx, store.ExactReference(query))
	if err != nil {
		return nil, fmt.Errorf("failed to find exact product: %w", err)
	}
	if exact != nil {
		util.SearchRequestsTotal.WithLabelValues("exact").Inc()
		return &models.SearchResult{Codes: []string{exact.Code}, Exact: true}, nil
	}

	key := searchCacheKey(query, lang)
	if cached := o.cached(ctx, key); cached != nil {
		util.SearchRequestsTotal.WithLabelValues("cached").Inc()
		return cached, nil
	}

	resp, err := o.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	result := &models.SearchResult{
		Codes:   TopScoredCodes(resp.Hits, o.cfg.MaxTiedHits),
		Suggest: ConfidentSuggestion(resp.Suggestions[lang]),
	}
	util.SearchRequestsTotal.WithLabelValues("ranked").Inc()

	if o.cache != nil {
		if err := o.cache.SetSearchResult(ctx, key, result); err != nil {
			o.logger.Warn("Failed to cache search result", zap.String("query", query), zap.Error(err))
		}
	}
	return result, nil
}

func (o *SearchOrchestrator) cached(ctx context.Context, key string) *models.SearchResult {
	if o.cache == nil {
		return nil
	}
	result, err := o.cache.GetSearchResult(ctx, key)
	if err != nil {
		o.logger.Warn("Failed to read search cache", zap.String("key", key), zap.Error(err))
		util.SearchCacheTotal.WithLabelValues("error").Inc()
		return nil
	}
	if result == nil {
		util.SearchCacheTotal.WithLabelValues("miss").Inc()
		return nil
	}
	util.SearchCacheTotal.WithLabelValues("hit").Inc()
	return result
}

// TopScoredCodes keeps the codes of every hit sharing the maximum score, in hit order
func TopScoredCodes(hits []models.SearchHit, limit int) []string {
	codes := []string{}
	if len(hits) == 0 {
		return codes
	}

	top := hits[0].Score
	for _, h := range hits[1:] {
		if h.Score > top {
			top = h.Score
		}
	}

	for _, h := range hits {
		if h.Score < top {
			continue
		}
		codes = append(codes, h.Code)
		if limit > 0 && len(codes) == limit {
			break
		}
	}
	return codes
}

// ConfidentSuggestion returns the top suggestion when its score exceeds the threshold
func ConfidentSuggestion(suggestions []models.SearchSuggestion) *models.SearchSuggestion {
	if len(suggestions) == 0 {
		return nil
	}
	top := suggestions[0]
	if top.Score <= SuggestionThreshold {
		return nil
	}
	return &top
}

func searchCacheKey(query, lang string) string {
	return "search:" + lang + ":" + strings.ToLower(query)
}
