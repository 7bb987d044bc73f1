package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
)

// DefaultSourceTimeout bounds a single source fetch
const DefaultSourceTimeout = 10 * time.Second

// AggregatorConfig contains aggregator configuration
type AggregatorConfig struct {
	SourceTimeout time.Duration
}

// AggregatorUsecase merges and deduplicates results across sources
type AggregatorUsecase struct {
	sources []repo.SourceRepo
	config  AggregatorConfig
}

// NewAggregatorUsecase creates a new aggregator. Sources are queried
// concurrently but merged in the order given here.
func NewAggregatorUsecase(sources []repo.SourceRepo, config AggregatorConfig) *AggregatorUsecase {
	if config.SourceTimeout <= 0 {
		config.SourceTimeout = DefaultSourceTimeout
	}
	return &AggregatorUsecase{
		sources: sources,
		config:  config,
	}
}

// SearchStats describes one aggregation run
type SearchStats struct {
	Sources int `json:"sources"`
	Failed  int `json:"failed"`
	Raw     int `json:"raw"`
	Unique  int `json:"unique"`
}

type sourceResult struct {
	groups []*domain.Group
	err    error
}

// Search returns at most totalLimit unique groups for the query
func (uc *AggregatorUsecase) Search(ctx context.Context, query string, totalLimit int) ([]*domain.Group, error) {
	groups, _, err := uc.SearchWithStats(ctx, query, totalLimit)
	return groups, err
}

// SearchWithStats is Search plus per-run statistics
func (uc *AggregatorUsecase) SearchWithStats(ctx context.Context, query string, totalLimit int) ([]*domain.Group, *SearchStats, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, domain.ErrInvalidQuery
	}
	if totalLimit <= 0 {
		return nil, nil, domain.ErrInvalidLimit
	}

	stats := &SearchStats{Sources: len(uc.sources)}
	if len(uc.sources) == 0 {
		return []*domain.Group{}, stats, nil
	}

	// Remainder is dropped, not redistributed
	perSource := totalLimit / len(uc.sources)

	fetchCtx, cancel := context.WithTimeout(ctx, uc.config.SourceTimeout)
	defer cancel()

	slots := make([]chan sourceResult, len(uc.sources))
	for i, src := range uc.sources {
		slots[i] = make(chan sourceResult, 1)
		go fetchInto(fetchCtx, src, query, perSource, slots[i])
	}

	var merged []*domain.Group
	for i, src := range uc.sources {
		res := awaitSlot(fetchCtx, slots[i])

		if res.err != nil {
			// Parent cancellation aborts the whole search
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			stats.Failed++
			fmt.Printf("[Aggregator] Source %s failed for %q: %v\n", src.Name(), query, res.err)
			continue
		}

		// Sources must respect their share of the limit
		if len(res.groups) > perSource {
			res.groups = res.groups[:perSource]
		}
		merged = append(merged, res.groups...)
	}
	stats.Raw = len(merged)

	unique := Dedup(merged)
	if len(unique) > totalLimit {
		unique = unique[:totalLimit]
	}
	stats.Unique = len(unique)

	return unique, stats, nil
}

// fetchInto runs one source and delivers its result to slot
func fetchInto(ctx context.Context, src repo.SourceRepo, query string, limit int, slot chan<- sourceResult) {
	defer func() {
		if r := recover(); r != nil {
			slot <- sourceResult{err: fmt.Errorf("source panic: %v", r)}
		}
	}()

	if limit <= 0 {
		slot <- sourceResult{}
		return
	}

	groups, err := src.Fetch(ctx, query, limit)
	slot <- sourceResult{groups: groups, err: err}
}

// awaitSlot prefers a delivered result over an expired deadline
func awaitSlot(ctx context.Context, slot <-chan sourceResult) sourceResult {
	select {
	case res := <-slot:
		return res
	default:
	}

	select {
	case res := <-slot:
		return res
	case <-ctx.Done():
		return sourceResult{err: ctx.Err()}
	}
}

// Dedup removes groups sharing an identity key, keeping the first occurrence
func Dedup(groups []*domain.Group) []*domain.Group {
	seen := make(map[domain.GroupKey]struct{}, len(groups))
	unique := make([]*domain.Group, 0, len(groups))
	for _, g := range groups {
		if g == nil {
			continue
		}
		key := g.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, g)
	}
	return unique
}
