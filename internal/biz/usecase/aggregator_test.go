package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
)

// Mock implementations

type mockSource struct {
	name   string
	groups []*domain.Group
	err    error
	delay  time.Duration
	panics bool
	calls  int32
	limits []int
}

func (m *mockSource) Name() string {
	return m.name
}

func (m *mockSource) Fetch(ctx context.Context, query string, limit int) ([]*domain.Group, error) {
	atomic.AddInt32(&m.calls, 1)
	m.limits = append(m.limits, limit)
	if m.panics {
		panic("boom")
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.groups) > limit {
		return m.groups[:limit], nil
	}
	return m.groups, nil
}

func group(username, title string) *domain.Group {
	return &domain.Group{Username: username, Title: title, Type: domain.GroupTypeGroup}
}

func sources(srcs ...*mockSource) []repo.SourceRepo {
	out := make([]repo.SourceRepo, len(srcs))
	for i, s := range srcs {
		out[i] = s
	}
	return out
}

// Tests

func TestSearch_ConcatenatesInRegistrationOrder(t *testing.T) {
	slow := &mockSource{name: "slow", groups: []*domain.Group{group("a", "A")}, delay: 50 * time.Millisecond}
	fast := &mockSource{name: "fast", groups: []*domain.Group{group("b", "B")}}
	mid := &mockSource{name: "mid", groups: []*domain.Group{group("c", "C")}, delay: 10 * time.Millisecond}

	uc := NewAggregatorUsecase(sources(slow, fast, mid), AggregatorConfig{})

	results, err := uc.Search(context.Background(), "crypto", 15)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(results) != len(want) {
		t.Fatalf("Expected %d results, got %d", len(want), len(results))
	}
	for i, w := range want {
		if results[i].Username != w {
			t.Errorf("Result %d: expected %s, got %s", i, w, results[i].Username)
		}
	}
}

func TestSearch_PartitionsLimitWithTruncation(t *testing.T) {
	a := &mockSource{name: "a"}
	b := &mockSource{name: "b"}
	c := &mockSource{name: "c"}

	uc := NewAggregatorUsecase(sources(a, b, c), AggregatorConfig{})
	if _, err := uc.Search(context.Background(), "x", 17); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, s := range []*mockSource{a, b, c} {
		if len(s.limits) != 1 || s.limits[0] != 5 {
			t.Errorf("Source %s: expected limit 5, got %v", s.name, s.limits)
		}
	}
}

func TestSearch_LimitBelowSourceCountSkipsSources(t *testing.T) {
	a := &mockSource{name: "a", groups: []*domain.Group{group("a", "A")}}
	b := &mockSource{name: "b", groups: []*domain.Group{group("b", "B")}}
	c := &mockSource{name: "c", groups: []*domain.Group{group("c", "C")}}

	uc := NewAggregatorUsecase(sources(a, b, c), AggregatorConfig{})
	results, err := uc.Search(context.Background(), "x", 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 results with a zero share per source, got %d", len(results))
	}
	if a.calls != 0 {
		t.Errorf("Expected no fetch with zero share, got %d calls", a.calls)
	}
}

func TestSearch_NeverExceedsTotalLimit(t *testing.T) {
	var many []*domain.Group
	for i := 0; i < 20; i++ {
		many = append(many, group(fmt.Sprintf("g%d", i), fmt.Sprintf("G%d", i)))
	}

	// A misbehaving source ignoring its limit
	greedy := &greedySource{groups: many}
	uc := NewAggregatorUsecase([]repo.SourceRepo{greedy}, AggregatorConfig{})

	for _, limit := range []int{1, 3, 7, 15} {
		results, err := uc.Search(context.Background(), "x", limit)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(results) > limit {
			t.Errorf("Limit %d: got %d results", limit, len(results))
		}
	}
}

type greedySource struct {
	groups []*domain.Group
}

func (g *greedySource) Name() string { return "greedy" }

func (g *greedySource) Fetch(ctx context.Context, query string, limit int) ([]*domain.Group, error) {
	return g.groups, nil
}

func TestSearch_DedupKeepsEarliestSource(t *testing.T) {
	first := group("x", "X")
	first.Description = "from A"
	second := group("x", "X")
	second.Description = "from B"

	a := &mockSource{name: "a", groups: []*domain.Group{first}, delay: 20 * time.Millisecond}
	b := &mockSource{name: "b", groups: []*domain.Group{second, group("y", "Y")}}

	uc := NewAggregatorUsecase(sources(a, b), AggregatorConfig{})
	results, err := uc.Search(context.Background(), "x", 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 unique results, got %d", len(results))
	}
	if results[0].Description != "from A" {
		t.Errorf("Expected first source to win, got '%s'", results[0].Description)
	}

	seen := make(map[domain.GroupKey]bool)
	for _, r := range results {
		if seen[r.Key()] {
			t.Errorf("Duplicate key %+v", r.Key())
		}
		seen[r.Key()] = true
	}
}

func TestSearch_FailingSourceContributesNothing(t *testing.T) {
	a := &mockSource{name: "a", groups: []*domain.Group{group("a", "A")}}
	broken := &mockSource{name: "broken", err: errors.New("network down")}
	c := &mockSource{name: "c", groups: []*domain.Group{group("c", "C")}}

	uc := NewAggregatorUsecase(sources(a, broken, c), AggregatorConfig{})
	results, stats, err := uc.SearchWithStats(context.Background(), "x", 15)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Username != "a" || results[1].Username != "c" {
		t.Errorf("Unexpected results: %s, %s", results[0].Username, results[1].Username)
	}
	if stats.Failed != 1 {
		t.Errorf("Expected 1 failed source, got %d", stats.Failed)
	}
}

func TestSearch_PanickingSourceIsContained(t *testing.T) {
	a := &mockSource{name: "a", groups: []*domain.Group{group("a", "A")}}
	bad := &mockSource{name: "bad", panics: true}

	uc := NewAggregatorUsecase(sources(a, bad), AggregatorConfig{})
	results, err := uc.Search(context.Background(), "x", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}

func TestSearch_SlowSourceTimesOut(t *testing.T) {
	a := &mockSource{name: "a", groups: []*domain.Group{group("a", "A")}}
	slow := &mockSource{name: "slow", groups: []*domain.Group{group("s", "S")}, delay: 5 * time.Second}

	uc := NewAggregatorUsecase(sources(a, slow), AggregatorConfig{SourceTimeout: 50 * time.Millisecond})

	start := time.Now()
	results, stats, err := uc.SearchWithStats(context.Background(), "x", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Expected search to return at the source deadline")
	}
	if len(results) != 1 || results[0].Username != "a" {
		t.Errorf("Expected only the fast source result, got %d", len(results))
	}
	if stats.Failed != 1 {
		t.Errorf("Expected 1 failed source, got %d", stats.Failed)
	}
}

func TestSearch_AllEmptyIsNotAnError(t *testing.T) {
	uc := NewAggregatorUsecase(sources(&mockSource{name: "a"}, &mockSource{name: "b"}), AggregatorConfig{})

	results, err := uc.Search(context.Background(), "nothing", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty results, got %d", len(results))
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	a := &mockSource{name: "a"}
	uc := NewAggregatorUsecase(sources(a), AggregatorConfig{})

	if _, err := uc.Search(context.Background(), "   ", 10); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("Expected ErrInvalidQuery, got %v", err)
	}
	if _, err := uc.Search(context.Background(), "x", 0); !errors.Is(err, domain.ErrInvalidLimit) {
		t.Errorf("Expected ErrInvalidLimit, got %v", err)
	}
	if a.calls != 0 {
		t.Errorf("Expected no source calls on invalid input, got %d", a.calls)
	}
}

func TestSearch_CancelledContext(t *testing.T) {
	slow := &mockSource{name: "slow", delay: time.Second}
	uc := NewAggregatorUsecase(sources(slow), AggregatorConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := uc.Search(ctx, "x", 10); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestDedup_SkipsNil(t *testing.T) {
	out := Dedup([]*domain.Group{nil, group("a", "A"), group("a", "A"), group("", "A")})
	if len(out) != 2 {
		t.Errorf("Expected 2 unique groups, got %d", len(out))
	}
}
