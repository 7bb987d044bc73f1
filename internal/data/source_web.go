package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
)

const (
	defaultWebSourceURL = "https://telegram.me"
	webRequestTimeout   = 8 * time.Second
	webUserAgent        = "Mozilla/5.0 (compatible; groupsearch-bot/1.0)"
)

// webSource probes the public preview page for the query and, when it
// exists, yields one templated record. The page body is not parsed.
type webSource struct {
	baseURL    string
	httpClient *http.Client
	template   domain.GroupTemplate
}

// NewWebSource creates the web probe source
func NewWebSource(baseURL string, template domain.GroupTemplate) repo.SourceRepo {
	if baseURL == "" {
		baseURL = defaultWebSourceURL
	}
	return &webSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: webRequestTimeout},
		template:   template,
	}
}

// Name returns the source name
func (s *webSource) Name() string {
	return "telegram.me"
}

// Fetch probes <base>/s/<handle> and renders the template on HTTP 200.
// Queries without handle characters probe the escaped query instead.
func (s *webSource) Fetch(ctx context.Context, query string, limit int) ([]*domain.Group, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 || query == "" {
		return nil, nil
	}
	path := domain.SanitizeHandle(query)
	if path == "" {
		path = query
	}

	reqURL := s.baseURL + "/s/" + url.PathEscape(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	// Drain a bounded amount so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, reqURL)
	}

	g := s.template.Render(query)
	g.Source = s.Name()
	g.FoundAt = time.Now()
	return []*domain.Group{g}, nil
}
