package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
)

var testTemplates = []domain.GroupTemplate{
	{Title: "{{Query}} Community", Username: "{{handle}}_community", Description: "About {{query}}", Members: "12.5K"},
	{Title: "{{Query}} News", Username: "{{handle}}_news", Members: "8.7K"},
}

func TestSyntheticSource_RendersTemplates(t *testing.T) {
	src := NewSyntheticSource("tlgrm.eu", testTemplates)

	groups, err := src.Fetch(context.Background(), "milano calcio", 5)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Milano Calcio Community", groups[0].Title)
	assert.Equal(t, "milanocalcio_community", groups[0].Username)
	assert.Equal(t, "About milano calcio", groups[0].Description)
	assert.Equal(t, "milano calcio", groups[0].SourceQuery)
	assert.Equal(t, "tlgrm.eu", groups[0].Source)
	assert.Equal(t, domain.GroupTypeGroup, groups[0].Type)
	assert.Equal(t, "https://t.me/milanocalcio_news", groups[1].Link())
}

func TestSyntheticSource_RespectsLimit(t *testing.T) {
	src := NewSyntheticSource("tlgrm.eu", testTemplates)

	groups, err := src.Fetch(context.Background(), "crypto", 1)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	groups, err = src.Fetch(context.Background(), "crypto", 0)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestSyntheticSource_MalformedQuery(t *testing.T) {
	src := NewSyntheticSource("tgstat", testTemplates)

	for _, q := range []string{"!!!", "   ", "🔥🔥", "<script>"} {
		groups, err := src.Fetch(context.Background(), q, 5)
		assert.NoError(t, err, q)
		for _, g := range groups {
			if g.Username == "" {
				continue
			}
			_, ok := domain.ParseHandle(g.Username)
			assert.True(t, ok, "invalid username %q for query %q", g.Username, q)
		}
	}
}

func TestSyntheticSource_NonLatinQuery(t *testing.T) {
	src := NewSyntheticSource("tlgrm.eu", testTemplates)

	groups, err := src.Fetch(context.Background(), "милан", 5)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Милан Community", groups[0].Title)
	assert.Equal(t, "About милан", groups[0].Description)
	assert.Empty(t, groups[0].Username)
	assert.Empty(t, groups[0].Link())
	assert.Equal(t, "Милан News", groups[1].Title)
}

func TestWebSource_NonLatinQueryProbesEscapedQuery(t *testing.T) {
	var path atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	src := NewWebSource(server.URL, domain.GroupTemplate{
		Title: "Gruppo {{Query}}", Username: "{{handle}}_group", Description: "Group dedicated to {{query}}",
	})

	groups, err := src.Fetch(context.Background(), "милан", 5)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	assert.Equal(t, "/s/милан", path.Load())
	assert.Equal(t, "Gruppo Милан", groups[0].Title)
	assert.Equal(t, "Group dedicated to милан", groups[0].Description)
	assert.Empty(t, groups[0].Username)
}

func TestWebSource_OKYieldsOneRecord(t *testing.T) {
	var path atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	src := NewWebSource(server.URL+"/", domain.GroupTemplate{
		Title: "Gruppo {{Query}}", Username: "{{handle}}_group", Members: "5.2K",
	})

	groups, err := src.Fetch(context.Background(), "Crypto News", 5)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	assert.Equal(t, "/s/cryptonews", path.Load())
	assert.Equal(t, "Gruppo Crypto News", groups[0].Title)
	assert.Equal(t, "cryptonews_group", groups[0].Username)
	assert.Equal(t, "telegram.me", groups[0].Source)
}

func TestWebSource_NonOKIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	src := NewWebSource(server.URL, domain.GroupTemplate{Title: "x", Username: "{{handle}}"})

	groups, err := src.Fetch(context.Background(), "crypto", 5)
	assert.Error(t, err)
	assert.Empty(t, groups)
}

func TestWebSource_NoRequestWithoutWork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	src := NewWebSource(server.URL, domain.GroupTemplate{Title: "x", Username: "{{handle}}"})

	groups, err := src.Fetch(context.Background(), "crypto", 0)
	assert.NoError(t, err)
	assert.Empty(t, groups)

	groups, err = src.Fetch(context.Background(), "   ", 5)
	assert.NoError(t, err)
	assert.Empty(t, groups)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWebSource_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	src := NewWebSource(server.URL, domain.GroupTemplate{Title: "x", Username: "{{handle}}"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Fetch(ctx, "crypto", 5)
	assert.Error(t, err)
}

func TestDirectoryResolver(t *testing.T) {
	r := NewDirectoryResolver()

	g, err := r.Resolve(context.Background(), "cryptoitalia")
	require.NoError(t, err)
	assert.Equal(t, "cryptoitalia", g.Username)
	assert.Equal(t, int64(1500), g.MemberCount())
	assert.False(t, g.IsVerified)
	assert.Equal(t, "https://t.me/cryptoitalia", g.InviteLink)

	_, err = r.Resolve(context.Background(), "no spaces allowed")
	assert.ErrorIs(t, err, domain.ErrInvalidHandle)
}

type stubCompleter struct {
	answer string
	err    error
}

func (s *stubCompleter) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return s.answer, s.err
}

func TestSuggestRepo(t *testing.T) {
	r := NewSuggestRepo(&stubCompleter{answer: "1. bitcoin\n- Crypto\n\n\"blockchain\"\nweb3\nnft"}, "prompt")

	got, err := r.Suggest(context.Background(), "crypto")
	require.NoError(t, err)
	assert.Equal(t, []string{"bitcoin", "blockchain", "web3"}, got)

	assert.Nil(t, NewSuggestRepo(nil, "prompt"))
}
