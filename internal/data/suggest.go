package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
	"github.com/grouphunt/groupsearch-bot/internal/infra/llm"
)

const maxSuggestions = 3

// Completer is the chat-completion call the suggest repo needs
type Completer interface {
	Chat(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// suggestRepo proposes alternative keywords through a language model
type suggestRepo struct {
	client       Completer
	systemPrompt string
}

// NewSuggestRepo creates a suggest repository, nil when no client is configured
func NewSuggestRepo(client Completer, systemPrompt string) repo.SuggestRepo {
	if client == nil {
		return nil
	}
	return &suggestRepo{client: client, systemPrompt: systemPrompt}
}

// Suggest returns up to three alternative keywords, excluding the query itself
func (r *suggestRepo) Suggest(ctx context.Context, query string) ([]string, error) {
	answer, err := r.client.Chat(ctx, r.systemPrompt, query)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, s := range llm.ParseLines(answer, maxSuggestions+1) {
		if strings.EqualFold(s, strings.TrimSpace(query)) {
			continue
		}
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	fmt.Printf("[Suggest] %q -> %v\n", query, out)
	return out, nil
}
