package data

import (
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
	"github.com/grouphunt/groupsearch-bot/internal/conf"
	"github.com/grouphunt/groupsearch-bot/internal/infra/llm"
)

// Repositories contains all repositories
type Repositories struct {
	Group    repo.GroupRepo
	Sources  []repo.SourceRepo
	Resolver repo.ResolverRepo
	Suggest  repo.SuggestRepo // nil when no LLM is configured
}

// NewRepositories creates all repositories
func NewRepositories(cfg *conf.Config) (*Repositories, error) {
	groupRepo, err := NewGroupRepo(cfg.Store.DBPath)
	if err != nil {
		return nil, err
	}

	var suggest repo.SuggestRepo
	if cfg.LLM.APIKey != "" {
		client := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
		suggest = NewSuggestRepo(client, cfg.Catalog.Suggest.SystemPrompt)
	}

	return &Repositories{
		Group:    groupRepo,
		Sources:  NewSources(cfg),
		Resolver: NewDirectoryResolver(),
		Suggest:  suggest,
	}, nil
}

// NewSources builds the source list in registration order
func NewSources(cfg *conf.Config) []repo.SourceRepo {
	templates := cfg.Catalog.Sources

	var sources []repo.SourceRepo
	if cfg.Search.WebSourceEnabled {
		sources = append(sources, NewWebSource(cfg.Search.WebSourceURL, templates.Web.ToGroupTemplate()))
	}
	sources = append(sources,
		NewSyntheticSource("tlgrm.eu", conf.ToGroupTemplates(templates.Directory)),
		NewSyntheticSource("tgstat", conf.ToGroupTemplates(templates.Stats)),
	)
	return sources
}

// Close releases repository resources
func (r *Repositories) Close() error {
	return r.Group.Close()
}
