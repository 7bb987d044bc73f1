package cli

import (
	"fmt"
	"strings"

	"github.com/grouphunt/groupsearch-bot/internal/biz"
	"github.com/grouphunt/groupsearch-bot/internal/conf"
	"github.com/grouphunt/groupsearch-bot/internal/data"
)

// loadConfig reads the env file, then the environment
func loadConfig(globals *GlobalFlags) (*conf.Config, error) {
	if err := conf.LoadEnvFile(globals.EnvFile); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return conf.LoadFromEnv(), nil
}

// openApp opens the store and wires the usecases. Callers close the repositories.
func openApp(cfg *conf.Config) (*data.Repositories, *biz.Usecases, error) {
	repos, err := data.NewRepositories(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open repositories: %w", err)
	}
	uc := biz.NewUsecases(repos.Sources, repos.Group, repos.Resolver, cfg.Search.ToAggregatorConfig())
	return repos, uc, nil
}

// joinArgs turns positional arguments into one query
func joinArgs(args []string) (string, error) {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return "", fmt.Errorf("a query is required")
	}
	return query, nil
}
