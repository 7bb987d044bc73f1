package biz

import (
	"github.com/grouphunt/groupsearch-bot/internal/biz/repo"
	"github.com/grouphunt/groupsearch-bot/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Aggregator *usecase.AggregatorUsecase
	Group      *usecase.GroupUsecase
}

// NewUsecases wires the usecases over their repositories
func NewUsecases(sources []repo.SourceRepo, groupRepo repo.GroupRepo, resolver repo.ResolverRepo, aggregatorCfg usecase.AggregatorConfig) *Usecases {
	return &Usecases{
		Aggregator: usecase.NewAggregatorUsecase(sources, aggregatorCfg),
		Group:      usecase.NewGroupUsecase(groupRepo, resolver),
	}
}
