package query

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-identity/pkg/types"
)

// NamePrefixSearchInput scopes a case-insensitive name prefix search. The
// chain ID selects which preferred key is reported per match.
type NamePrefixSearchInput struct {
	Prefix  string
	ChainID string
}

// Validate reports whether the input can be executed.
func (input NamePrefixSearchInput) Validate() error {
	if strings.TrimSpace(input.Prefix) == "" {
		return types.ErrProfileNameRequired
	}
	if strings.TrimSpace(input.ChainID) == "" {
		return types.ErrChainIDRequired
	}
	return nil
}

// NamePrefixSearchQuery searches profiles by name prefix. The result set is
// capped by the repository and ordered by name ascending.
type NamePrefixSearchQuery struct {
	repo   types.DirectoryRepository
	gate   featuregate.FeatureGate
	logger types.Logger
}

// NewNamePrefixSearchQuery constructs the query helper.
func NewNamePrefixSearchQuery(repo types.DirectoryRepository, gate featuregate.FeatureGate, logger types.Logger) *NamePrefixSearchQuery {
	return &NamePrefixSearchQuery{
		repo:   repo,
		gate:   gate,
		logger: safeLogger(logger),
	}
}

var _ gocommand.Querier[NamePrefixSearchInput, []types.SearchResult] = (*NamePrefixSearchQuery)(nil)

// Query returns the capped match list for the supplied prefix.
func (q *NamePrefixSearchQuery) Query(ctx context.Context, input NamePrefixSearchInput) ([]types.SearchResult, error) {
	if q.repo == nil {
		return nil, types.ErrMissingDirectoryRepository
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	enabled, err := featureEnabled(ctx, q.gate, featureNameSearch)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrSearchDisabled
	}
	return q.repo.SearchByNamePrefix(ctx, input.Prefix, input.ChainID)
}
