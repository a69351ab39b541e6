package query

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-identity/pkg/types"
	"github.com/google/uuid"
)

// PreferredKeyInput scopes the preferred-key lookup for one chain.
type PreferredKeyInput struct {
	ProfileID uuid.UUID
	ChainID   string
}

// Validate reports whether the input can be executed.
func (input PreferredKeyInput) Validate() error {
	if input.ProfileID == uuid.Nil {
		return types.ErrProfileIDRequired
	}
	if strings.TrimSpace(input.ChainID) == "" {
		return types.ErrChainIDRequired
	}
	return nil
}

// PreferredKeyQuery returns the key a profile prefers for a chain, falling
// back to the oldest binding when no explicit preference exists.
type PreferredKeyQuery struct {
	repo types.DirectoryRepository
}

// NewPreferredKeyQuery constructs the query helper.
func NewPreferredKeyQuery(repo types.DirectoryRepository) *PreferredKeyQuery {
	return &PreferredKeyQuery{repo: repo}
}

var _ gocommand.Querier[PreferredKeyInput, *types.ProfileKey] = (*PreferredKeyQuery)(nil)

// Query returns the preferred key, or nil when the profile has no bindings.
func (q *PreferredKeyQuery) Query(ctx context.Context, input PreferredKeyInput) (*types.ProfileKey, error) {
	if q.repo == nil {
		return nil, types.ErrMissingDirectoryRepository
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return q.repo.GetPreferredKey(ctx, input.ProfileID, input.ChainID)
}

// ChainKeysInput scopes the per-chain preferred key listing.
type ChainKeysInput struct {
	ProfileID uuid.UUID
}

// Validate reports whether the input can be executed.
func (input ChainKeysInput) Validate() error {
	if input.ProfileID == uuid.Nil {
		return types.ErrProfileIDRequired
	}
	return nil
}

// ChainKeysQuery lists every chain with an explicit key preference.
type ChainKeysQuery struct {
	repo types.DirectoryRepository
}

// NewChainKeysQuery constructs the query helper.
func NewChainKeysQuery(repo types.DirectoryRepository) *ChainKeysQuery {
	return &ChainKeysQuery{repo: repo}
}

var _ gocommand.Querier[ChainKeysInput, []types.ChainKey] = (*ChainKeysQuery)(nil)

// Query returns the chain-to-key map as a slice of pairs.
func (q *ChainKeysQuery) Query(ctx context.Context, input ChainKeysInput) ([]types.ChainKey, error) {
	if q.repo == nil {
		return nil, types.ErrMissingDirectoryRepository
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return q.repo.ListPreferredKeyPerChain(ctx, input.ProfileID)
}

// BindingsInput scopes the key binding listing.
type BindingsInput struct {
	ProfileID uuid.UUID
}

// Validate reports whether the input can be executed.
func (input BindingsInput) Validate() error {
	if input.ProfileID == uuid.Nil {
		return types.ErrProfileIDRequired
	}
	return nil
}

// BindingsQuery lists a profile's public key bindings oldest first.
type BindingsQuery struct {
	repo types.DirectoryRepository
}

// NewBindingsQuery constructs the query helper.
func NewBindingsQuery(repo types.DirectoryRepository) *BindingsQuery {
	return &BindingsQuery{repo: repo}
}

var _ gocommand.Querier[BindingsInput, []types.PublicKeyBinding] = (*BindingsQuery)(nil)

// Query returns the bindings for the supplied profile.
func (q *BindingsQuery) Query(ctx context.Context, input BindingsInput) ([]types.PublicKeyBinding, error) {
	if q.repo == nil {
		return nil, types.ErrMissingDirectoryRepository
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return q.repo.ListBindings(ctx, input.ProfileID)
}

// NonceInput scopes the replay counter lookup.
type NonceInput struct {
	PublicKey string
}

// Validate reports whether the input can be executed.
func (input NonceInput) Validate() error {
	if strings.TrimSpace(input.PublicKey) == "" {
		return types.ErrPublicKeyRequired
	}
	return nil
}

// NonceQuery returns the replay counter for the profile owning a key. An
// unbound key reports zero.
type NonceQuery struct {
	repo types.DirectoryRepository
}

// NewNonceQuery constructs the query helper.
func NewNonceQuery(repo types.DirectoryRepository) *NonceQuery {
	return &NonceQuery{repo: repo}
}

var _ gocommand.Querier[NonceInput, int64] = (*NonceQuery)(nil)

// Query returns the current nonce for the supplied key.
func (q *NonceQuery) Query(ctx context.Context, input NonceInput) (int64, error) {
	if q.repo == nil {
		return 0, types.ErrMissingDirectoryRepository
	}
	if err := input.Validate(); err != nil {
		return 0, err
	}
	return q.repo.GetNonce(ctx, input.PublicKey)
}

// PublicKeyForHashInput scopes the reverse hash lookup.
type PublicKeyForHashInput struct {
	Hash string
}

// Validate reports whether the input can be executed.
func (input PublicKeyForHashInput) Validate() error {
	if strings.TrimSpace(input.Hash) == "" {
		return types.ErrPublicKeyRequired
	}
	return nil
}

// PublicKeyForHashQuery maps a canonical hash back to the bound public key.
type PublicKeyForHashQuery struct {
	repo types.DirectoryRepository
}

// NewPublicKeyForHashQuery constructs the query helper.
func NewPublicKeyForHashQuery(repo types.DirectoryRepository) *PublicKeyForHashQuery {
	return &PublicKeyForHashQuery{repo: repo}
}

var _ gocommand.Querier[PublicKeyForHashInput, string] = (*PublicKeyForHashQuery)(nil)

// Query returns the public key for the supplied hash, or empty when unbound.
func (q *PublicKeyForHashQuery) Query(ctx context.Context, input PublicKeyForHashInput) (string, error) {
	if q.repo == nil {
		return "", types.ErrMissingDirectoryRepository
	}
	if err := input.Validate(); err != nil {
		return "", err
	}
	return q.repo.GetPublicKeyForHash(ctx, input.Hash)
}
