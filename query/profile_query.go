package query

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-identity/pkg/types"
)

// ProfileResult pairs a profile with its resolved avatar image URL. The URL
// is empty when the profile has no avatar or resolution failed.
type ProfileResult struct {
	Profile   types.Profile
	AvatarURL string
}

// ProfileByNameInput scopes lookups by unique profile name.
type ProfileByNameInput struct {
	Name string
}

// Validate reports whether the input can be executed.
func (input ProfileByNameInput) Validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return types.ErrProfileNameRequired
	}
	return nil
}

// ProfileByPublicKeyInput scopes lookups by a bound public key.
type ProfileByPublicKeyInput struct {
	PublicKey string
}

// Validate reports whether the input can be executed.
func (input ProfileByPublicKeyInput) Validate() error {
	if strings.TrimSpace(input.PublicKey) == "" {
		return types.ErrPublicKeyRequired
	}
	return nil
}

// ProfileByHashInput scopes lookups by a binding's canonical hash.
type ProfileByHashInput struct {
	Hash string
}

// Validate reports whether the input can be executed.
func (input ProfileByHashInput) Validate() error {
	if strings.TrimSpace(input.Hash) == "" {
		return types.ErrPublicKeyRequired
	}
	return nil
}

// ProfileByNameQuery fetches the profile owning a name. An absent profile is
// a nil result, not an error.
type ProfileByNameQuery struct {
	repo    types.DirectoryRepository
	avatars types.AvatarResolver
	logger  types.Logger
}

// NewProfileByNameQuery constructs the query helper.
func NewProfileByNameQuery(repo types.DirectoryRepository, avatars types.AvatarResolver, logger types.Logger) *ProfileByNameQuery {
	return &ProfileByNameQuery{
		repo:    repo,
		avatars: avatars,
		logger:  safeLogger(logger),
	}
}

var _ gocommand.Querier[ProfileByNameInput, *ProfileResult] = (*ProfileByNameQuery)(nil)

// Query returns the profile for the supplied name.
func (q *ProfileByNameQuery) Query(ctx context.Context, input ProfileByNameInput) (*ProfileResult, error) {
	if q.repo == nil {
		return nil, types.ErrMissingDirectoryRepository
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	profile, err := q.repo.GetByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	return decorateProfile(ctx, q.avatars, q.logger, profile), nil
}

// ProfileByPublicKeyQuery fetches the profile a public key is bound to.
type ProfileByPublicKeyQuery struct {
	repo    types.DirectoryRepository
	avatars types.AvatarResolver
	logger  types.Logger
}

// NewProfileByPublicKeyQuery constructs the query helper.
func NewProfileByPublicKeyQuery(repo types.DirectoryRepository, avatars types.AvatarResolver, logger types.Logger) *ProfileByPublicKeyQuery {
	return &ProfileByPublicKeyQuery{
		repo:    repo,
		avatars: avatars,
		logger:  safeLogger(logger),
	}
}

var _ gocommand.Querier[ProfileByPublicKeyInput, *ProfileResult] = (*ProfileByPublicKeyQuery)(nil)

// Query returns the profile for the supplied public key.
func (q *ProfileByPublicKeyQuery) Query(ctx context.Context, input ProfileByPublicKeyInput) (*ProfileResult, error) {
	if q.repo == nil {
		return nil, types.ErrMissingDirectoryRepository
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	profile, err := q.repo.GetByPublicKey(ctx, input.PublicKey)
	if err != nil {
		return nil, err
	}
	return decorateProfile(ctx, q.avatars, q.logger, profile), nil
}

// ProfileByHashQuery fetches the profile whose binding carries a hash.
type ProfileByHashQuery struct {
	repo    types.DirectoryRepository
	avatars types.AvatarResolver
	logger  types.Logger
}

// NewProfileByHashQuery constructs the query helper.
func NewProfileByHashQuery(repo types.DirectoryRepository, avatars types.AvatarResolver, logger types.Logger) *ProfileByHashQuery {
	return &ProfileByHashQuery{
		repo:    repo,
		avatars: avatars,
		logger:  safeLogger(logger),
	}
}

var _ gocommand.Querier[ProfileByHashInput, *ProfileResult] = (*ProfileByHashQuery)(nil)

// Query returns the profile for the supplied canonical hash.
func (q *ProfileByHashQuery) Query(ctx context.Context, input ProfileByHashInput) (*ProfileResult, error) {
	if q.repo == nil {
		return nil, types.ErrMissingDirectoryRepository
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	profile, err := q.repo.GetByHash(ctx, input.Hash)
	if err != nil {
		return nil, err
	}
	return decorateProfile(ctx, q.avatars, q.logger, profile), nil
}

// decorateProfile attaches the avatar image URL. Resolution failures are
// logged and never fail the lookup.
func decorateProfile(ctx context.Context, avatars types.AvatarResolver, logger types.Logger, profile *types.Profile) *ProfileResult {
	if profile == nil {
		return nil
	}
	result := &ProfileResult{Profile: *profile}
	if avatars == nil || profile.Avatar == nil {
		return result
	}
	url, err := avatars.ResolveImageURL(ctx, *profile.Avatar)
	if err != nil {
		logger.Error("avatar resolution failed", err, "profile_id", profile.ID)
		return result
	}
	result.AvatarURL = url
	return result
}
