package command

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-identity/pkg/types"
	"github.com/goliatone/go-identity/replay"
)

// ProfileSaveConfig wires dependencies for the profile save command.
type ProfileSaveConfig struct {
	Repository  types.DirectoryRepository
	Resolver    types.IdentityResolver
	ReplayGuard replay.Guard
	Hooks       types.Hooks
	Clock       types.Clock
}

// ProfileSaveInput captures a create-or-update payload. The public key
// identifies the profile; when it is unbound a new profile is created and the
// optional chain ids become preferences on the fresh binding.
type ProfileSaveInput struct {
	PublicKey string
	Profile   types.ProfileUpdate
	ChainIDs  []string
	Signer    types.SignedRequest
	Result    *types.Profile
}

// ProfileSaveCommand creates or updates the profile owning a public key.
type ProfileSaveCommand struct {
	repo     types.DirectoryRepository
	resolver types.IdentityResolver
	guard    replay.Guard
	hooks    types.Hooks
	clock    types.Clock
}

// NewProfileSaveCommand constructs the handler.
func NewProfileSaveCommand(cfg ProfileSaveConfig) *ProfileSaveCommand {
	return &ProfileSaveCommand{
		repo:     cfg.Repository,
		resolver: cfg.Resolver,
		guard:    safeReplayGuard(cfg.ReplayGuard),
		hooks:    safeHooks(cfg.Hooks),
		clock:    safeClock(cfg.Clock),
	}
}

var _ gocommand.Commander[ProfileSaveInput] = (*ProfileSaveCommand)(nil)

// Execute validates and persists the profile payload.
func (c *ProfileSaveCommand) Execute(ctx context.Context, input ProfileSaveInput) error {
	if c.repo == nil {
		return types.ErrMissingDirectoryRepository
	}
	if c.resolver == nil {
		return types.ErrMissingIdentityResolver
	}
	if strings.TrimSpace(input.PublicKey) == "" {
		return ErrPublicKeyRequired
	}
	if strings.TrimSpace(input.Profile.Name) == "" {
		return ErrProfileNameRequired
	}
	if err := c.guard.Check(ctx, input.Signer); err != nil {
		return err
	}

	hash, err := c.resolver.DeriveHash(input.PublicKey)
	if err != nil {
		return err
	}
	existing, err := c.repo.GetByPublicKey(ctx, input.PublicKey)
	if err != nil {
		return err
	}
	saved, err := c.repo.Save(ctx, types.ProfileKey{
		PublicKey:  strings.TrimSpace(input.PublicKey),
		Bech32Hash: hash,
	}, input.Profile, input.ChainIDs)
	if err != nil {
		return err
	}
	if input.Result != nil && saved != nil {
		*input.Result = *saved
	}
	if saved != nil {
		emitProfileHook(ctx, c.hooks, types.ProfileEvent{
			ProfileID:  saved.ID,
			Name:       saved.Name,
			Created:    existing == nil,
			OccurredAt: now(c.clock),
			Profile:    *saved,
		})
	}
	return nil
}
