package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-identity/pkg/types"
	"github.com/goliatone/go-identity/replay"
	"github.com/google/uuid"
)

// SetChainPreferencesConfig wires dependencies for preference mutations.
type SetChainPreferencesConfig struct {
	Repository  types.DirectoryRepository
	ReplayGuard replay.Guard
	Hooks       types.Hooks
	Clock       types.Clock
}

// SetChainPreferencesInput points the named chains at one of the profile's
// own bindings. Existing preferences for those chains are overwritten.
type SetChainPreferencesInput struct {
	ProfileID uuid.UUID
	BindingID uuid.UUID
	ChainIDs  []string
	Signer    types.SignedRequest
}

// SetChainPreferencesCommand upserts per-chain authoritative-key preferences.
type SetChainPreferencesCommand struct {
	repo  types.DirectoryRepository
	guard replay.Guard
	hooks types.Hooks
	clock types.Clock
}

// NewSetChainPreferencesCommand constructs the handler.
func NewSetChainPreferencesCommand(cfg SetChainPreferencesConfig) *SetChainPreferencesCommand {
	return &SetChainPreferencesCommand{
		repo:  cfg.Repository,
		guard: safeReplayGuard(cfg.ReplayGuard),
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
	}
}

var _ gocommand.Commander[SetChainPreferencesInput] = (*SetChainPreferencesCommand)(nil)

// Execute applies the preference set atomically.
func (c *SetChainPreferencesCommand) Execute(ctx context.Context, input SetChainPreferencesInput) error {
	if c.repo == nil {
		return types.ErrMissingDirectoryRepository
	}
	if input.ProfileID == uuid.Nil {
		return ErrProfileIDRequired
	}
	if input.BindingID == uuid.Nil {
		return ErrBindingIDRequired
	}
	chainIDs := types.NormalizeChainIDs(input.ChainIDs)
	if len(chainIDs) == 0 {
		return ErrChainIDsRequired
	}
	if err := c.guard.Check(ctx, input.Signer); err != nil {
		return err
	}

	if err := c.repo.SetChainPreferences(ctx, input.ProfileID, input.BindingID, chainIDs); err != nil {
		return err
	}
	emitPreferenceHook(ctx, c.hooks, types.PreferenceEvent{
		ProfileID:  input.ProfileID,
		BindingID:  input.BindingID,
		ChainIDs:   chainIDs,
		OccurredAt: now(c.clock),
	})
	return nil
}
