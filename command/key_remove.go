package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-identity/pkg/types"
	"github.com/goliatone/go-identity/replay"
	"github.com/google/uuid"
)

// RemovePublicKeysConfig wires dependencies for key removal.
type RemovePublicKeysConfig struct {
	Repository  types.DirectoryRepository
	ReplayGuard replay.Guard
	Hooks       types.Hooks
	Clock       types.Clock
}

// RemovePublicKeysInput removes the named keys from the profile. Keys not
// owned by the profile are ignored; removing every binding deletes the
// profile and frees its name.
type RemovePublicKeysInput struct {
	ProfileID  uuid.UUID
	PublicKeys []string
	Signer     types.SignedRequest
	Deleted    *bool
}

// RemovePublicKeysCommand deletes bindings and cascades to preferences.
type RemovePublicKeysCommand struct {
	repo  types.DirectoryRepository
	guard replay.Guard
	hooks types.Hooks
	clock types.Clock
}

// NewRemovePublicKeysCommand constructs the handler.
func NewRemovePublicKeysCommand(cfg RemovePublicKeysConfig) *RemovePublicKeysCommand {
	return &RemovePublicKeysCommand{
		repo:  cfg.Repository,
		guard: safeReplayGuard(cfg.ReplayGuard),
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
	}
}

var _ gocommand.Commander[RemovePublicKeysInput] = (*RemovePublicKeysCommand)(nil)

// Execute removes the keys inside one transaction.
func (c *RemovePublicKeysCommand) Execute(ctx context.Context, input RemovePublicKeysInput) error {
	if c.repo == nil {
		return types.ErrMissingDirectoryRepository
	}
	if input.ProfileID == uuid.Nil {
		return ErrProfileIDRequired
	}
	if len(input.PublicKeys) == 0 {
		return ErrPublicKeysRequired
	}
	if err := c.guard.Check(ctx, input.Signer); err != nil {
		return err
	}

	deleted, err := c.repo.RemovePublicKeys(ctx, input.ProfileID, input.PublicKeys)
	if err != nil {
		return err
	}
	if input.Deleted != nil {
		*input.Deleted = deleted
	}
	emitKeyHook(ctx, c.hooks, types.KeyEvent{
		ProfileID:      input.ProfileID,
		PublicKeys:     input.PublicKeys,
		Action:         "key.removed",
		ProfileDeleted: deleted,
		OccurredAt:     now(c.clock),
	})
	return nil
}
