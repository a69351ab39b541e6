package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-identity/pkg/types"
	"github.com/google/uuid"
)

// IncrementNonceConfig wires dependencies for the replay counter advance.
type IncrementNonceConfig struct {
	Repository types.DirectoryRepository
}

// IncrementNonceInput advances the stored replay nonce by exactly one. The
// calling layer runs this after a signed mutation commits.
type IncrementNonceInput struct {
	ProfileID uuid.UUID
}

// IncrementNonceCommand advances the per-profile replay counter.
type IncrementNonceCommand struct {
	repo types.DirectoryRepository
}

// NewIncrementNonceCommand constructs the handler.
func NewIncrementNonceCommand(cfg IncrementNonceConfig) *IncrementNonceCommand {
	return &IncrementNonceCommand{repo: cfg.Repository}
}

var _ gocommand.Commander[IncrementNonceInput] = (*IncrementNonceCommand)(nil)

// Execute advances the counter.
func (c *IncrementNonceCommand) Execute(ctx context.Context, input IncrementNonceInput) error {
	if c.repo == nil {
		return types.ErrMissingDirectoryRepository
	}
	if input.ProfileID == uuid.Nil {
		return ErrProfileIDRequired
	}
	return c.repo.IncrementNonce(ctx, input.ProfileID)
}
