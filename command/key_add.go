package command

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-identity/pkg/types"
	"github.com/goliatone/go-identity/replay"
	"github.com/google/uuid"
)

// AddPublicKeyConfig wires dependencies for key ownership transfer.
type AddPublicKeyConfig struct {
	Repository  types.DirectoryRepository
	Resolver    types.IdentityResolver
	Gate        featuregate.FeatureGate
	ReplayGuard replay.Guard
	Hooks       types.Hooks
	Clock       types.Clock
	Logger      types.Logger
}

// AddPublicKeyInput binds a key to the target profile. A key owned by another
// profile is detached first; detaching the last key deletes the prior owner.
type AddPublicKeyInput struct {
	ProfileID uuid.UUID
	PublicKey string
	ChainIDs  []string
	Signer    types.SignedRequest
	Result    *types.PublicKeyBinding
}

// AddPublicKeyCommand performs the key ownership transfer.
type AddPublicKeyCommand struct {
	repo     types.DirectoryRepository
	resolver types.IdentityResolver
	gate     featuregate.FeatureGate
	guard    replay.Guard
	hooks    types.Hooks
	clock    types.Clock
	logger   types.Logger
}

// NewAddPublicKeyCommand constructs the handler.
func NewAddPublicKeyCommand(cfg AddPublicKeyConfig) *AddPublicKeyCommand {
	return &AddPublicKeyCommand{
		repo:     cfg.Repository,
		resolver: cfg.Resolver,
		gate:     cfg.Gate,
		guard:    safeReplayGuard(cfg.ReplayGuard),
		hooks:    safeHooks(cfg.Hooks),
		clock:    safeClock(cfg.Clock),
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[AddPublicKeyInput] = (*AddPublicKeyCommand)(nil)

// Execute transfers the key and applies the optional chain preferences.
func (c *AddPublicKeyCommand) Execute(ctx context.Context, input AddPublicKeyInput) error {
	if c.repo == nil {
		return types.ErrMissingDirectoryRepository
	}
	if c.resolver == nil {
		return types.ErrMissingIdentityResolver
	}
	if input.ProfileID == uuid.Nil {
		return ErrProfileIDRequired
	}
	if strings.TrimSpace(input.PublicKey) == "" {
		return ErrPublicKeyRequired
	}
	enabled, err := featureEnabled(ctx, c.gate, featureKeyTransfer)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrKeyTransferDisabled
	}
	if err := c.guard.Check(ctx, input.Signer); err != nil {
		return err
	}

	hash, err := c.resolver.DeriveHash(input.PublicKey)
	if err != nil {
		return err
	}
	binding, err := c.repo.AddPublicKey(ctx, input.ProfileID, types.ProfileKey{
		PublicKey:  strings.TrimSpace(input.PublicKey),
		Bech32Hash: hash,
	}, input.ChainIDs)
	if err != nil {
		return err
	}
	if input.Result != nil && binding != nil {
		*input.Result = *binding
	}
	emitKeyHook(ctx, c.hooks, types.KeyEvent{
		ProfileID:  input.ProfileID,
		PublicKeys: []string{strings.TrimSpace(input.PublicKey)},
		Action:     "key.added",
		OccurredAt: now(c.clock),
	})
	return nil
}
