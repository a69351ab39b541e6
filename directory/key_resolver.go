package directory

import (
	"context"
	"fmt"

	opts "github.com/goliatone/go-options"
	"github.com/goliatone/go-identity/pkg/types"
	"github.com/google/uuid"
)

// KeyResolverConfig wires dependencies for the effective-key resolver.
type KeyResolverConfig struct {
	Repository types.DirectoryRepository
}

// KeyResolver computes the effective signing key per chain by merging layered
// sources via go-options: the profile's oldest binding is the default layer,
// explicit chain preferences sit on top and always win.
type KeyResolver struct {
	repo types.DirectoryRepository
}

// KeySnapshot depicts the effective key per chain plus provenance.
type KeySnapshot struct {
	Effective map[string]string
	Traces    []KeyTrace
}

// KeyTrace captures which layer supplied the key for a chain.
type KeyTrace struct {
	ChainID   string
	PublicKey string
	Source    string
	Explicit  bool
}

const (
	keySourceDefault    = "default"
	keySourcePreference = "preference"
)

// NewKeyResolver constructs the resolver.
func NewKeyResolver(cfg KeyResolverConfig) (*KeyResolver, error) {
	if cfg.Repository == nil {
		return nil, fmt.Errorf("directory: repository required")
	}
	return &KeyResolver{repo: cfg.Repository}, nil
}

// Resolve builds the effective key snapshot for the supplied chains. When no
// chains are given, every chain the profile has a preference on participates.
// A profile with no bindings yields an empty snapshot.
func (r *KeyResolver) Resolve(ctx context.Context, profileID uuid.UUID, chainIDs []string) (KeySnapshot, error) {
	if profileID == uuid.Nil {
		return KeySnapshot{}, types.ErrProfileIDRequired
	}
	bindings, err := r.repo.ListBindings(ctx, profileID)
	if err != nil {
		return KeySnapshot{}, err
	}
	if len(bindings) == 0 {
		return KeySnapshot{Effective: map[string]string{}}, nil
	}
	defaultKey := bindings[0].PublicKey

	preferred, err := r.repo.ListPreferredKeyPerChain(ctx, profileID)
	if err != nil {
		return KeySnapshot{}, err
	}
	prefByChain := make(map[string]string, len(preferred))
	for _, entry := range preferred {
		prefByChain[entry.ChainID] = entry.PublicKey
	}

	chains := types.NormalizeChainIDs(chainIDs)
	if len(chains) == 0 {
		chains = make([]string, 0, len(preferred))
		for _, entry := range preferred {
			chains = append(chains, entry.ChainID)
		}
	}
	if len(chains) == 0 {
		return KeySnapshot{Effective: map[string]string{}}, nil
	}

	base := make(map[string]any, len(chains))
	for _, chainID := range chains {
		base[chainID] = defaultKey
	}
	explicit := make(map[string]any, len(chains))
	for _, chainID := range chains {
		if key, ok := prefByChain[chainID]; ok {
			explicit[chainID] = key
		}
	}

	defaultScope := opts.NewScope(keySourceDefault, opts.ScopePrioritySystem,
		opts.WithScopeLabel("Default Binding"))
	preferenceScope := opts.NewScope(keySourcePreference, opts.ScopePriorityUser,
		opts.WithScopeLabel("Chain Preference"))

	stack, err := opts.NewStack(
		opts.NewLayer(defaultScope, base, opts.WithSnapshotID[map[string]any](defaultScope.Name)),
		opts.NewLayer(preferenceScope, explicit, opts.WithSnapshotID[map[string]any](preferenceScope.Name)),
	)
	if err != nil {
		return KeySnapshot{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return KeySnapshot{}, err
	}

	effective := make(map[string]string, len(merged.Value))
	for chainID, value := range merged.Value {
		key, ok := value.(string)
		if !ok {
			return KeySnapshot{}, fmt.Errorf("directory: unexpected merged value for chain %q", chainID)
		}
		effective[chainID] = key
	}
	traces := make([]KeyTrace, 0, len(chains))
	for _, chainID := range chains {
		trace := KeyTrace{
			ChainID:   chainID,
			PublicKey: effective[chainID],
			Source:    keySourceDefault,
		}
		if _, ok := explicit[chainID]; ok {
			trace.Source = keySourcePreference
			trace.Explicit = true
		}
		traces = append(traces, trace)
	}
	return KeySnapshot{Effective: effective, Traces: traces}, nil
}
