package types

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile is a named identity that owns one or more public key bindings. A
// profile never exists without at least one binding; removing the last binding
// removes the profile and frees its name for reuse.
type Profile struct {
	ID        uuid.UUID
	Name      string
	Nonce     int64
	Avatar    *NFTReference
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NFTReference points at the token backing a profile avatar. A nil reference
// means the profile has no avatar; the zero value is never stored.
type NFTReference struct {
	ChainID           string
	CollectionAddress string
	TokenID           string
}

// PublicKeyBinding associates one public key with exactly one profile. The
// public key is globally unique across all bindings at any instant.
type PublicKeyBinding struct {
	ID         uuid.UUID
	ProfileID  uuid.UUID
	PublicKey  string
	Bech32Hash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ChainPreference designates which binding is authoritative for a chain. The
// referenced binding always belongs to the same profile.
type ChainPreference struct {
	ProfileID          uuid.UUID
	ChainID            string
	PublicKeyBindingID uuid.UUID
	UpdatedAt          time.Time
}

// ProfileKey pairs a raw public key with its canonical bech32 hash.
type ProfileKey struct {
	PublicKey  string
	Bech32Hash string
}

// ChainKey reports the effective public key for a chain.
type ChainKey struct {
	ChainID   string
	PublicKey string
}

// ProfileUpdate carries the mutable profile fields applied by Save.
type ProfileUpdate struct {
	Name   string
	Nonce  int64
	Avatar *NFTReference
}

// SearchResult is one row of a name-prefix search. The key is the one
// preferred for the searched chain, not an arbitrary binding.
type SearchResult struct {
	PublicKey  string
	Bech32Hash string
	ProfileID  uuid.UUID
	Profile    Profile
}

// DirectoryRepository is the persistence contract for the identity directory.
// All read paths treat absence as a nil/zero result, never an error. Every
// multi-row mutation executes inside a single transaction.
type DirectoryRepository interface {
	GetByName(ctx context.Context, name string) (*Profile, error)
	GetByPublicKey(ctx context.Context, publicKey string) (*Profile, error)
	GetByHash(ctx context.Context, hash string) (*Profile, error)
	GetNonce(ctx context.Context, publicKey string) (int64, error)
	GetPublicKeyForHash(ctx context.Context, hash string) (string, error)
	SearchByNamePrefix(ctx context.Context, prefix, chainID string) ([]SearchResult, error)
	GetPreferredKey(ctx context.Context, profileID uuid.UUID, chainID string) (*ProfileKey, error)
	ListBindings(ctx context.Context, profileID uuid.UUID) ([]PublicKeyBinding, error)
	ListPreferredKeyPerChain(ctx context.Context, profileID uuid.UUID) ([]ChainKey, error)

	Save(ctx context.Context, key ProfileKey, update ProfileUpdate, chainIDs []string) (*Profile, error)
	IncrementNonce(ctx context.Context, profileID uuid.UUID) error
	SetChainPreferences(ctx context.Context, profileID, bindingID uuid.UUID, chainIDs []string) error
	AddPublicKey(ctx context.Context, profileID uuid.UUID, key ProfileKey, chainIDs []string) (*PublicKeyBinding, error)
	RemovePublicKeys(ctx context.Context, profileID uuid.UUID, publicKeys []string) (bool, error)
}

// IdentityResolver derives chain addresses and the canonical hash from a raw
// public key. Both derivations are pure and deterministic; a malformed key is
// a client input error, never a server fault.
type IdentityResolver interface {
	DeriveAddress(publicKey, chainPrefix string) (string, error)
	DeriveHash(publicKey string) (string, error)
}

// AvatarResolver resolves the image URL behind an NFT reference. It is fully
// decoupled from the directory's consistency guarantees.
type AvatarResolver interface {
	ResolveImageURL(ctx context.Context, ref NFTReference) (string, error)
}

// ProfileEvent signals that a profile was created or its fields changed.
type ProfileEvent struct {
	ProfileID  uuid.UUID
	Name       string
	Created    bool
	OccurredAt time.Time
	Profile    Profile
}

// KeyEvent signals binding changes, including ownership transfers and the
// cascading deletion of a profile that lost its last key.
type KeyEvent struct {
	ProfileID      uuid.UUID
	PublicKeys     []string
	Action         string
	ProfileDeleted bool
	OccurredAt     time.Time
}

// PreferenceEvent signals per-chain preference mutations.
type PreferenceEvent struct {
	ProfileID  uuid.UUID
	BindingID  uuid.UUID
	ChainIDs   []string
	OccurredAt time.Time
}

// SignedRequest carries the replay-protection fields of a signed mutation
// payload: the signer's public key and the nonce it was signed with.
type SignedRequest struct {
	PublicKey string
	Nonce     int64
}

// Hooks groups optional callbacks invoked after directory mutations commit.
type Hooks struct {
	AfterProfileChange    func(context.Context, ProfileEvent)
	AfterKeyChange        func(context.Context, KeyEvent)
	AfterPreferenceChange func(context.Context, PreferenceEvent)
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

// NopAvatarResolver never resolves an image URL.
type NopAvatarResolver struct{}

// ResolveImageURL implements AvatarResolver.
func (NopAvatarResolver) ResolveImageURL(context.Context, NFTReference) (string, error) {
	return "", nil
}

// NormalizeChainIDs trims and de-duplicates chain identifiers while keeping
// the caller's ordering.
func NormalizeChainIDs(chainIDs []string) []string {
	if len(chainIDs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(chainIDs))
	out := make([]string, 0, len(chainIDs))
	for _, id := range chainIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Clone returns a detached copy of the reference so callers can mutate safely.
func (r *NFTReference) Clone() *NFTReference {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

var (
	// ErrProfileIDRequired indicates a profile identifier was omitted.
	ErrProfileIDRequired = errors.New("go-identity: profile id required")
	// ErrPublicKeyRequired indicates a public key was omitted.
	ErrPublicKeyRequired = errors.New("go-identity: public key required")
	// ErrProfileNameRequired indicates a profile name was omitted.
	ErrProfileNameRequired = errors.New("go-identity: profile name required")
	// ErrChainIDRequired indicates a chain identifier was omitted.
	ErrChainIDRequired = errors.New("go-identity: chain id required")
	// ErrBindingIDRequired indicates a binding identifier was omitted.
	ErrBindingIDRequired = errors.New("go-identity: binding id required")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-identity: service not ready")
	// ErrMissingDirectoryRepository occurs when no directory repository was supplied.
	ErrMissingDirectoryRepository = errors.New("go-identity: missing directory repository")
	// ErrMissingIdentityResolver occurs when no identity resolver was supplied.
	ErrMissingIdentityResolver = errors.New("go-identity: missing identity resolver")
)
