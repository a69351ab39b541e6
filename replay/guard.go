// Package replay guards profile mutations against replayed signed requests.
// Enforcement is opt-in: the external signature verifier may validate nonces
// itself, in which case commands run with the nop guard and the stored
// counter is advanced after the mutation commits.
package replay

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity/pkg/types"
)

// Guard validates the nonce carried by a signed mutation request against the
// stored profile nonce. It is intentionally small so callers can swap custom
// guards in tests if needed.
type Guard interface {
	Check(ctx context.Context, signer types.SignedRequest) error
}

type guard struct {
	source NonceSource
}

// NonceSource reads the stored nonce for the profile owning a public key.
// An unknown key reads as zero, so the first signed request carries nonce 0.
type NonceSource interface {
	GetNonce(ctx context.Context, publicKey string) (int64, error)
}

// NewGuard builds a Guard from the supplied nonce source. A nil source is
// treated as a no-op.
func NewGuard(source NonceSource) Guard {
	return guard{source: source}
}

// Ensure returns a non-nil guard so command constructors can accept nil
// guards when tests instantiate them directly.
func Ensure(g Guard) Guard {
	if g == nil {
		return guard{}
	}
	return g
}

// NopGuard returns a guard that never blocks.
func NopGuard() Guard {
	return guard{}
}

// Check compares the request nonce with the stored value. A signer without a
// public key opted out of in-process enforcement and passes through.
func (g guard) Check(ctx context.Context, signer types.SignedRequest) error {
	if g.source == nil {
		return nil
	}
	if strings.TrimSpace(signer.PublicKey) == "" {
		return nil
	}
	stored, err := g.source.GetNonce(ctx, signer.PublicKey)
	if err != nil {
		return err
	}
	if stored != signer.Nonce {
		return goerrors.New("go-identity: request nonce does not match stored nonce", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}
	return nil
}
