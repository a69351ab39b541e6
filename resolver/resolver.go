// Package resolver derives chain addresses and the canonical bech32 hash from
// raw secp256k1 public keys. Both derivations are pure and deterministic so
// the directory can use them as lookup keys.
package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/bech32"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity/pkg/types"
	"golang.org/x/crypto/ripemd160"
)

// Bech32Resolver implements types.IdentityResolver for cosmos-style chains:
// address bytes are ripemd160(sha256(pubkey)), encoded as bech32 under the
// chain's prefix. The canonical hash is the hex form of the same digest.
type Bech32Resolver struct{}

// New constructs the default resolver.
func New() Bech32Resolver {
	return Bech32Resolver{}
}

var _ types.IdentityResolver = (*Bech32Resolver)(nil)

// DeriveAddress encodes the key digest as a bech32 address under chainPrefix.
func (Bech32Resolver) DeriveAddress(publicKey, chainPrefix string) (string, error) {
	chainPrefix = strings.TrimSpace(chainPrefix)
	if chainPrefix == "" {
		return "", goerrors.New("go-identity: chain prefix required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	digest, err := keyDigest(publicKey)
	if err != nil {
		return "", err
	}
	words, err := bech32.ConvertBits(digest, 8, 5, true)
	if err != nil {
		return "", goerrors.New("go-identity: address encoding failed", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}
	address, err := bech32.Encode(chainPrefix, words)
	if err != nil {
		return "", goerrors.New("go-identity: address encoding failed", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}
	return address, nil
}

// DeriveHash returns the canonical hex digest of the public key.
func (Bech32Resolver) DeriveHash(publicKey string) (string, error) {
	digest, err := keyDigest(publicKey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}

func keyDigest(publicKey string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(publicKey))
	if err != nil {
		return nil, invalidKey("public key is not hex encoded")
	}
	if _, err := btcec.ParsePubKey(raw); err != nil {
		return nil, invalidKey("public key is not a valid secp256k1 point")
	}
	sha := sha256.Sum256(raw)
	hasher := ripemd160.New()
	hasher.Write(sha[:])
	return hasher.Sum(nil), nil
}

func invalidKey(reason string) error {
	return goerrors.New("go-identity: "+reason, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest)
}
