package command

import (
	"errors"

	"github.com/goliatone/go-identity/pkg/types"
)

var (
	// ErrProfileIDRequired occurs when a mutation omits the profile id.
	ErrProfileIDRequired = types.ErrProfileIDRequired
	// ErrPublicKeyRequired occurs when a mutation omits the public key.
	ErrPublicKeyRequired = types.ErrPublicKeyRequired
	// ErrProfileNameRequired occurs when a save omits the profile name.
	ErrProfileNameRequired = types.ErrProfileNameRequired
	// ErrChainIDsRequired occurs when a preference mutation has no chain ids.
	ErrChainIDsRequired = errors.New("go-identity: chain ids required")
	// ErrBindingIDRequired occurs when a preference mutation omits the binding.
	ErrBindingIDRequired = types.ErrBindingIDRequired
	// ErrPublicKeysRequired occurs when a removal names no keys.
	ErrPublicKeysRequired = errors.New("go-identity: public keys required")
	// ErrKeyTransferDisabled indicates key transfer is disabled via feature gate.
	ErrKeyTransferDisabled = errors.New("go-identity: key transfer disabled")
)
