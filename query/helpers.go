package query

import (
	"context"
	"errors"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-identity/pkg/types"
)

// ErrSearchDisabled indicates name search is disabled via feature gate.
var ErrSearchDisabled = errors.New("go-identity: name search disabled")

const featureNameSearch = "identity.search"

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func featureEnabled(ctx context.Context, gate featuregate.FeatureGate, key string) (bool, error) {
	if gate == nil {
		return true, nil
	}
	return gate.Enabled(ctx, key)
}
