package resolver

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/require"
)

func TestBech32Resolver_DeriveHashIsDeterministic(t *testing.T) {
	r := New()
	key := newTestKey(t)

	first, err := r.DeriveHash(key)
	require.NoError(t, err)
	require.Len(t, first, 40)

	second, err := r.DeriveHash(key)
	require.NoError(t, err)
	require.Equal(t, first, second)

	other, err := r.DeriveHash(newTestKey(t))
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}

func TestBech32Resolver_DeriveHashAcceptsWhitespace(t *testing.T) {
	r := New()
	key := newTestKey(t)

	trimmed, err := r.DeriveHash(key)
	require.NoError(t, err)
	padded, err := r.DeriveHash("  " + key + "\n")
	require.NoError(t, err)
	require.Equal(t, trimmed, padded)
}

func TestBech32Resolver_DeriveAddressUsesChainPrefix(t *testing.T) {
	r := New()
	key := newTestKey(t)

	cosmos, err := r.DeriveAddress(key, "cosmos")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(cosmos, "cosmos1"))

	osmo, err := r.DeriveAddress(key, "osmo")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(osmo, "osmo1"))
	require.NotEqual(t, cosmos, osmo)
}

func TestBech32Resolver_DeriveAddressRequiresPrefix(t *testing.T) {
	r := New()
	_, err := r.DeriveAddress(newTestKey(t), " ")
	require.Error(t, err)
	requireValidationError(t, err)
}

func TestBech32Resolver_RejectsMalformedKeys(t *testing.T) {
	r := New()

	cases := map[string]string{
		"not hex":       "zzzz",
		"empty":         "",
		"not a point":   hex.EncodeToString(make([]byte, 33)),
		"truncated hex": "02abc",
	}
	for name, key := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.DeriveHash(key)
			require.Error(t, err)
			requireValidationError(t, err)

			_, err = r.DeriveAddress(key, "cosmos")
			require.Error(t, err)
		})
	}
}

func requireValidationError(t *testing.T, err error) {
	t.Helper()
	var rich *goerrors.Error
	require.ErrorAs(t, err, &rich)
	require.Equal(t, goerrors.CategoryValidation, rich.Category)
}

func newTestKey(t *testing.T) string {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return hex.EncodeToString(priv.PubKey().SerializeCompressed())
}
