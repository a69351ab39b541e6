package command

import (
	"context"
	"errors"
	"testing"
	"time"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-identity/pkg/types"
	"github.com/goliatone/go-identity/replay"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestProfileSaveCommand_CreatesProfileAndEmitsHook(t *testing.T) {
	repo := newFakeDirectoryRepo()
	var events []types.ProfileEvent
	cmd := NewProfileSaveCommand(ProfileSaveConfig{
		Repository: repo,
		Resolver:   stubResolver{},
		Hooks: types.Hooks{
			AfterProfileChange: func(_ context.Context, event types.ProfileEvent) {
				events = append(events, event)
			},
		},
		Clock: fixedClock{},
	})

	var result types.Profile
	err := cmd.Execute(context.Background(), ProfileSaveInput{
		PublicKey: "pk-1",
		Profile:   types.ProfileUpdate{Name: "alice"},
		ChainIDs:  []string{"cosmoshub-4"},
		Result:    &result,
	})
	require.NoError(t, err)
	require.Equal(t, "alice", result.Name)
	require.NotEqual(t, uuid.Nil, result.ID)
	require.Len(t, events, 1)
	require.True(t, events[0].Created)
	require.Equal(t, result.ID, events[0].ProfileID)

	require.Equal(t, "hash(pk-1)", repo.savedKeys["pk-1"])
}

func TestProfileSaveCommand_UpdateReportsNotCreated(t *testing.T) {
	repo := newFakeDirectoryRepo()
	var events []types.ProfileEvent
	cmd := NewProfileSaveCommand(ProfileSaveConfig{
		Repository: repo,
		Resolver:   stubResolver{},
		Hooks: types.Hooks{
			AfterProfileChange: func(_ context.Context, event types.ProfileEvent) {
				events = append(events, event)
			},
		},
	})

	require.NoError(t, cmd.Execute(context.Background(), ProfileSaveInput{
		PublicKey: "pk-1",
		Profile:   types.ProfileUpdate{Name: "before"},
	}))
	require.NoError(t, cmd.Execute(context.Background(), ProfileSaveInput{
		PublicKey: "pk-1",
		Profile:   types.ProfileUpdate{Name: "after"},
	}))
	require.Len(t, events, 2)
	require.True(t, events[0].Created)
	require.False(t, events[1].Created)
}

func TestProfileSaveCommand_ValidatesInput(t *testing.T) {
	cmd := NewProfileSaveCommand(ProfileSaveConfig{
		Repository: newFakeDirectoryRepo(),
		Resolver:   stubResolver{},
	})

	err := cmd.Execute(context.Background(), ProfileSaveInput{
		Profile: types.ProfileUpdate{Name: "alice"},
	})
	require.ErrorIs(t, err, ErrPublicKeyRequired)

	err = cmd.Execute(context.Background(), ProfileSaveInput{PublicKey: "pk-1"})
	require.ErrorIs(t, err, ErrProfileNameRequired)
}

func TestProfileSaveCommand_ReplayGuardBlocksStaleNonce(t *testing.T) {
	repo := newFakeDirectoryRepo()
	cmd := NewProfileSaveCommand(ProfileSaveConfig{
		Repository:  repo,
		Resolver:    stubResolver{},
		ReplayGuard: replay.NewGuard(staticNonceSource{nonce: 5}),
	})

	err := cmd.Execute(context.Background(), ProfileSaveInput{
		PublicKey: "pk-1",
		Profile:   types.ProfileUpdate{Name: "alice"},
		Signer:    types.SignedRequest{PublicKey: "pk-1", Nonce: 4},
	})
	require.Error(t, err)
	require.Empty(t, repo.savedKeys)
}

func TestAddPublicKeyCommand_BindsKeyWithDerivedHash(t *testing.T) {
	repo := newFakeDirectoryRepo()
	profileID := uuid.New()
	var events []types.KeyEvent
	cmd := NewAddPublicKeyCommand(AddPublicKeyConfig{
		Repository: repo,
		Resolver:   stubResolver{},
		Hooks: types.Hooks{
			AfterKeyChange: func(_ context.Context, event types.KeyEvent) {
				events = append(events, event)
			},
		},
	})

	var binding types.PublicKeyBinding
	err := cmd.Execute(context.Background(), AddPublicKeyInput{
		ProfileID: profileID,
		PublicKey: "pk-add",
		ChainIDs:  []string{"osmosis-1"},
		Result:    &binding,
	})
	require.NoError(t, err)
	require.Equal(t, profileID, binding.ProfileID)
	require.Equal(t, "hash(pk-add)", binding.Bech32Hash)
	require.Len(t, events, 1)
	require.Equal(t, "key.added", events[0].Action)
	require.Equal(t, []string{"pk-add"}, events[0].PublicKeys)
}

func TestAddPublicKeyCommand_FeatureGateDisables(t *testing.T) {
	repo := newFakeDirectoryRepo()
	gate := &stubFeatureGate{enabled: false}
	cmd := NewAddPublicKeyCommand(AddPublicKeyConfig{
		Repository: repo,
		Resolver:   stubResolver{},
		Gate:       gate,
	})

	err := cmd.Execute(context.Background(), AddPublicKeyInput{
		ProfileID: uuid.New(),
		PublicKey: "pk-add",
	})
	require.ErrorIs(t, err, ErrKeyTransferDisabled)
	require.Equal(t, []string{"identity.key_transfer"}, gate.keys)
	require.Empty(t, repo.bindings)
}

func TestAddPublicKeyCommand_ResolverErrorsBlockMutation(t *testing.T) {
	repo := newFakeDirectoryRepo()
	cmd := NewAddPublicKeyCommand(AddPublicKeyConfig{
		Repository: repo,
		Resolver:   stubResolver{err: errors.New("bad key")},
	})

	err := cmd.Execute(context.Background(), AddPublicKeyInput{
		ProfileID: uuid.New(),
		PublicKey: "pk-bad",
	})
	require.Error(t, err)
	require.Empty(t, repo.bindings)
}

func TestRemovePublicKeysCommand_ReportsProfileDeletion(t *testing.T) {
	repo := newFakeDirectoryRepo()
	repo.removeDeletesProfile = true
	profileID := uuid.New()
	var events []types.KeyEvent
	cmd := NewRemovePublicKeysCommand(RemovePublicKeysConfig{
		Repository: repo,
		Hooks: types.Hooks{
			AfterKeyChange: func(_ context.Context, event types.KeyEvent) {
				events = append(events, event)
			},
		},
	})

	var deleted bool
	err := cmd.Execute(context.Background(), RemovePublicKeysInput{
		ProfileID:  profileID,
		PublicKeys: []string{"pk-1", "pk-2"},
		Deleted:    &deleted,
	})
	require.NoError(t, err)
	require.True(t, deleted)
	require.Len(t, events, 1)
	require.Equal(t, "key.removed", events[0].Action)
	require.True(t, events[0].ProfileDeleted)
}

func TestRemovePublicKeysCommand_RequiresKeys(t *testing.T) {
	cmd := NewRemovePublicKeysCommand(RemovePublicKeysConfig{Repository: newFakeDirectoryRepo()})
	err := cmd.Execute(context.Background(), RemovePublicKeysInput{ProfileID: uuid.New()})
	require.ErrorIs(t, err, ErrPublicKeysRequired)
}

func TestSetChainPreferencesCommand_NormalizesChains(t *testing.T) {
	repo := newFakeDirectoryRepo()
	profileID := uuid.New()
	bindingID := uuid.New()
	var events []types.PreferenceEvent
	cmd := NewSetChainPreferencesCommand(SetChainPreferencesConfig{
		Repository: repo,
		Hooks: types.Hooks{
			AfterPreferenceChange: func(_ context.Context, event types.PreferenceEvent) {
				events = append(events, event)
			},
		},
	})

	err := cmd.Execute(context.Background(), SetChainPreferencesInput{
		ProfileID: profileID,
		BindingID: bindingID,
		ChainIDs:  []string{" cosmoshub-4 ", "cosmoshub-4", "osmosis-1"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"cosmoshub-4", "osmosis-1"}, repo.lastPreferenceChains)
	require.Len(t, events, 1)
	require.Equal(t, bindingID, events[0].BindingID)
}

func TestSetChainPreferencesCommand_RequiresChains(t *testing.T) {
	cmd := NewSetChainPreferencesCommand(SetChainPreferencesConfig{Repository: newFakeDirectoryRepo()})
	err := cmd.Execute(context.Background(), SetChainPreferencesInput{
		ProfileID: uuid.New(),
		BindingID: uuid.New(),
		ChainIDs:  []string{"  "},
	})
	require.ErrorIs(t, err, ErrChainIDsRequired)
}

func TestIncrementNonceCommand_AdvancesCounter(t *testing.T) {
	repo := newFakeDirectoryRepo()
	profileID := uuid.New()
	cmd := NewIncrementNonceCommand(IncrementNonceConfig{Repository: repo})

	require.NoError(t, cmd.Execute(context.Background(), IncrementNonceInput{ProfileID: profileID}))
	require.NoError(t, cmd.Execute(context.Background(), IncrementNonceInput{ProfileID: profileID}))
	require.Equal(t, int64(2), repo.nonces[profileID])

	err := cmd.Execute(context.Background(), IncrementNonceInput{})
	require.ErrorIs(t, err, ErrProfileIDRequired)
}

type fixedClock struct{}

func (fixedClock) Now() time.Time {
	return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
}

type stubResolver struct {
	err error
}

func (s stubResolver) DeriveAddress(publicKey, chainPrefix string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return chainPrefix + "1" + publicKey, nil
}

func (s stubResolver) DeriveHash(publicKey string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "hash(" + publicKey + ")", nil
}

type staticNonceSource struct {
	nonce int64
}

func (s staticNonceSource) GetNonce(context.Context, string) (int64, error) {
	return s.nonce, nil
}

type stubFeatureGate struct {
	enabled bool
	keys    []string
	err     error
}

func (s *stubFeatureGate) Enabled(_ context.Context, key string, _ ...featuregate.ResolveOption) (bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return false, s.err
	}
	return s.enabled, nil
}

type fakeDirectoryRepo struct {
	profiles             map[uuid.UUID]*types.Profile
	byKey                map[string]uuid.UUID
	bindings             map[uuid.UUID]*types.PublicKeyBinding
	savedKeys            map[string]string
	nonces               map[uuid.UUID]int64
	lastPreferenceChains []string
	removeDeletesProfile bool
}

func newFakeDirectoryRepo() *fakeDirectoryRepo {
	return &fakeDirectoryRepo{
		profiles:  map[uuid.UUID]*types.Profile{},
		byKey:     map[string]uuid.UUID{},
		bindings:  map[uuid.UUID]*types.PublicKeyBinding{},
		savedKeys: map[string]string{},
		nonces:    map[uuid.UUID]int64{},
	}
}

var _ types.DirectoryRepository = (*fakeDirectoryRepo)(nil)

func (f *fakeDirectoryRepo) GetByName(_ context.Context, name string) (*types.Profile, error) {
	for _, profile := range f.profiles {
		if profile.Name == name {
			return profile, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectoryRepo) GetByPublicKey(_ context.Context, publicKey string) (*types.Profile, error) {
	id, ok := f.byKey[publicKey]
	if !ok {
		return nil, nil
	}
	return f.profiles[id], nil
}

func (f *fakeDirectoryRepo) GetByHash(context.Context, string) (*types.Profile, error) {
	return nil, nil
}

func (f *fakeDirectoryRepo) GetNonce(_ context.Context, publicKey string) (int64, error) {
	if id, ok := f.byKey[publicKey]; ok {
		return f.nonces[id], nil
	}
	return 0, nil
}

func (f *fakeDirectoryRepo) GetPublicKeyForHash(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeDirectoryRepo) SearchByNamePrefix(context.Context, string, string) ([]types.SearchResult, error) {
	return nil, nil
}

func (f *fakeDirectoryRepo) GetPreferredKey(context.Context, uuid.UUID, string) (*types.ProfileKey, error) {
	return nil, nil
}

func (f *fakeDirectoryRepo) ListBindings(context.Context, uuid.UUID) ([]types.PublicKeyBinding, error) {
	return nil, nil
}

func (f *fakeDirectoryRepo) ListPreferredKeyPerChain(context.Context, uuid.UUID) ([]types.ChainKey, error) {
	return nil, nil
}

func (f *fakeDirectoryRepo) Save(_ context.Context, key types.ProfileKey, update types.ProfileUpdate, _ []string) (*types.Profile, error) {
	f.savedKeys[key.PublicKey] = key.Bech32Hash
	if id, ok := f.byKey[key.PublicKey]; ok {
		profile := f.profiles[id]
		profile.Name = update.Name
		profile.Nonce = update.Nonce
		profile.Avatar = update.Avatar
		return profile, nil
	}
	profile := &types.Profile{
		ID:     uuid.New(),
		Name:   update.Name,
		Nonce:  update.Nonce,
		Avatar: update.Avatar,
	}
	f.profiles[profile.ID] = profile
	f.byKey[key.PublicKey] = profile.ID
	return profile, nil
}

func (f *fakeDirectoryRepo) IncrementNonce(_ context.Context, profileID uuid.UUID) error {
	f.nonces[profileID]++
	return nil
}

func (f *fakeDirectoryRepo) SetChainPreferences(_ context.Context, _, _ uuid.UUID, chainIDs []string) error {
	f.lastPreferenceChains = chainIDs
	return nil
}

func (f *fakeDirectoryRepo) AddPublicKey(_ context.Context, profileID uuid.UUID, key types.ProfileKey, _ []string) (*types.PublicKeyBinding, error) {
	binding := &types.PublicKeyBinding{
		ID:         uuid.New(),
		ProfileID:  profileID,
		PublicKey:  key.PublicKey,
		Bech32Hash: key.Bech32Hash,
	}
	f.bindings[binding.ID] = binding
	f.byKey[key.PublicKey] = profileID
	return binding, nil
}

func (f *fakeDirectoryRepo) RemovePublicKeys(_ context.Context, profileID uuid.UUID, publicKeys []string) (bool, error) {
	for _, key := range publicKeys {
		delete(f.byKey, key)
	}
	if f.removeDeletesProfile {
		delete(f.profiles, profileID)
		return true, nil
	}
	return false, nil
}
