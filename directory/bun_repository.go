package directory

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// searchLimit caps name-prefix search results.
const searchLimit = 5

// RepositoryConfig wires the Bun-backed directory repository. Either DB or all
// three repositories must be provided; when DB is supplied the repositories
// are created automatically.
type RepositoryConfig struct {
	DB          *bun.DB
	Profiles    repository.Repository[*Record]
	Keys        repository.Repository[*PublicKeyRecord]
	Preferences repository.Repository[*ChainPreferenceRecord]
	Clock       types.Clock
	IDGenerator types.IDGenerator
	Logger      types.Logger
}

// Repository implements types.DirectoryRepository using Bun. Multi-row
// mutations run inside one transaction so a partial failure never leaves a
// profile without a binding or a preference pointing at a deleted key.
type Repository struct {
	db       *bun.DB
	profiles repository.Repository[*Record]
	keys     repository.Repository[*PublicKeyRecord]
	prefs    repository.Repository[*ChainPreferenceRecord]
	clock    types.Clock
	idGen    types.IDGenerator
	logger   types.Logger
}

// NewRepository constructs the default directory repository.
func NewRepository(cfg RepositoryConfig, options ...RepositoryOption) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("directory: db required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGenerator
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}

	profiles := cfg.Profiles
	if profiles == nil {
		profiles = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(rec *Record) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *Record, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}
	keys := cfg.Keys
	if keys == nil {
		keys = repository.NewRepository(cfg.DB, repository.ModelHandlers[*PublicKeyRecord]{
			NewRecord: func() *PublicKeyRecord { return &PublicKeyRecord{} },
			GetID: func(rec *PublicKeyRecord) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *PublicKeyRecord, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}
	prefs := cfg.Preferences
	if prefs == nil {
		prefs = repository.NewRepository(cfg.DB, repository.ModelHandlers[*ChainPreferenceRecord]{
			NewRecord: func() *ChainPreferenceRecord { return &ChainPreferenceRecord{} },
			GetID: func(*ChainPreferenceRecord) uuid.UUID {
				return uuid.Nil
			},
			SetID: func(*ChainPreferenceRecord, uuid.UUID) {},
		})
	}

	profiles, keys, err := applyCacheOptions(profiles, keys, options)
	if err != nil {
		return nil, err
	}

	return &Repository{
		db:       cfg.DB,
		profiles: profiles,
		keys:     keys,
		prefs:    prefs,
		clock:    clock,
		idGen:    idGen,
		logger:   logger,
	}, nil
}

var _ types.DirectoryRepository = (*Repository)(nil)

// GetByName returns the profile owning the supplied name.
func (r *Repository) GetByName(ctx context.Context, name string) (*types.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.ErrProfileNameRequired
	}
	rec, err := r.profiles.Get(ctx, repository.SelectBy("name", "=", name))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toProfile(rec), nil
}

// GetByPublicKey returns the profile the supplied key is bound to.
func (r *Repository) GetByPublicKey(ctx context.Context, publicKey string) (*types.Profile, error) {
	binding, err := r.findBindingByKey(ctx, publicKey)
	if err != nil || binding == nil {
		return nil, err
	}
	return r.loadProfile(ctx, binding.ProfileID)
}

// GetByHash returns the profile whose binding carries the canonical hash.
func (r *Repository) GetByHash(ctx context.Context, hash string) (*types.Profile, error) {
	binding, err := r.findBindingByHash(ctx, hash)
	if err != nil || binding == nil {
		return nil, err
	}
	return r.loadProfile(ctx, binding.ProfileID)
}

// GetNonce returns the stored nonce for the profile owning the key, or zero
// when no profile owns it. An unknown key is a default, not an error.
func (r *Repository) GetNonce(ctx context.Context, publicKey string) (int64, error) {
	profile, err := r.GetByPublicKey(ctx, publicKey)
	if err != nil || profile == nil {
		return 0, err
	}
	return profile.Nonce, nil
}

// GetPublicKeyForHash reverse-resolves the canonical hash to the raw key.
func (r *Repository) GetPublicKeyForHash(ctx context.Context, hash string) (string, error) {
	binding, err := r.findBindingByHash(ctx, hash)
	if err != nil || binding == nil {
		return "", err
	}
	return binding.PublicKey, nil
}

type searchRow struct {
	ProfileID            uuid.UUID `bun:"profile_id"`
	Name                 string    `bun:"name"`
	Nonce                int64     `bun:"nonce"`
	NFTChainID           *string   `bun:"nft_chain_id"`
	NFTCollectionAddress *string   `bun:"nft_collection_address"`
	NFTTokenID           *string   `bun:"nft_token_id"`
	CreatedAt            time.Time `bun:"created_at"`
	UpdatedAt            time.Time `bun:"updated_at"`
	PublicKey            string    `bun:"public_key"`
	Bech32Hash           string    `bun:"bech32_hash"`
}

// SearchByNamePrefix returns at most five profiles whose name starts with the
// prefix and that carry an active preference for the chain. The returned key
// is the chain-preferred one.
func (r *Repository) SearchByNamePrefix(ctx context.Context, prefix, chainID string) ([]types.SearchResult, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, types.ErrProfileNameRequired
	}
	if strings.TrimSpace(chainID) == "" {
		return nil, types.ErrChainIDRequired
	}
	var rows []searchRow
	err := r.db.NewSelect().
		TableExpr("profiles AS p").
		ColumnExpr("p.id AS profile_id, p.name, p.nonce").
		ColumnExpr("p.nft_chain_id, p.nft_collection_address, p.nft_token_id").
		ColumnExpr("p.created_at, p.updated_at").
		ColumnExpr("k.public_key, k.bech32_hash").
		Join("JOIN profile_public_key_chain_preferences AS cp ON cp.profile_id = p.id").
		Join("JOIN profile_public_keys AS k ON k.id = cp.profile_public_key_id").
		Where("cp.chain_id = ?", chainID).
		Where("lower(p.name) LIKE ?", strings.ToLower(prefix)+"%").
		OrderExpr("p.name ASC").
		Limit(searchLimit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, r.mapErr(err)
	}
	results := make([]types.SearchResult, 0, len(rows))
	for _, row := range rows {
		rec := &Record{
			ID:                   row.ProfileID,
			Name:                 row.Name,
			Nonce:                row.Nonce,
			NFTChainID:           row.NFTChainID,
			NFTCollectionAddress: row.NFTCollectionAddress,
			NFTTokenID:           row.NFTTokenID,
			CreatedAt:            row.CreatedAt,
			UpdatedAt:            row.UpdatedAt,
		}
		results = append(results, types.SearchResult{
			PublicKey:  row.PublicKey,
			Bech32Hash: row.Bech32Hash,
			ProfileID:  row.ProfileID,
			Profile:    *toProfile(rec),
		})
	}
	return results, nil
}

// GetPreferredKey returns the binding preferred for the chain, if any.
func (r *Repository) GetPreferredKey(ctx context.Context, profileID uuid.UUID, chainID string) (*types.ProfileKey, error) {
	if profileID == uuid.Nil {
		return nil, types.ErrProfileIDRequired
	}
	pref, err := r.prefs.Get(ctx, selectPreference(profileID, chainID))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	binding, err := r.keys.GetByID(ctx, pref.ProfilePublicKeyID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &types.ProfileKey{
		PublicKey:  binding.PublicKey,
		Bech32Hash: binding.Bech32Hash,
	}, nil
}

// ListBindings returns all bindings owned by the profile, oldest first.
func (r *Repository) ListBindings(ctx context.Context, profileID uuid.UUID) ([]types.PublicKeyBinding, error) {
	if profileID == uuid.Nil {
		return nil, types.ErrProfileIDRequired
	}
	records, _, err := r.keys.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("profile_id = ?", profileID).OrderExpr("created_at ASC, id ASC")
	})
	if err != nil {
		return nil, err
	}
	bindings := make([]types.PublicKeyBinding, 0, len(records))
	for _, rec := range records {
		bindings = append(bindings, *toBinding(rec))
	}
	return bindings, nil
}

// ListPreferredKeyPerChain returns the explicitly preferred key for every
// chain the profile has a preference on, ordered by chain id.
func (r *Repository) ListPreferredKeyPerChain(ctx context.Context, profileID uuid.UUID) ([]types.ChainKey, error) {
	if profileID == uuid.Nil {
		return nil, types.ErrProfileIDRequired
	}
	prefs, _, err := r.prefs.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("profile_id = ?", profileID).OrderExpr("chain_id ASC")
	})
	if err != nil {
		return nil, err
	}
	keysByID, err := r.loadBindingKeys(ctx, prefs)
	if err != nil {
		return nil, err
	}
	out := make([]types.ChainKey, 0, len(prefs))
	for _, pref := range prefs {
		out = append(out, types.ChainKey{
			ChainID:   pref.ChainID,
			PublicKey: keysByID[pref.ProfilePublicKeyID],
		})
	}
	return out, nil
}

// Save creates or updates the profile owning the key. When the key is unbound
// a new profile is created, the key bound to it, and the optional chain
// preferences applied, all inside one transaction.
func (r *Repository) Save(ctx context.Context, key types.ProfileKey, update types.ProfileUpdate, chainIDs []string) (*types.Profile, error) {
	if strings.TrimSpace(key.PublicKey) == "" {
		return nil, types.ErrPublicKeyRequired
	}
	if strings.TrimSpace(update.Name) == "" {
		return nil, types.ErrProfileNameRequired
	}
	chainIDs = types.NormalizeChainIDs(chainIDs)
	now := r.clock.Now()

	var saved *Record
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		binding, err := findBindingByKeyTx(ctx, tx, key.PublicKey, r)
		if err != nil {
			return err
		}
		if binding != nil {
			rec := new(Record)
			if err := tx.NewSelect().Model(rec).Where("id = ?", binding.ProfileID).Scan(ctx); err != nil {
				return r.mapErr(err)
			}
			rec.Name = strings.TrimSpace(update.Name)
			rec.Nonce = update.Nonce
			applyAvatar(rec, update.Avatar)
			rec.UpdatedAt = now
			res, err := tx.NewUpdate().Model(rec).WherePK().Exec(ctx)
			if err != nil {
				return r.mapErr(err)
			}
			if err := repository.SQLExpectedCount(res, 1); err != nil {
				return err
			}
			saved = rec
			return nil
		}

		rec := &Record{
			ID:        r.idGen.UUID(),
			Name:      strings.TrimSpace(update.Name),
			Nonce:     update.Nonce,
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyAvatar(rec, update.Avatar)
		res, err := tx.NewInsert().Model(rec).Exec(ctx)
		if err != nil {
			return r.mapErr(err)
		}
		if err := repository.SQLExpectedCount(res, 1); err != nil {
			return err
		}
		keyRec := &PublicKeyRecord{
			ID:         r.idGen.UUID(),
			ProfileID:  rec.ID,
			PublicKey:  strings.TrimSpace(key.PublicKey),
			Bech32Hash: strings.TrimSpace(key.Bech32Hash),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		res, err = tx.NewInsert().Model(keyRec).Exec(ctx)
		if err != nil {
			return r.mapErr(err)
		}
		if err := repository.SQLExpectedCount(res, 1); err != nil {
			return err
		}
		if len(chainIDs) > 0 {
			if err := r.upsertPreferencesTx(ctx, tx, rec.ID, keyRec.ID, chainIDs, now); err != nil {
				return err
			}
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, classifyConflict(err)
	}
	return toProfile(saved), nil
}

// IncrementNonce advances the profile nonce by exactly one.
func (r *Repository) IncrementNonce(ctx context.Context, profileID uuid.UUID) error {
	if profileID == uuid.Nil {
		return types.ErrProfileIDRequired
	}
	res, err := r.db.NewUpdate().
		Model((*Record)(nil)).
		Set("nonce = nonce + 1").
		Set("updated_at = ?", r.clock.Now()).
		Where("id = ?", profileID).
		Exec(ctx)
	if err != nil {
		return r.mapErr(err)
	}
	return repository.SQLExpectedCount(res, 1)
}

// SetChainPreferences upserts the preference rows for every chain id, all or
// nothing. An existing preference for a chain is overwritten, never an error.
func (r *Repository) SetChainPreferences(ctx context.Context, profileID, bindingID uuid.UUID, chainIDs []string) error {
	if profileID == uuid.Nil {
		return types.ErrProfileIDRequired
	}
	if bindingID == uuid.Nil {
		return types.ErrBindingIDRequired
	}
	chainIDs = types.NormalizeChainIDs(chainIDs)
	if len(chainIDs) == 0 {
		return types.ErrChainIDRequired
	}
	now := r.clock.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		binding := new(PublicKeyRecord)
		err := tx.NewSelect().Model(binding).Where("id = ?", bindingID).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return goerrors.New("go-identity: binding not found", goerrors.CategoryValidation).
					WithCode(goerrors.CodeBadRequest)
			}
			return r.mapErr(err)
		}
		if binding.ProfileID != profileID {
			return goerrors.New("go-identity: binding belongs to another profile", goerrors.CategoryValidation).
				WithCode(goerrors.CodeBadRequest)
		}
		if err := r.upsertPreferencesTx(ctx, tx, profileID, bindingID, chainIDs, now); err != nil {
			return err
		}
		return r.touchProfileTx(ctx, tx, profileID, now)
	})
	return classifyConflict(err)
}

// AddPublicKey binds the key to the profile, detaching it from a prior owner
// first. Detaching the prior owner's last key deletes that profile. The whole
// transfer is one transaction; a concurrent transfer racing on the key's
// uniqueness constraint surfaces as a conflict.
func (r *Repository) AddPublicKey(ctx context.Context, profileID uuid.UUID, key types.ProfileKey, chainIDs []string) (*types.PublicKeyBinding, error) {
	if profileID == uuid.Nil {
		return nil, types.ErrProfileIDRequired
	}
	if strings.TrimSpace(key.PublicKey) == "" {
		return nil, types.ErrPublicKeyRequired
	}
	chainIDs = types.NormalizeChainIDs(chainIDs)
	now := r.clock.Now()

	var bound *PublicKeyRecord
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := findBindingByKeyTx(ctx, tx, key.PublicKey, r)
		if err != nil {
			return err
		}
		if current != nil && current.ProfileID != profileID {
			if err := r.detachBindingsTx(ctx, tx, current.ProfileID, []uuid.UUID{current.ID}, now); err != nil {
				return err
			}
			current = nil
		}
		if current == nil {
			rec := &PublicKeyRecord{
				ID:         r.idGen.UUID(),
				ProfileID:  profileID,
				PublicKey:  strings.TrimSpace(key.PublicKey),
				Bech32Hash: strings.TrimSpace(key.Bech32Hash),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			res, err := tx.NewInsert().Model(rec).Exec(ctx)
			if err != nil {
				return r.mapErr(err)
			}
			if err := repository.SQLExpectedCount(res, 1); err != nil {
				return err
			}
			current = rec
		}
		if len(chainIDs) > 0 {
			if err := r.upsertPreferencesTx(ctx, tx, profileID, current.ID, chainIDs, now); err != nil {
				return err
			}
		}
		if err := r.touchProfileTx(ctx, tx, profileID, now); err != nil {
			return err
		}
		bound = current
		return nil
	})
	if err != nil {
		return nil, classifyConflict(err)
	}
	return toBinding(bound), nil
}

// RemovePublicKeys deletes the profile's bindings matching the supplied keys.
// Keys not owned by the profile are ignored. Removing every binding deletes
// the profile itself, freeing its name; the returned bool reports that case.
func (r *Repository) RemovePublicKeys(ctx context.Context, profileID uuid.UUID, publicKeys []string) (bool, error) {
	if profileID == uuid.Nil {
		return false, types.ErrProfileIDRequired
	}
	if len(publicKeys) == 0 {
		return false, types.ErrPublicKeyRequired
	}
	requested := make(map[string]struct{}, len(publicKeys))
	for _, key := range publicKeys {
		key = strings.TrimSpace(key)
		if key != "" {
			requested[key] = struct{}{}
		}
	}
	now := r.clock.Now()

	var profileDeleted bool
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var bindings []*PublicKeyRecord
		if err := tx.NewSelect().Model(&bindings).Where("profile_id = ?", profileID).Scan(ctx); err != nil {
			return r.mapErr(err)
		}
		if len(bindings) == 0 {
			return nil
		}
		matched := make([]uuid.UUID, 0, len(bindings))
		for _, binding := range bindings {
			if _, ok := requested[binding.PublicKey]; ok {
				matched = append(matched, binding.ID)
			}
		}
		if len(matched) == 0 {
			return nil
		}
		if len(matched) == len(bindings) {
			if err := r.deleteProfileTx(ctx, tx, profileID); err != nil {
				return err
			}
			profileDeleted = true
			return nil
		}
		if err := r.deleteBindingsTx(ctx, tx, matched); err != nil {
			return err
		}
		return r.touchProfileTx(ctx, tx, profileID, now)
	})
	if err != nil {
		return false, classifyConflict(err)
	}
	return profileDeleted, nil
}

// detachBindingsTx removes the bindings from their owning profile, cascading
// to preferences. The owner is deleted outright when no bindings remain.
func (r *Repository) detachBindingsTx(ctx context.Context, tx bun.Tx, ownerID uuid.UUID, bindingIDs []uuid.UUID, now time.Time) error {
	if err := r.deleteBindingsTx(ctx, tx, bindingIDs); err != nil {
		return err
	}
	remaining, err := tx.NewSelect().
		Model((*PublicKeyRecord)(nil)).
		Where("profile_id = ?", ownerID).
		Count(ctx)
	if err != nil {
		return r.mapErr(err)
	}
	if remaining == 0 {
		return r.deleteProfileTx(ctx, tx, ownerID)
	}
	return r.touchProfileTx(ctx, tx, ownerID, now)
}

// deleteBindingsTx removes bindings and their preferences as one batch each,
// children first so no preference can reference a deleted binding.
func (r *Repository) deleteBindingsTx(ctx context.Context, tx bun.Tx, bindingIDs []uuid.UUID) error {
	if len(bindingIDs) == 0 {
		return nil
	}
	if _, err := tx.NewDelete().
		Model((*ChainPreferenceRecord)(nil)).
		Where("profile_public_key_id IN (?)", bun.In(bindingIDs)).
		Exec(ctx); err != nil {
		return r.mapErr(err)
	}
	if _, err := tx.NewDelete().
		Model((*PublicKeyRecord)(nil)).
		Where("id IN (?)", bun.In(bindingIDs)).
		Exec(ctx); err != nil {
		return r.mapErr(err)
	}
	return nil
}

// deleteProfileTx deletes the profile row with its children, explicitly, so
// the cascade holds on stores without native FK cascade support.
func (r *Repository) deleteProfileTx(ctx context.Context, tx bun.Tx, profileID uuid.UUID) error {
	if _, err := tx.NewDelete().
		Model((*ChainPreferenceRecord)(nil)).
		Where("profile_id = ?", profileID).
		Exec(ctx); err != nil {
		return r.mapErr(err)
	}
	if _, err := tx.NewDelete().
		Model((*PublicKeyRecord)(nil)).
		Where("profile_id = ?", profileID).
		Exec(ctx); err != nil {
		return r.mapErr(err)
	}
	res, err := tx.NewDelete().
		Model((*Record)(nil)).
		Where("id = ?", profileID).
		Exec(ctx)
	if err != nil {
		return r.mapErr(err)
	}
	return repository.SQLExpectedCount(res, 1)
}

// upsertPreferencesTx applies the preference set as one batched upsert, last
// write wins per (profile_id, chain_id).
func (r *Repository) upsertPreferencesTx(ctx context.Context, tx bun.Tx, profileID, bindingID uuid.UUID, chainIDs []string, now time.Time) error {
	prefs := make([]*ChainPreferenceRecord, 0, len(chainIDs))
	for _, chainID := range chainIDs {
		prefs = append(prefs, &ChainPreferenceRecord{
			ProfileID:          profileID,
			ChainID:            chainID,
			ProfilePublicKeyID: bindingID,
			UpdatedAt:          now,
		})
	}
	_, err := tx.NewInsert().
		Model(&prefs).
		On("CONFLICT (profile_id, chain_id) DO UPDATE").
		Set("profile_public_key_id = EXCLUDED.profile_public_key_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return r.mapErr(err)
	}
	return nil
}

func (r *Repository) touchProfileTx(ctx context.Context, tx bun.Tx, profileID uuid.UUID, now time.Time) error {
	res, err := tx.NewUpdate().
		Model((*Record)(nil)).
		Set("updated_at = ?", now).
		Where("id = ?", profileID).
		Exec(ctx)
	if err != nil {
		return r.mapErr(err)
	}
	return repository.SQLExpectedCount(res, 1)
}

func (r *Repository) loadProfile(ctx context.Context, profileID uuid.UUID) (*types.Profile, error) {
	rec, err := r.profiles.GetByID(ctx, profileID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toProfile(rec), nil
}

func (r *Repository) findBindingByKey(ctx context.Context, publicKey string) (*PublicKeyRecord, error) {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return nil, types.ErrPublicKeyRequired
	}
	rec, err := r.keys.Get(ctx, repository.SelectBy("public_key", "=", publicKey))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (r *Repository) findBindingByHash(ctx context.Context, hash string) (*PublicKeyRecord, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, types.ErrPublicKeyRequired
	}
	rec, err := r.keys.Get(ctx, repository.SelectBy("bech32_hash", "=", hash))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func findBindingByKeyTx(ctx context.Context, tx bun.Tx, publicKey string, r *Repository) (*PublicKeyRecord, error) {
	rec := new(PublicKeyRecord)
	err := tx.NewSelect().Model(rec).Where("public_key = ?", strings.TrimSpace(publicKey)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.mapErr(err)
	}
	return rec, nil
}

func (r *Repository) loadBindingKeys(ctx context.Context, prefs []*ChainPreferenceRecord) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(prefs))
	seen := make(map[uuid.UUID]struct{}, len(prefs))
	for _, pref := range prefs {
		if _, ok := seen[pref.ProfilePublicKeyID]; ok {
			continue
		}
		seen[pref.ProfilePublicKeyID] = struct{}{}
		ids = append(ids, pref.ProfilePublicKeyID)
	}
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	records, _, err := r.keys.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id IN (?)", bun.In(ids))
	})
	if err != nil {
		return nil, err
	}
	keys := make(map[uuid.UUID]string, len(records))
	for _, rec := range records {
		keys[rec.ID] = rec.PublicKey
	}
	return keys, nil
}

func (r *Repository) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return repository.MapDatabaseError(err, repository.DetectDriver(r.db))
}

// classifyConflict distinguishes a raced unique constraint from other storage
// faults so callers can decide to retry.
func classifyConflict(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsDuplicatedKey(err) {
		return goerrors.New("go-identity: concurrent mutation raced on a unique constraint", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}
	return err
}

func selectPreference(profileID uuid.UUID, chainID string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("profile_id = ?", profileID).
			Where("chain_id = ?", strings.TrimSpace(chainID))
	}
}
