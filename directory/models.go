package directory

import (
	"time"

	"github.com/goliatone/go-identity/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the profiles row.
type Record struct {
	bun.BaseModel `bun:"table:profiles"`

	ID                   uuid.UUID `bun:"id,pk,type:uuid"`
	Name                 string    `bun:"name,notnull"`
	Nonce                int64     `bun:"nonce,notnull"`
	NFTChainID           *string   `bun:"nft_chain_id"`
	NFTCollectionAddress *string   `bun:"nft_collection_address"`
	NFTTokenID           *string   `bun:"nft_token_id"`
	CreatedAt            time.Time `bun:"created_at"`
	UpdatedAt            time.Time `bun:"updated_at"`
}

// PublicKeyRecord models the profile_public_keys row.
type PublicKeyRecord struct {
	bun.BaseModel `bun:"table:profile_public_keys"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	ProfileID  uuid.UUID `bun:"profile_id,notnull,type:uuid"`
	PublicKey  string    `bun:"public_key,notnull"`
	Bech32Hash string    `bun:"bech32_hash,notnull"`
	CreatedAt  time.Time `bun:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at"`
}

// ChainPreferenceRecord models the profile_public_key_chain_preferences row.
// The (profile_id, chain_id) pair is the composite primary key, so at most one
// binding is preferred per chain.
type ChainPreferenceRecord struct {
	bun.BaseModel `bun:"table:profile_public_key_chain_preferences"`

	ProfileID          uuid.UUID `bun:"profile_id,pk,type:uuid"`
	ChainID            string    `bun:"chain_id,pk"`
	ProfilePublicKeyID uuid.UUID `bun:"profile_public_key_id,notnull,type:uuid"`
	UpdatedAt          time.Time `bun:"updated_at"`
}

func toProfile(rec *Record) *types.Profile {
	if rec == nil {
		return nil
	}
	return &types.Profile{
		ID:        rec.ID,
		Name:      rec.Name,
		Nonce:     rec.Nonce,
		Avatar:    toNFTReference(rec),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func toNFTReference(rec *Record) *types.NFTReference {
	if rec == nil || rec.NFTChainID == nil || rec.NFTCollectionAddress == nil || rec.NFTTokenID == nil {
		return nil
	}
	return &types.NFTReference{
		ChainID:           *rec.NFTChainID,
		CollectionAddress: *rec.NFTCollectionAddress,
		TokenID:           *rec.NFTTokenID,
	}
}

func applyAvatar(rec *Record, ref *types.NFTReference) {
	if ref == nil {
		rec.NFTChainID = nil
		rec.NFTCollectionAddress = nil
		rec.NFTTokenID = nil
		return
	}
	rec.NFTChainID = strPtr(ref.ChainID)
	rec.NFTCollectionAddress = strPtr(ref.CollectionAddress)
	rec.NFTTokenID = strPtr(ref.TokenID)
}

func toBinding(rec *PublicKeyRecord) *types.PublicKeyBinding {
	if rec == nil {
		return nil
	}
	return &types.PublicKeyBinding{
		ID:         rec.ID,
		ProfileID:  rec.ProfileID,
		PublicKey:  rec.PublicKey,
		Bech32Hash: rec.Bech32Hash,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func strPtr(value string) *string {
	copy := value
	return &copy
}
