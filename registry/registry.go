// Package registry catalogs asset types and asset instances. Registering an
// asset is the only path that creates an ownership token; the token is
// created atomically with the asset record and the pairing never changes.
package registry

import (
	"fmt"
	"sync"

	"github.com/faas-tech/space-markets-sub006/access"
	"github.com/faas-tech/space-markets-sub006/events"
	"github.com/faas-tech/space-markets-sub006/token"
)

// AssetType anchors an off-ledger schema document and lists the lease
// fields every lease for assets of this type must populate. Immutable
// after creation.
type AssetType struct {
	ID                    uint64
	Name                  string
	SchemaHash            [32]byte
	RequiredLeaseFieldIDs [][32]byte // content hashes of required field names
	SchemaURI             string
}

// Asset is one registered asset instance. Token is the asset's ownership
// ledger, created with the asset.
type Asset struct {
	ID           uint64
	TypeID       uint64
	Issuer       token.Address
	MetadataHash [32]byte
	DataURI      string
	Token        *token.OwnershipToken
}

// Registry owns the asset-type and asset catalogs.
type Registry struct {
	mu sync.Mutex

	checker access.Checker
	guard   token.SnapshotGuard // handed to every created ownership token
	emitter events.Emitter

	types  []*AssetType
	assets []*Asset
}

// New creates a registry. guard becomes the snapshot guard of every
// ownership token the registry creates; emitter may be nil.
func New(checker access.Checker, guard token.SnapshotGuard, emitter events.Emitter) *Registry {
	if emitter == nil {
		emitter = events.Discard{}
	}
	return &Registry{checker: checker, guard: guard, emitter: emitter}
}

// CreateAssetType records a new asset type under the next sequential id.
// Administrator capability required.
func (r *Registry) CreateAssetType(actor token.Address, name string, schemaHash [32]byte, requiredLeaseFieldIDs [][32]byte, schemaURI string) (uint64, error) {
	if !r.checker.HasCapability(actor, access.RoleAdmin) {
		return 0, ErrNotAdmin
	}
	if name == "" {
		return 0, ErrEmptyName
	}

	r.mu.Lock()
	at := &AssetType{
		ID:                    uint64(len(r.types)) + 1,
		Name:                  name,
		SchemaHash:            schemaHash,
		RequiredLeaseFieldIDs: append([][32]byte(nil), requiredLeaseFieldIDs...),
		SchemaURI:             schemaURI,
	}
	r.types = append(r.types, at)
	r.mu.Unlock()

	r.emitter.Emit(events.New("AssetTypeCreated", map[string]any{
		"type_id": at.ID,
		"name":    at.Name,
	}))
	return at.ID, nil
}

// RegisterAsset records a new asset of an existing type and atomically
// creates its ownership token with totalSupply minted entirely to owner.
// Registrar capability required.
func (r *Registry) RegisterAsset(actor token.Address, typeID uint64, owner token.Address, metadataHash [32]byte, dataURI, tokenName, tokenSymbol string, totalSupply uint64) (*Asset, error) {
	if !r.checker.HasCapability(actor, access.RoleRegistrar) {
		return nil, ErrNotRegistrar
	}
	if tokenName == "" {
		return nil, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if typeID == 0 || typeID > uint64(len(r.types)) {
		return nil, fmt.Errorf("%w: id %d", ErrTypeNotFound, typeID)
	}

	tok, err := token.New(tokenName, tokenSymbol, owner, totalSupply, r.guard)
	if err != nil {
		return nil, fmt.Errorf("registry: create ownership token: %w", err)
	}

	asset := &Asset{
		ID:           uint64(len(r.assets)) + 1,
		TypeID:       typeID,
		Issuer:       owner,
		MetadataHash: metadataHash,
		DataURI:      dataURI,
		Token:        tok,
	}
	r.assets = append(r.assets, asset)

	r.emitter.Emit(events.New("AssetRegistered", map[string]any{
		"asset_id": asset.ID,
		"type_id":  typeID,
		"issuer":   owner.String(),
		"supply":   totalSupply,
	}))
	return asset, nil
}

// AssetType returns the type record for id.
func (r *Registry) AssetType(id uint64) (*AssetType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || id > uint64(len(r.types)) {
		return nil, fmt.Errorf("%w: id %d", ErrTypeNotFound, id)
	}
	return r.types[id-1], nil
}

// Asset returns the asset record for id.
func (r *Registry) Asset(id uint64) (*Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || id > uint64(len(r.assets)) {
		return nil, fmt.Errorf("%w: id %d", ErrAssetNotFound, id)
	}
	return r.assets[id-1], nil
}

// AssetExists reports whether an asset id is registered.
func (r *Registry) AssetExists(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return id != 0 && id <= uint64(len(r.assets))
}

// LeaseRequirements returns the schema hash and required lease field ids of
// the asset's type. ok is false if the asset does not exist.
func (r *Registry) LeaseRequirements(assetID uint64) (schemaHash [32]byte, required [][32]byte, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if assetID == 0 || assetID > uint64(len(r.assets)) {
		return schemaHash, nil, false
	}
	at := r.types[r.assets[assetID-1].TypeID-1]
	return at.SchemaHash, at.RequiredLeaseFieldIDs, true
}

// RestoreAssetType reinserts a persisted type record. The record's id must
// be the next sequential id; used only while rehydrating from the store.
func (r *Registry) RestoreAssetType(at *AssetType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if at.ID != uint64(len(r.types))+1 {
		return fmt.Errorf("%w: restore out of order, id %d", ErrTypeNotFound, at.ID)
	}
	r.types = append(r.types, at)
	return nil
}

// RestoreAsset reinserts a persisted asset record with its rebuilt token.
func (r *Registry) RestoreAsset(asset *Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if asset.ID != uint64(len(r.assets))+1 {
		return fmt.Errorf("%w: restore out of order, id %d", ErrAssetNotFound, asset.ID)
	}
	if asset.TypeID == 0 || asset.TypeID > uint64(len(r.types)) {
		return fmt.Errorf("%w: id %d", ErrTypeNotFound, asset.TypeID)
	}
	r.assets = append(r.assets, asset)
	return nil
}
