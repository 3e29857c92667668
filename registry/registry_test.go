package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/faas-tech/space-markets-sub006/access"
	"github.com/faas-tech/space-markets-sub006/events"
	"github.com/faas-tech/space-markets-sub006/token"
)

func makeAddr(seed byte) token.Address {
	var a token.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

var (
	admin     = makeAddr(0x01)
	registrar = makeAddr(0x02)
	issuer    = makeAddr(0x0A)
	nobody    = makeAddr(0xEE)
)

func newTestRegistry(t *testing.T) (*Registry, *events.Recorder) {
	t.Helper()
	acl := access.NewRegistry()
	acl.Grant(admin, access.RoleAdmin)
	acl.Grant(registrar, access.RoleRegistrar)
	rec := &events.Recorder{}
	return New(acl, func(token.Address) bool { return true }, rec), rec
}

func fieldID(name string) [32]byte {
	return sha3.Sum256([]byte(name))
}

// --- Asset type tests ---

func TestCreateAssetType_Sequence(t *testing.T) {
	r, rec := newTestRegistry(t)

	id, err := r.CreateAssetType(admin, "Satellite", fieldID("schema-v1"), [][32]byte{fieldID("orbit"), fieldID("ground_station")}, "ipfs://schema")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	id2, err := r.CreateAssetType(admin, "Ground Antenna", fieldID("schema-v2"), nil, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id2)

	at, err := r.AssetType(1)
	require.NoError(t, err)
	assert.Equal(t, "Satellite", at.Name)
	assert.Len(t, at.RequiredLeaseFieldIDs, 2)

	assert.Len(t, rec.ByType("AssetTypeCreated"), 2)
}

func TestCreateAssetType_RequiresAdmin(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.CreateAssetType(registrar, "Satellite", [32]byte{}, nil, "")
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestCreateAssetType_EmptyName(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.CreateAssetType(admin, "", [32]byte{}, nil, "")
	assert.ErrorIs(t, err, ErrEmptyName)
}

// --- Asset tests ---

func TestRegisterAsset_MintsFullSupply(t *testing.T) {
	r, rec := newTestRegistry(t)
	typeID, err := r.CreateAssetType(admin, "Satellite", fieldID("schema-v1"), [][32]byte{fieldID("orbit"), fieldID("ground_station")}, "")
	require.NoError(t, err)

	asset, err := r.RegisterAsset(registrar, typeID, issuer, fieldID("meta"), "ipfs://sat-1", "SAT-1 Shares", "SAT1", 1_000_000)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), asset.ID)
	assert.True(t, r.AssetExists(asset.ID))
	assert.Equal(t, uint64(1_000_000), asset.Token.TotalSupply())
	assert.Equal(t, uint64(1_000_000), asset.Token.BalanceOf(issuer))
	assert.Equal(t, 1, asset.Token.HolderCount())

	got, err := r.Asset(asset.ID)
	require.NoError(t, err)
	assert.Same(t, asset, got)

	assert.Len(t, rec.ByType("AssetRegistered"), 1)
}

func TestRegisterAsset_RequiresRegistrar(t *testing.T) {
	r, _ := newTestRegistry(t)
	typeID, err := r.CreateAssetType(admin, "Satellite", [32]byte{}, nil, "")
	require.NoError(t, err)

	_, err = r.RegisterAsset(nobody, typeID, issuer, [32]byte{}, "", "X", "X", 100)
	assert.ErrorIs(t, err, ErrNotRegistrar)
}

func TestRegisterAsset_UnknownType(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.RegisterAsset(registrar, 7, issuer, [32]byte{}, "", "X", "X", 100)
	assert.ErrorIs(t, err, ErrTypeNotFound)
}

func TestRegisterAsset_ZeroSupply(t *testing.T) {
	r, _ := newTestRegistry(t)
	typeID, err := r.CreateAssetType(admin, "Satellite", [32]byte{}, nil, "")
	require.NoError(t, err)

	_, err = r.RegisterAsset(registrar, typeID, issuer, [32]byte{}, "", "X", "X", 0)
	assert.ErrorIs(t, err, token.ErrZeroSupply)
}

func TestAsset_NotFound(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Asset(1)
	assert.ErrorIs(t, err, ErrAssetNotFound)
	assert.False(t, r.AssetExists(0))
}

func TestLeaseRequirements(t *testing.T) {
	r, _ := newTestRegistry(t)
	schema := fieldID("schema-v1")
	typeID, err := r.CreateAssetType(admin, "Satellite", schema, [][32]byte{fieldID("orbit")}, "")
	require.NoError(t, err)
	asset, err := r.RegisterAsset(registrar, typeID, issuer, [32]byte{}, "", "X", "X", 100)
	require.NoError(t, err)

	gotSchema, required, ok := r.LeaseRequirements(asset.ID)
	require.True(t, ok)
	assert.Equal(t, schema, gotSchema)
	assert.Equal(t, [][32]byte{fieldID("orbit")}, required)

	_, _, ok = r.LeaseRequirements(99)
	assert.False(t, ok)
}
