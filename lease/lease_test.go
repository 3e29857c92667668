package lease

import (
	"encoding/binary"
	"testing"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/faas-tech/space-markets-sub006/events"
	"github.com/faas-tech/space-markets-sub006/token"
)

var testParams = DomainParams{
	Name:      "space-markets-lease-authority",
	Version:   "1",
	ContextID: "test-deployment",
}

func fieldID(name string) [32]byte {
	return sha3.Sum256([]byte(name))
}

// fakeAssets implements AssetChecker for a single asset id 1.
type fakeAssets struct {
	schemaHash [32]byte
	required   [][32]byte
}

func (f *fakeAssets) LeaseRequirements(assetID uint64) ([32]byte, [][32]byte, bool) {
	if assetID != 1 {
		return [32]byte{}, nil, false
	}
	return f.schemaHash, f.required, true
}

type party struct {
	priv *ec.PrivateKey
	addr token.Address
}

func newParty(t *testing.T) party {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return party{priv: priv, addr: token.AddressFromPublicKey(priv.PubKey())}
}

// testEnv bundles an authority with its signing parties.
type testEnv struct {
	authority *Authority
	assets    *fakeAssets
	recorder  *events.Recorder
	lessor    party
	lessee    party
	now       int64
}

func newTestEnv(t *testing.T, scheme IDScheme) *testEnv {
	t.Helper()
	env := &testEnv{
		assets: &fakeAssets{
			schemaHash: fieldID("schema-v1"),
			required:   [][32]byte{fieldID("orbit")},
		},
		recorder: &events.Recorder{},
		lessor:   newParty(t),
		lessee:   newParty(t),
		now:      time.Now().Unix(),
	}
	env.authority = NewAuthority(testParams, scheme, env.assets, env.recorder)
	env.authority.SetClock(func() time.Time { return time.Unix(env.now, 0) })
	return env
}

// intent builds a valid, lessee-bound intent.
func (env *testEnv) intent() *LeaseIntent {
	return &LeaseIntent{
		Deadline:            env.now + 1000,
		AssetTypeSchemaHash: env.assets.schemaHash,
		Nonce:               1,
		Lease: LeaseTerms{
			Lessor:          env.lessor.addr,
			Lessee:          env.lessee.addr,
			AssetID:         1,
			PaymentToken:    fieldID("settlement-token"),
			RentAmount:      5_000,
			RentPeriod:      86_400,
			SecurityDeposit: 10_000,
			StartTime:       env.now + 100,
			EndTime:         env.now + 100_000,
			LegalDocHash:    fieldID("legal-doc"),
			TermsVersion:    1,
			Metadata: []MetadataEntry{
				{FieldID: fieldID("orbit"), Value: []byte("LEO-550")},
			},
		},
	}
}

// sign produces both party signatures over the intent digest.
func (env *testEnv) sign(t *testing.T, intent *LeaseIntent) (lessorSig, lesseeSig []byte) {
	t.Helper()
	digest := env.authority.Digest(intent)
	lessorSig, err := SignDigest(env.lessor.priv, digest)
	require.NoError(t, err)
	lesseeSig, err = SignDigest(env.lessee.priv, digest)
	require.NoError(t, err)
	return lessorSig, lesseeSig
}

// --- Digest tests ---

func TestComputeDigest_Deterministic(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	a := ComputeDigest(testParams, env.intent())
	b := ComputeDigest(testParams, env.intent())
	assert.Equal(t, a, b)
}

func TestComputeDigest_SensitiveToFields(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	base := ComputeDigest(testParams, env.intent())

	mutations := []struct {
		name   string
		mutate func(*LeaseIntent)
	}{
		{"deadline", func(i *LeaseIntent) { i.Deadline++ }},
		{"nonce", func(i *LeaseIntent) { i.Nonce++ }},
		{"schema hash", func(i *LeaseIntent) { i.AssetTypeSchemaHash[0] ^= 1 }},
		{"rent amount", func(i *LeaseIntent) { i.Lease.RentAmount++ }},
		{"lessee", func(i *LeaseIntent) { i.Lease.Lessee[0] ^= 1 }},
		{"end time", func(i *LeaseIntent) { i.Lease.EndTime++ }},
		{"metadata value", func(i *LeaseIntent) { i.Lease.Metadata[0].Value = []byte("GEO") }},
	}
	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			intent := env.intent()
			m.mutate(intent)
			assert.NotEqual(t, base, ComputeDigest(testParams, intent))
		})
	}
}

func TestComputeDigest_SensitiveToDomain(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	intent := env.intent()
	other := testParams
	other.ContextID = "other-deployment"
	assert.NotEqual(t, ComputeDigest(testParams, intent), ComputeDigest(other, intent))
}

// --- Signature tests ---

func TestSignDigest_RoundTrip(t *testing.T) {
	p := newParty(t)
	digest := fieldID("some digest")

	sig, err := SignDigest(p.priv, digest)
	require.NoError(t, err)

	signer, err := RecoverSigner(sig, digest)
	require.NoError(t, err)
	assert.Equal(t, p.addr, signer)
}

func TestRecoverSigner_Malformed(t *testing.T) {
	_, err := RecoverSigner([]byte{0x01, 0x02}, fieldID("d"))
	assert.ErrorIs(t, err, ErrMalformedSignature)
}

// --- MintLease tests ---

func TestMintLease_Success(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	intent := env.intent()
	lessorSig, lesseeSig := env.sign(t, intent)

	id, err := env.authority.MintLease(intent, lessorSig, lesseeSig)
	require.NoError(t, err)
	assert.Equal(t, CertificateID(TermsDigest(&intent.Lease)), id)

	cert, err := env.authority.Certificate(id)
	require.NoError(t, err)
	assert.Equal(t, env.lessee.addr, cert.Lessee())
	assert.Equal(t, intent.Lease.RentAmount, cert.Intent.Lease.RentAmount)

	require.Len(t, env.recorder.ByType("LeaseMinted"), 1)
}

func TestMintLease_WrongSigner(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	stranger := newParty(t)
	intent := env.intent()
	digest := env.authority.Digest(intent)

	goodLessor, goodLessee := env.sign(t, intent)
	forged, err := SignDigest(stranger.priv, digest)
	require.NoError(t, err)

	_, err = env.authority.MintLease(intent, forged, goodLessee)
	assert.ErrorIs(t, err, ErrLessorSignature)

	_, err = env.authority.MintLease(intent, goodLessor, forged)
	assert.ErrorIs(t, err, ErrLesseeSignature)

	// Nothing was minted by the failed calls.
	assert.Empty(t, env.authority.Certificates())
}

func TestMintLease_SwappedSignatures(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	intent := env.intent()
	lessorSig, lesseeSig := env.sign(t, intent)

	_, err := env.authority.MintLease(intent, lesseeSig, lessorSig)
	assert.ErrorIs(t, err, ErrLessorSignature)
}

func TestMintLease_StaleSignatureAfterTermsChange(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	intent := env.intent()
	lessorSig, lesseeSig := env.sign(t, intent)

	// Terms changed after signing: old signatures no longer verify.
	intent.Lease.RentAmount++
	_, err := env.authority.MintLease(intent, lessorSig, lesseeSig)
	assert.ErrorIs(t, err, ErrLessorSignature)
}

func TestMintLease_DeadlinePassed(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	intent := env.intent()
	lessorSig, lesseeSig := env.sign(t, intent)

	env.now = intent.Deadline + 1
	_, err := env.authority.MintLease(intent, lessorSig, lesseeSig)
	assert.ErrorIs(t, err, ErrDeadlinePassed)
}

func TestMintLease_InvalidWindow(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	intent := env.intent()
	intent.Lease.EndTime = intent.Lease.StartTime
	lessorSig, lesseeSig := env.sign(t, intent)

	_, err := env.authority.MintLease(intent, lessorSig, lesseeSig)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestMintLease_AssetNotFound(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	intent := env.intent()
	intent.Lease.AssetID = 42
	lessorSig, lesseeSig := env.sign(t, intent)

	_, err := env.authority.MintLease(intent, lessorSig, lesseeSig)
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestMintLease_SchemaMismatch(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	intent := env.intent()
	intent.AssetTypeSchemaHash = fieldID("schema-v2")
	lessorSig, lesseeSig := env.sign(t, intent)

	_, err := env.authority.MintLease(intent, lessorSig, lesseeSig)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestMintLease_MissingRequiredField(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	intent := env.intent()
	intent.Lease.Metadata = nil
	lessorSig, lesseeSig := env.sign(t, intent)

	_, err := env.authority.MintLease(intent, lessorSig, lesseeSig)
	assert.ErrorIs(t, err, ErrMissingLeaseField)
}

func TestMintLease_UnboundLessee(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})
	intent := env.intent()
	intent.Lease.Lessee = token.ZeroAddress
	lessorSig, lesseeSig := env.sign(t, intent)

	_, err := env.authority.MintLease(intent, lessorSig, lesseeSig)
	assert.ErrorIs(t, err, ErrUnboundLessee)
}

// --- Replay tests ---

func TestMintLease_ReplaySameIntent(t *testing.T) {
	for _, scheme := range []struct {
		name string
		s    IDScheme
	}{
		{"terms hash", TermsHashScheme{}},
		{"counter", &CounterScheme{}},
	} {
		t.Run(scheme.name, func(t *testing.T) {
			env := newTestEnv(t, scheme.s)
			intent := env.intent()
			lessorSig, lesseeSig := env.sign(t, intent)

			_, err := env.authority.MintLease(intent, lessorSig, lesseeSig)
			require.NoError(t, err)

			_, err = env.authority.MintLease(intent, lessorSig, lesseeSig)
			assert.ErrorIs(t, err, ErrIntentReplayed)
			assert.Len(t, env.authority.Certificates(), 1)
		})
	}
}

func TestMintLease_TermsHashDeduplicatesAcrossNonces(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})

	first := env.intent()
	sig1, sig2 := env.sign(t, first)
	_, err := env.authority.MintLease(first, sig1, sig2)
	require.NoError(t, err)

	// Same terms under a fresh nonce: new digest, same certificate id.
	second := env.intent()
	second.Nonce = 2
	sig1, sig2 = env.sign(t, second)
	_, err = env.authority.MintLease(second, sig1, sig2)
	assert.ErrorIs(t, err, ErrDuplicateCertificate)
}

func TestVerifyIntent_RejectsDuplicateCertificateID(t *testing.T) {
	env := newTestEnv(t, TermsHashScheme{})

	first := env.intent()
	sig1, sig2 := env.sign(t, first)
	_, err := env.authority.MintLease(first, sig1, sig2)
	require.NoError(t, err)

	// Identical terms under a fresh nonce would collide with the minted
	// id; verification must surface that before any caller commits funds.
	second := env.intent()
	second.Nonce = 2
	sig1, sig2 = env.sign(t, second)
	_, err = env.authority.VerifyIntent(second, sig1, sig2)
	assert.ErrorIs(t, err, ErrDuplicateCertificate)
}

func TestVerifyIntent_DoesNotAdvanceCounter(t *testing.T) {
	env := newTestEnv(t, &CounterScheme{})
	intent := env.intent()
	sig1, sig2 := env.sign(t, intent)

	// Repeated verification issues nothing.
	_, err := env.authority.VerifyIntent(intent, sig1, sig2)
	require.NoError(t, err)
	_, err = env.authority.VerifyIntent(intent, sig1, sig2)
	require.NoError(t, err)

	id, err := env.authority.MintLease(intent, sig1, sig2)
	require.NoError(t, err)
	var want CertificateID
	binary.BigEndian.PutUint64(want[24:], 1)
	assert.Equal(t, want, id)
}

func TestMintLease_CounterAllowsRepeatTermsWithFreshNonce(t *testing.T) {
	env := newTestEnv(t, &CounterScheme{})

	first := env.intent()
	sig1, sig2 := env.sign(t, first)
	id1, err := env.authority.MintLease(first, sig1, sig2)
	require.NoError(t, err)

	second := env.intent()
	second.Nonce = 2
	sig1, sig2 = env.sign(t, second)
	id2, err := env.authority.MintLease(second, sig1, sig2)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Len(t, env.authority.Certificates(), 2)
}

// --- Restore tests ---

func TestRestoreCertificate_BlocksReplayAndAdvancesCounter(t *testing.T) {
	env := newTestEnv(t, &CounterScheme{})
	intent := env.intent()
	lessorSig, lesseeSig := env.sign(t, intent)

	id, err := env.authority.MintLease(intent, lessorSig, lesseeSig)
	require.NoError(t, err)
	cert, err := env.authority.Certificate(id)
	require.NoError(t, err)

	// Fresh authority rehydrated from the persisted certificate.
	restored := NewAuthority(testParams, &CounterScheme{}, env.assets, nil)
	restored.SetClock(func() time.Time { return time.Unix(env.now, 0) })
	require.NoError(t, restored.RestoreCertificate(cert))

	_, err = restored.MintLease(intent, lessorSig, lesseeSig)
	assert.ErrorIs(t, err, ErrIntentReplayed)

	// A new mint continues the counter past the restored id.
	next := env.intent()
	next.Nonce = 2
	sig1, sig2 := env.sign(t, next)
	id2, err := restored.MintLease(next, sig1, sig2)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}
