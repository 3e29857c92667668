// Package store persists the ledger's state in a bbolt database: asset
// types, assets with their ownership-token ledgers, minted lease
// certificates, and revenue rounds. Records are gob-encoded under 8-byte
// big-endian sequence keys, so iteration returns them in id order and the
// in-memory components can be rehydrated with their sequential-restore
// entry points.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/faas-tech/space-markets-sub006/lease"
	"github.com/faas-tech/space-markets-sub006/registry"
	"github.com/faas-tech/space-markets-sub006/token"
)

var (
	bucketAssetTypes  = []byte("asset_types")
	bucketAssets      = []byte("assets")
	bucketCerts       = []byte("certificates")
	bucketCertsSeq    = []byte("certificates_seq")
	bucketCertsLessee = []byte("certificates_lessee")
	bucketRounds      = []byte("rounds")
)

// AssetRecord is the persisted form of a registered asset: the catalog
// fields plus the full exported state of its ownership token.
type AssetRecord struct {
	ID           uint64
	TypeID       uint64
	Issuer       token.Address
	MetadataHash [32]byte
	DataURI      string
	TokenState   *token.State
}

// RoundRecord is the persisted form of a revenue round. The round's token
// is referenced by asset id and rewired during rehydration.
type RoundRecord struct {
	ID          uint64
	AssetID     uint64
	SnapshotID  uint64
	TotalAmount uint64
	Claimed     map[token.Address]bool
	ClaimedSum  uint64
}

// Store wraps a bbolt database holding the ledger's persistent state.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt database at dbPath. The parent directory
// is created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{
			bucketAssetTypes, bucketAssets,
			bucketCerts, bucketCertsSeq, bucketCertsLessee,
			bucketRounds,
		}
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// idKey encodes a sequential id as an 8-byte big-endian key for sorted
// storage.
func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// ---------------------------------------------------------------------------
// Asset types
// ---------------------------------------------------------------------------

// PutAssetType stores an asset type record, overwriting any prior entry
// under the same id.
func (s *Store) PutAssetType(at *registry.AssetType) error {
	if at == nil {
		return fmt.Errorf("%w: asset type", ErrNilRecord)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := encodeGob(at)
		if err != nil {
			return fmt.Errorf("store: encode asset type: %w", err)
		}
		return tx.Bucket(bucketAssetTypes).Put(idKey(at.ID), data)
	})
}

// AssetTypes returns every stored asset type in id order.
func (s *Store) AssetTypes() ([]*registry.AssetType, error) {
	var types []*registry.AssetType
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAssetTypes).ForEach(func(k, v []byte) error {
			var at registry.AssetType
			if err := decodeGob(v, &at); err != nil {
				return fmt.Errorf("store: decode asset type: %w", err)
			}
			types = append(types, &at)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return types, nil
}

// ---------------------------------------------------------------------------
// Assets
// ---------------------------------------------------------------------------

// PutAsset stores an asset record, overwriting any prior entry under the
// same id. Called again after every token mutation to keep the persisted
// ledger current.
func (s *Store) PutAsset(rec *AssetRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: asset", ErrNilRecord)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := encodeGob(rec)
		if err != nil {
			return fmt.Errorf("store: encode asset: %w", err)
		}
		return tx.Bucket(bucketAssets).Put(idKey(rec.ID), data)
	})
}

// Assets returns every stored asset record in id order.
func (s *Store) Assets() ([]*AssetRecord, error) {
	var assets []*AssetRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAssets).ForEach(func(k, v []byte) error {
			var rec AssetRecord
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("store: decode asset: %w", err)
			}
			assets = append(assets, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// ---------------------------------------------------------------------------
// Certificates
// ---------------------------------------------------------------------------

// PutCertificate stores a minted certificate: by id, under the next mint
// sequence number, and in the lessee index. Duplicate ids are rejected.
func (s *Store) PutCertificate(cert *lease.Certificate) error {
	if cert == nil {
		return fmt.Errorf("%w: certificate", ErrNilRecord)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		cb := tx.Bucket(bucketCerts)
		if cb.Get(cert.ID[:]) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateCertificate, cert.ID)
		}

		data, err := encodeGob(cert)
		if err != nil {
			return fmt.Errorf("store: encode certificate: %w", err)
		}
		if err := cb.Put(cert.ID[:], data); err != nil {
			return fmt.Errorf("store: put certificate: %w", err)
		}

		sb := tx.Bucket(bucketCertsSeq)
		seq, err := sb.NextSequence()
		if err != nil {
			return fmt.Errorf("store: certificate sequence: %w", err)
		}
		if err := sb.Put(idKey(seq), cert.ID[:]); err != nil {
			return fmt.Errorf("store: put certificate sequence: %w", err)
		}

		// Composite key: lessee address + certificate id for prefix scanning.
		lessee := cert.Lessee()
		compositeKey := make([]byte, len(lessee)+len(cert.ID))
		copy(compositeKey, lessee[:])
		copy(compositeKey[len(lessee):], cert.ID[:])
		if err := tx.Bucket(bucketCertsLessee).Put(compositeKey, []byte{}); err != nil {
			return fmt.Errorf("store: put lessee index: %w", err)
		}
		return nil
	})
}

// Certificate retrieves one certificate by id.
func (s *Store) Certificate(id lease.CertificateID) (*lease.Certificate, error) {
	var cert lease.Certificate
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCerts).Get(id[:])
		if data == nil {
			return fmt.Errorf("%w: %s", ErrCertificateNotFound, id)
		}
		if err := decodeGob(data, &cert); err != nil {
			return fmt.Errorf("store: decode certificate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// Certificates returns every stored certificate in mint order.
func (s *Store) Certificates() ([]*lease.Certificate, error) {
	var certs []*lease.Certificate
	err := s.db.View(func(tx *bbolt.Tx) error {
		cb := tx.Bucket(bucketCerts)
		return tx.Bucket(bucketCertsSeq).ForEach(func(k, id []byte) error {
			data := cb.Get(id)
			if data == nil {
				return fmt.Errorf("%w: %x", ErrCertificateNotFound, id)
			}
			var cert lease.Certificate
			if err := decodeGob(data, &cert); err != nil {
				return fmt.Errorf("store: decode certificate: %w", err)
			}
			certs = append(certs, &cert)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// CertificatesByLessee returns every certificate held by the lessee.
func (s *Store) CertificatesByLessee(lessee token.Address) ([]*lease.Certificate, error) {
	var certs []*lease.Certificate
	err := s.db.View(func(tx *bbolt.Tx) error {
		cb := tx.Bucket(bucketCerts)
		c := tx.Bucket(bucketCertsLessee).Cursor()
		for k, _ := c.Seek(lessee[:]); k != nil && bytes.HasPrefix(k, lessee[:]); k, _ = c.Next() {
			data := cb.Get(k[len(lessee):])
			if data == nil {
				continue // stale index entry
			}
			var cert lease.Certificate
			if err := decodeGob(data, &cert); err != nil {
				return fmt.Errorf("store: decode certificate by lessee: %w", err)
			}
			certs = append(certs, &cert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// ---------------------------------------------------------------------------
// Revenue rounds
// ---------------------------------------------------------------------------

// PutRound stores a round record, overwriting any prior entry under the
// same id. Called again after every claim.
func (s *Store) PutRound(rec *RoundRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: round", ErrNilRecord)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := encodeGob(rec)
		if err != nil {
			return fmt.Errorf("store: encode round: %w", err)
		}
		return tx.Bucket(bucketRounds).Put(idKey(rec.ID), data)
	})
}

// Rounds returns every stored round in id order.
func (s *Store) Rounds() ([]*RoundRecord, error) {
	var rounds []*RoundRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRounds).ForEach(func(k, v []byte) error {
			var rec RoundRecord
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("store: decode round: %w", err)
			}
			rounds = append(rounds, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rounds, nil
}
