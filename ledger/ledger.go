// Package ledger is the shared business logic layer: it wires the asset
// registry, ownership tokens, lease authority, marketplace, and revenue
// distributor together under one configuration, persists their state in
// the bolt store, and rehydrates everything on open. Adapters call Ledger
// methods instead of touching the components directly.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/faas-tech/space-markets-sub006/access"
	"github.com/faas-tech/space-markets-sub006/config"
	"github.com/faas-tech/space-markets-sub006/events"
	"github.com/faas-tech/space-markets-sub006/lease"
	"github.com/faas-tech/space-markets-sub006/market"
	"github.com/faas-tech/space-markets-sub006/metadata"
	"github.com/faas-tech/space-markets-sub006/registry"
	"github.com/faas-tech/space-markets-sub006/revenue"
	"github.com/faas-tech/space-markets-sub006/store"
	"github.com/faas-tech/space-markets-sub006/token"
)

// Ledger owns every component of one deployment. Sales and lease offers
// are an in-memory order book; the durable state is the registry catalog,
// token ledgers, minted certificates, and revenue rounds.
type Ledger struct {
	Config      config.Config
	Log         *logrus.Logger
	Access      *access.Registry
	Registry    *registry.Registry
	Authority   *lease.Authority
	Funds       *market.FundsLedger
	Distributor *revenue.Distributor
	Market      *market.Marketplace
	Attributes  metadata.Store
	Store       *store.Store

	logFile *os.File // nil when logging to stderr
}

// Open wires a ledger from cfg, opening the bolt store under the data
// directory and rehydrating all persisted state.
func Open(cfg config.Config) (*Ledger, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("ledger: parse log level: %w", err)
	}
	log.SetLevel(level)

	var logFile *os.File
	if cfg.LogFile != "" {
		logFile, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("ledger: open log file: %w", err)
		}
		log.SetOutput(logFile)
	}

	emitter := &events.LogEmitter{Logger: log}
	acl := access.NewRegistry()

	// Service accounts. The marketplace escrows into one, the distributor
	// pools unclaimed revenue in the other.
	escrow := token.ServiceAddress("market-escrow")
	pool := token.ServiceAddress("revenue-pool")
	acl.Grant(escrow, access.RoleSnapshot)
	acl.Grant(pool, access.RoleSnapshot)
	acl.Grant(escrow, access.RoleDistributor)

	guard := func(actor token.Address) bool {
		return acl.HasCapability(actor, access.RoleSnapshot)
	}
	reg := registry.New(acl, guard, emitter)

	var scheme lease.IDScheme
	switch cfg.CertIDScheme {
	case "counter":
		scheme = &lease.CounterScheme{}
	default:
		scheme = lease.TermsHashScheme{}
	}
	authority := lease.NewAuthority(lease.DomainParams{
		Name:      cfg.AuthorityName,
		Version:   cfg.AuthorityVersion,
		ContextID: cfg.ContextID,
	}, scheme, reg, emitter)

	funds := market.NewFundsLedger()
	dist := revenue.NewDistributor(acl, pool, funds.Transfer, emitter)

	var strategy revenue.Strategy
	switch cfg.RevenueStrategy {
	case "direct":
		strategy = &revenue.DirectStrategy{Transfer: funds.Transfer}
	default:
		strategy = &revenue.RoundStrategy{Distributor: dist, Actor: escrow}
	}
	mkt := market.New(escrow, funds, reg, authority, strategy, emitter)

	st, err := store.Open(filepath.Join(cfg.DataDir, "ledger.db"))
	if err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, err
	}

	l := &Ledger{
		Config:      cfg,
		Log:         log,
		Access:      acl,
		Registry:    reg,
		Authority:   authority,
		Funds:       funds,
		Distributor: dist,
		Market:      mkt,
		Attributes:  metadata.NewMemoryStore(),
		Store:       st,
		logFile:     logFile,
	}
	if err := l.rehydrate(guard); err != nil {
		_ = l.Close()
		return nil, err
	}
	return l, nil
}

// Close releases the store and the log file.
func (l *Ledger) Close() error {
	err := l.Store.Close()
	if l.logFile != nil {
		if cerr := l.logFile.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// rehydrate replays persisted state into the in-memory components.
// Records are stored in id order, so the sequential restore entry points
// accept them as-is.
func (l *Ledger) rehydrate(guard token.SnapshotGuard) error {
	types, err := l.Store.AssetTypes()
	if err != nil {
		return fmt.Errorf("ledger: load asset types: %w", err)
	}
	for _, at := range types {
		if err := l.Registry.RestoreAssetType(at); err != nil {
			return fmt.Errorf("ledger: restore asset type %d: %w", at.ID, err)
		}
	}

	assets, err := l.Store.Assets()
	if err != nil {
		return fmt.Errorf("ledger: load assets: %w", err)
	}
	for _, rec := range assets {
		tok, err := token.FromState(rec.TokenState, guard)
		if err != nil {
			return fmt.Errorf("ledger: rebuild token for asset %d: %w", rec.ID, err)
		}
		err = l.Registry.RestoreAsset(&registry.Asset{
			ID:           rec.ID,
			TypeID:       rec.TypeID,
			Issuer:       rec.Issuer,
			MetadataHash: rec.MetadataHash,
			DataURI:      rec.DataURI,
			Token:        tok,
		})
		if err != nil {
			return fmt.Errorf("ledger: restore asset %d: %w", rec.ID, err)
		}
	}

	certs, err := l.Store.Certificates()
	if err != nil {
		return fmt.Errorf("ledger: load certificates: %w", err)
	}
	for _, cert := range certs {
		if err := l.Authority.RestoreCertificate(cert); err != nil {
			return fmt.Errorf("ledger: restore certificate %s: %w", cert.ID, err)
		}
	}

	rounds, err := l.Store.Rounds()
	if err != nil {
		return fmt.Errorf("ledger: load rounds: %w", err)
	}
	for _, rec := range rounds {
		asset, err := l.Registry.Asset(rec.AssetID)
		if err != nil {
			return fmt.Errorf("ledger: round %d references asset %d: %w", rec.ID, rec.AssetID, err)
		}
		err = l.Distributor.RestoreRound(&revenue.Round{
			ID:          rec.ID,
			Token:       asset.Token,
			SnapshotID:  rec.SnapshotID,
			TotalAmount: rec.TotalAmount,
			Claimed:     rec.Claimed,
			ClaimedSum:  rec.ClaimedSum,
		})
		if err != nil {
			return fmt.Errorf("ledger: restore round %d: %w", rec.ID, err)
		}
	}
	return nil
}

// writeAsset persists an asset's catalog record and current token state.
func (l *Ledger) writeAsset(assetID uint64) error {
	asset, err := l.Registry.Asset(assetID)
	if err != nil {
		return err
	}
	return l.Store.PutAsset(&store.AssetRecord{
		ID:           asset.ID,
		TypeID:       asset.TypeID,
		Issuer:       asset.Issuer,
		MetadataHash: asset.MetadataHash,
		DataURI:      asset.DataURI,
		TokenState:   asset.Token.State(),
	})
}

// writeRound persists one revenue round.
func (l *Ledger) writeRound(roundID, assetID uint64) error {
	round, err := l.Distributor.Round(roundID)
	if err != nil {
		return err
	}
	return l.Store.PutRound(&store.RoundRecord{
		ID:          round.ID,
		AssetID:     assetID,
		SnapshotID:  round.SnapshotID,
		TotalAmount: round.TotalAmount,
		Claimed:     round.Claimed,
		ClaimedSum:  round.ClaimedSum,
	})
}

// roundAsset finds the asset id whose token backs the round. Used when a
// claim must be written through.
func (l *Ledger) roundAsset(round *revenue.Round) (uint64, error) {
	for id := uint64(1); l.Registry.AssetExists(id); id++ {
		asset, err := l.Registry.Asset(id)
		if err != nil {
			return 0, err
		}
		if asset.Token == round.Token {
			return id, nil
		}
	}
	return 0, fmt.Errorf("ledger: no asset backs round %d", round.ID)
}
