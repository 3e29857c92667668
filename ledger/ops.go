package ledger

import (
	"github.com/faas-tech/space-markets-sub006/access"
	"github.com/faas-tech/space-markets-sub006/lease"
	"github.com/faas-tech/space-markets-sub006/registry"
	"github.com/faas-tech/space-markets-sub006/token"
)

// Grant gives actor a capability.
func (l *Ledger) Grant(actor token.Address, role access.Role) {
	l.Access.Grant(actor, role)
}

// Revoke removes a capability from actor.
func (l *Ledger) Revoke(actor token.Address, role access.Role) {
	l.Access.Revoke(actor, role)
}

// MintFunds credits settlement funds to addr. Genesis and deposit helper;
// a production deployment replaces the funds ledger with a real payment
// rail behind the same interface.
func (l *Ledger) MintFunds(addr token.Address, amount uint64) {
	l.Funds.Mint(addr, amount)
}

// CreateAssetType records a new asset type and persists it.
func (l *Ledger) CreateAssetType(actor token.Address, name string, schemaHash [32]byte, requiredLeaseFieldIDs [][32]byte, schemaURI string) (uint64, error) {
	id, err := l.Registry.CreateAssetType(actor, name, schemaHash, requiredLeaseFieldIDs, schemaURI)
	if err != nil {
		return 0, err
	}
	at, err := l.Registry.AssetType(id)
	if err != nil {
		return 0, err
	}
	return id, l.Store.PutAssetType(at)
}

// RegisterAsset records a new asset with its ownership token and persists
// both.
func (l *Ledger) RegisterAsset(actor token.Address, typeID uint64, owner token.Address, metadataHash [32]byte, dataURI, tokenName, tokenSymbol string, totalSupply uint64) (*registry.Asset, error) {
	asset, err := l.Registry.RegisterAsset(actor, typeID, owner, metadataHash, dataURI, tokenName, tokenSymbol, totalSupply)
	if err != nil {
		return nil, err
	}
	return asset, l.writeAsset(asset.ID)
}

// Transfer moves ownership units of an asset and writes the ledger through.
func (l *Ledger) Transfer(assetID uint64, from, to token.Address, amount uint64) error {
	asset, err := l.Registry.Asset(assetID)
	if err != nil {
		return err
	}
	if err := asset.Token.Transfer(from, to, amount); err != nil {
		return err
	}
	return l.writeAsset(assetID)
}

// Snapshot freezes an asset's current balances and writes the ledger
// through. The actor must hold the snapshot capability.
func (l *Ledger) Snapshot(assetID uint64, actor token.Address) (uint64, error) {
	asset, err := l.Registry.Asset(assetID)
	if err != nil {
		return 0, err
	}
	id, err := asset.Token.Snapshot(actor)
	if err != nil {
		return 0, err
	}
	return id, l.writeAsset(assetID)
}

// BalanceOf returns a holder's current balance on an asset.
func (l *Ledger) BalanceOf(assetID uint64, holder token.Address) (uint64, error) {
	asset, err := l.Registry.Asset(assetID)
	if err != nil {
		return 0, err
	}
	return asset.Token.BalanceOf(holder), nil
}

// BalanceOfAt returns a holder's balance on an asset as of a snapshot.
func (l *Ledger) BalanceOfAt(assetID uint64, holder token.Address, snapshotID uint64) (uint64, error) {
	asset, err := l.Registry.Asset(assetID)
	if err != nil {
		return 0, err
	}
	return asset.Token.BalanceOfAt(holder, snapshotID)
}

// MintLease verifies a dual-signed intent, mints its certificate, and
// persists it. Used when the parties settle off-market.
func (l *Ledger) MintLease(intent *lease.LeaseIntent, lessorSig, lesseeSig []byte) (lease.CertificateID, error) {
	certID, err := l.Authority.MintLease(intent, lessorSig, lesseeSig)
	if err != nil {
		return lease.CertificateID{}, err
	}
	cert, err := l.Authority.Certificate(certID)
	if err != nil {
		return lease.CertificateID{}, err
	}
	return certID, l.Store.PutCertificate(cert)
}

// CertificatesByLessee returns every persisted certificate the lessee holds.
func (l *Ledger) CertificatesByLessee(lessee token.Address) ([]*lease.Certificate, error) {
	return l.Store.CertificatesByLessee(lessee)
}

// PostSale lists ownership units for sale.
func (l *Ledger) PostSale(seller token.Address, assetID, amount, askPrice uint64) (uint64, error) {
	return l.Market.PostSale(seller, assetID, amount, askPrice)
}

// PlaceSaleBid escrows funds against a sale.
func (l *Ledger) PlaceSaleBid(bidder token.Address, saleID, amount, pricePerUnit uint64) (uint64, error) {
	return l.Market.PlaceSaleBid(bidder, saleID, amount, pricePerUnit)
}

// AcceptSaleBid settles one sale bid and writes the moved ownership ledger
// through.
func (l *Ledger) AcceptSaleBid(actor token.Address, saleID, bidID uint64) error {
	if err := l.Market.AcceptSaleBid(actor, saleID, bidID); err != nil {
		return err
	}
	sale, err := l.Market.Sale(saleID)
	if err != nil {
		return err
	}
	return l.writeAsset(sale.AssetID)
}

// PostLeaseOffer posts a lessee-blank lease intent for bidding.
func (l *Ledger) PostLeaseOffer(lessor token.Address, intent *lease.LeaseIntent) (uint64, error) {
	return l.Market.PostLeaseOffer(lessor, intent)
}

// PlaceLeaseBid escrows funds and a candidate lessee's signature against an
// offer.
func (l *Ledger) PlaceLeaseBid(lessee token.Address, offerID, funds uint64, lesseeSig []byte) (uint64, error) {
	return l.Market.PlaceLeaseBid(lessee, offerID, funds, lesseeSig)
}

// AcceptLeaseBid settles a lease offer and persists everything it changed:
// the minted certificate, the revenue round under the round strategy, and
// the asset's token state (a round snapshot mutates it).
func (l *Ledger) AcceptLeaseBid(actor token.Address, offerID, bidID uint64, lessorSig []byte) (lease.CertificateID, error) {
	roundsBefore := l.Distributor.RoundCount()

	certID, err := l.Market.AcceptLeaseBid(actor, offerID, bidID, lessorSig)
	if err != nil {
		return lease.CertificateID{}, err
	}

	cert, err := l.Authority.Certificate(certID)
	if err != nil {
		return lease.CertificateID{}, err
	}
	if err := l.Store.PutCertificate(cert); err != nil {
		return lease.CertificateID{}, err
	}

	offer, err := l.Market.LeaseOffer(offerID)
	if err != nil {
		return lease.CertificateID{}, err
	}
	if roundID := l.Distributor.RoundCount(); roundID > roundsBefore {
		if err := l.writeRound(roundID, offer.AssetID); err != nil {
			return lease.CertificateID{}, err
		}
	}
	return certID, l.writeAsset(offer.AssetID)
}

// OpenRound opens a revenue round directly, outside the marketplace flow,
// and persists it. The actor must hold the distributor capability.
func (l *Ledger) OpenRound(actor token.Address, assetID, amount uint64, payer token.Address) (uint64, error) {
	asset, err := l.Registry.Asset(assetID)
	if err != nil {
		return 0, err
	}
	roundID, err := l.Distributor.OpenRound(actor, asset.Token, amount, payer)
	if err != nil {
		return 0, err
	}
	if err := l.writeRound(roundID, assetID); err != nil {
		return 0, err
	}
	return roundID, l.writeAsset(assetID)
}

// Claim pays a holder its share of a round and writes the round through.
func (l *Ledger) Claim(roundID uint64, holder token.Address) (uint64, error) {
	share, err := l.Distributor.Claim(roundID, holder)
	if err != nil {
		return 0, err
	}
	round, err := l.Distributor.Round(roundID)
	if err != nil {
		return 0, err
	}
	assetID, err := l.roundAsset(round)
	if err != nil {
		return 0, err
	}
	return share, l.writeRound(roundID, assetID)
}
