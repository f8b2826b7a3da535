package sender

import (
	"fmt"

	bip39 "github.com/cosmos/go-bip39"

	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Wallet is a single Cosmos SDK account's signing key, grounded on
// pkg/network/cosmos/signing.go's LoadPrivateKey but sourced from a BIP-39
// mnemonic rather than raw key bytes, matching the env-var-mnemonic
// convention in original_source/src/sender.rs.
type Wallet struct {
	privKey      cryptotypes.PrivKey
	bech32Prefix string
}

// NewWalletFromMnemonic derives a secp256k1 key from mnemonic at the
// standard Cosmos HD path m/44'/coinType'/0'/0/0 (spec.md §3 Wallet).
// An empty passphrase is used, matching the Cosmos SDK keyring default.
func NewWalletFromMnemonic(mnemonic string, coinType uint32, bech32Prefix string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("sender: invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("sender: derive seed: %w", err)
	}

	hdPath := hd.NewFundraiserParams(0, coinType, 0).String()
	master, ch := hd.ComputeMastersFromSeed(seed)
	derived, err := hd.DerivePrivateKeyForPath(master, ch, hdPath)
	if err != nil {
		return nil, fmt.Errorf("sender: derive private key: %w", err)
	}

	return &Wallet{
		privKey:      &secp256k1.PrivKey{Key: derived},
		bech32Prefix: bech32Prefix,
	}, nil
}

// NewWalletFromPrivKeyBytes wraps a raw 32-byte secp256k1 private key,
// for callers and tests that don't need a mnemonic round trip.
func NewWalletFromPrivKeyBytes(raw []byte, bech32Prefix string) (*Wallet, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("sender: invalid private key length: expected 32, got %d", len(raw))
	}
	return &Wallet{privKey: &secp256k1.PrivKey{Key: raw}, bech32Prefix: bech32Prefix}, nil
}

// Address returns the wallet's bech32 account address under this chain's
// prefix.
func (w *Wallet) Address() string {
	accAddr := sdk.AccAddress(w.privKey.PubKey().Address())
	addr, err := sdk.Bech32ifyAddressBytes(w.bech32Prefix, accAddr)
	if err != nil {
		return accAddr.String()
	}
	return addr
}

// PubKey returns the wallet's public key.
func (w *Wallet) PubKey() cryptotypes.PubKey { return w.privKey.PubKey() }

// Sign produces a raw signature over signDoc.
func (w *Wallet) Sign(signDoc []byte) ([]byte, error) {
	sig, err := w.privKey.Sign(signDoc)
	if err != nil {
		return nil, fmt.Errorf("sender: sign: %w", err)
	}
	return sig, nil
}
