package evm

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// EnvPrivateKey holds a hex private key used when no keystore is configured.
const EnvPrivateKey = "CROSSDROP_PRIVATE_KEY" // #nosec G101 -- variable name, not a credential

// Signer holds the key that signs approve, send and deploy transactions.
// Only the 32 byte scalar is kept, in memory locked against swapping where
// the OS allows it.
type Signer struct {
	raw     []byte
	locked  bool
	address common.Address
}

// NewSigner copies key into locked memory and clears the scalar of key.
func NewSigner(key *ecdsa.PrivateKey) *Signer {
	s := &Signer{
		raw:     crypto.FromECDSA(key),
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
	s.locked = mlock(s.raw)
	clearKey(key)
	return s
}

// SignerFromHex parses a hex private key, with or without 0x prefix.
func SignerFromHex(hexKey string) (*Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, droperr.ErrKeyRequired
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, droperr.WithCause(droperr.ErrKeyInvalid, err)
	}
	return NewSigner(key), nil
}

// SignerFromKeystore decrypts a go-ethereum V3 keystore file.
func SignerFromKeystore(path, password string) (*Signer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: keystore path comes from config or flag
	if err != nil {
		return nil, droperr.WithCause(droperr.WithDetails(droperr.ErrKeyInvalid, map[string]string{"keystore": path}), err)
	}

	k, err := keystore.DecryptKey(data, password)
	if err != nil {
		return nil, droperr.WithSuggestion(
			droperr.WithCause(droperr.WithDetails(droperr.ErrKeyInvalid, map[string]string{"keystore": path}), err),
			"check the keystore password",
		)
	}
	return NewSigner(k.PrivateKey), nil
}

// SignerFromEnv loads the key from CROSSDROP_PRIVATE_KEY.
func SignerFromEnv() (*Signer, error) {
	v := os.Getenv(EnvPrivateKey)
	if v == "" {
		return nil, droperr.WithSuggestion(droperr.ErrKeyRequired,
			fmt.Sprintf("set %s or pass --key-file", EnvPrivateKey))
	}
	return SignerFromHex(v)
}

// Address returns the sender address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignTx signs tx for chainID with the latest signer the chain supports.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if s.raw == nil {
		return nil, droperr.ErrKeyRequired
	}
	key, err := crypto.ToECDSA(s.raw)
	if err != nil {
		return nil, droperr.WithCause(droperr.ErrKeyInvalid, err)
	}
	defer clearKey(key)

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// Locked reports whether the key memory is pinned. Locking fails without
// the privilege or when RLIMIT_MEMLOCK is exhausted; signing still works.
func (s *Signer) Locked() bool {
	return s.locked
}

// Zero clears the private scalar. The signer is unusable afterwards.
func (s *Signer) Zero() {
	if s.raw == nil {
		return
	}
	clear(s.raw)
	if s.locked {
		munlock(s.raw)
		s.locked = false
	}
	s.raw = nil
}

func clearKey(key *ecdsa.PrivateKey) {
	if key != nil && key.D != nil {
		key.D.SetInt64(0)
	}
}
