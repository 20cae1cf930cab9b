package ledger

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer authorizes ledger writes on behalf of one account.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// LocalSigner signs with an in-process secp256k1 key.
type LocalSigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

var _ Signer = (*LocalSigner)(nil)

// NewLocalSigner wraps key.
func NewLocalSigner(key *ecdsa.PrivateKey) *LocalSigner {
	return &LocalSigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewLocalSignerFromHex parses a hex private key, with or without 0x prefix.
func NewLocalSignerFromHex(pkHex string) (*LocalSigner, error) {
	pkHex = strings.TrimPrefix(strings.TrimSpace(pkHex), "0x")
	if pkHex == "" {
		return nil, fmt.Errorf("private key is empty")
	}
	key, err := crypto.HexToECDSA(pkHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewLocalSigner(key), nil
}

// Address returns the account address derived from the key.
func (s *LocalSigner) Address() common.Address {
	return s.addr
}

// SignTx signs tx for chainID using the latest signer rules.
func (s *LocalSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}
