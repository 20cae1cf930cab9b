package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Challenge is one published theorem-plus-bounty record as stored by the ledger.
type Challenge struct {
	ID         *big.Int       `json:"id"`
	Creator    common.Address `json:"creator"`
	Name       string         `json:"name"`
	Theorem    string         `json:"theorem"`
	Bounty     *big.Int       `json:"bounty"`
	Expiration *big.Int       `json:"expiration"`
}

// Clone returns a deep copy so callers cannot alias ledger-owned big.Ints.
func (c Challenge) Clone() Challenge {
	out := c
	out.ID = cloneBig(c.ID)
	out.Bounty = cloneBig(c.Bounty)
	out.Expiration = cloneBig(c.Expiration)
	return out
}

// Empty reports whether the record carries no creator, which is how the
// ledger answers for ids it never assigned or has cleared.
func (c Challenge) Empty() bool {
	return c.Creator == (common.Address{})
}

// Receipt summarises a mined ledger write.
type Receipt struct {
	TxHash      common.Hash `json:"tx_hash"`
	BlockNumber uint64      `json:"block_number"`
	GasUsed     uint64      `json:"gas_used"`
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
