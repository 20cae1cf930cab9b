package contracts

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Binding describes an on-chain contract the ledger client talks to.
type Binding interface {
	// Address returns the contract address calls are routed to.
	Address() common.Address

	// ABI returns the parsed contract ABI.
	ABI() abi.ABI
}
