package ledger

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds challenge ledger connection configuration
type Config struct {
	// RPC endpoint of an Ethereum node.
	RPCEndpoint string `mapstructure:"rpc_endpoint" yaml:"rpc_endpoint"`

	// Address (hex) of the challenge ledger contract.
	ContractAddress string `mapstructure:"contract_address" yaml:"contract_address"`

	// Chain configuration. Zero means "ask the node".
	ChainID uint64 `mapstructure:"chain_id" yaml:"chain_id"`

	// Gas/fees configuration (EIP-1559)
	UseEIP1559        bool   `mapstructure:"use_eip1559"          yaml:"use_eip1559"`
	MaxFeePerGasWei   string `mapstructure:"max_fee_per_gas_wei"  yaml:"max_fee_per_gas_wei"`  // optional cap
	MaxPriorityFeeWei string `mapstructure:"max_priority_fee_wei" yaml:"max_priority_fee_wei"` // optional tip cap
	GasLimitBufferPct uint64 `mapstructure:"gas_limit_buffer_pct" yaml:"gas_limit_buffer_pct"` // add buffer to estimates

	// How often to poll for the receipt of a sent transaction.
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval" yaml:"receipt_poll_interval"`

	// Signing key of the account the service acts for.
	SignerPkHex string `mapstructure:"signer_pk_hex" yaml:"signer_pk_hex" env:"LEDGER_SIGNER_PK_HEX"`
}

func DefaultConfig() Config {
	return Config{
		RPCEndpoint:         "http://localhost:8545",
		UseEIP1559:          true,
		GasLimitBufferPct:   15,
		ReceiptPollInterval: 2 * time.Second,
	}
}

// Validate checks the connection settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.RPCEndpoint) == "" {
		return fmt.Errorf("ledger.rpc_endpoint is required")
	}
	if !common.IsHexAddress(strings.TrimSpace(c.ContractAddress)) {
		return fmt.Errorf("ledger.contract_address must be a hex address, got %q", c.ContractAddress)
	}
	if _, err := parseWei(c.MaxFeePerGasWei); err != nil {
		return fmt.Errorf("ledger.max_fee_per_gas_wei: %w", err)
	}
	if _, err := parseWei(c.MaxPriorityFeeWei); err != nil {
		return fmt.Errorf("ledger.max_priority_fee_wei: %w", err)
	}
	if c.ReceiptPollInterval < 0 {
		return fmt.Errorf("ledger.receipt_poll_interval must not be negative")
	}
	return nil
}

// parseWei parses an optional decimal wei amount; empty and "0" mean unset.
func parseWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid wei amount %q", s)
	}
	return v, nil
}
