package contracts

import (
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Lemma challenge ledger ABI JSON embedded at compile time
//
//go:embed abi/lemma.json
var challengeLedgerABIJSON string

var _ Binding = (*ChallengeLedgerBinding)(nil)

// Contract method names.
const (
	MethodChallengeCount  = "challengeCount"
	MethodChallenges      = "challenges"
	MethodCreateChallenge = "createChallenge"
	MethodSubmitSolution  = "submitSolution"
	MethodClaimBounty     = "claimBounty"
)

// ErrUnexpectedOutput is returned when a call result does not match the ABI shape.
var ErrUnexpectedOutput = errors.New("unexpected call output")

// ChallengeRecord is the decoded result of challenges(nonce), in the
// six-field (creator, id, theorem, name, bounty, expiration) layout.
type ChallengeRecord struct {
	Creator    common.Address
	ID         *big.Int
	Theorem    string
	Name       string
	Bounty     *big.Int
	Expiration *big.Int
}

// ChallengeLedgerBinding encodes calls to, and decodes results from, the
// challenge ledger contract.
type ChallengeLedgerBinding struct {
	address common.Address
	abi     abi.ABI
}

// NewChallengeLedgerBinding creates a binding for the contract at contractAddr.
//
// Returns an error if the address is empty or malformed, or if the ABI cannot be parsed.
func NewChallengeLedgerBinding(contractAddr string) (*ChallengeLedgerBinding, error) {
	contractAddr = strings.TrimSpace(contractAddr)
	if contractAddr == "" {
		return nil, fmt.Errorf("contract address cannot be empty")
	}
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddr)
	}

	parsedABI, err := abi.JSON(strings.NewReader(challengeLedgerABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse challenge ledger ABI: %w", err)
	}

	return &ChallengeLedgerBinding{
		address: common.HexToAddress(contractAddr),
		abi:     parsedABI,
	}, nil
}

// Address returns the address of the challenge ledger contract.
func (b *ChallengeLedgerBinding) Address() common.Address {
	return b.address
}

// ABI returns the parsed ABI of the challenge ledger contract.
func (b *ChallengeLedgerBinding) ABI() abi.ABI {
	return b.abi
}

// BuildChallengeCountCalldata encodes challengeCount().
func (b *ChallengeLedgerBinding) BuildChallengeCountCalldata() ([]byte, error) {
	data, err := b.abi.Pack(MethodChallengeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack challengeCount calldata: %w", err)
	}
	return data, nil
}

// DecodeChallengeCount decodes the result of challengeCount().
func (b *ChallengeLedgerBinding) DecodeChallengeCount(output []byte) (*big.Int, error) {
	values, err := b.abi.Unpack(MethodChallengeCount, output)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack challengeCount: %v", ErrUnexpectedOutput, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%w: challengeCount returned %d values", ErrUnexpectedOutput, len(values))
	}
	count, ok := values[0].(*big.Int)
	if !ok || count == nil {
		return nil, fmt.Errorf("%w: challengeCount value has type %T", ErrUnexpectedOutput, values[0])
	}
	return count, nil
}

// BuildChallengeCalldata encodes challenges(nonce).
func (b *ChallengeLedgerBinding) BuildChallengeCalldata(nonce *big.Int) ([]byte, error) {
	if nonce == nil {
		return nil, fmt.Errorf("challenge nonce cannot be nil")
	}
	data, err := b.abi.Pack(MethodChallenges, nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to pack challenges calldata: %w", err)
	}
	return data, nil
}

// DecodeChallenge decodes the result of challenges(nonce).
func (b *ChallengeLedgerBinding) DecodeChallenge(output []byte) (ChallengeRecord, error) {
	values, err := b.abi.Unpack(MethodChallenges, output)
	if err != nil {
		return ChallengeRecord{}, fmt.Errorf("%w: unpack challenges: %v", ErrUnexpectedOutput, err)
	}
	if len(values) != 6 {
		return ChallengeRecord{}, fmt.Errorf("%w: challenges returned %d values", ErrUnexpectedOutput, len(values))
	}

	var (
		rec ChallengeRecord
		ok  bool
	)
	if rec.Creator, ok = values[0].(common.Address); !ok {
		return ChallengeRecord{}, fieldTypeErr("creator", values[0])
	}
	if rec.ID, ok = values[1].(*big.Int); !ok {
		return ChallengeRecord{}, fieldTypeErr("id", values[1])
	}
	if rec.Theorem, ok = values[2].(string); !ok {
		return ChallengeRecord{}, fieldTypeErr("theorem", values[2])
	}
	if rec.Name, ok = values[3].(string); !ok {
		return ChallengeRecord{}, fieldTypeErr("name", values[3])
	}
	if rec.Bounty, ok = values[4].(*big.Int); !ok {
		return ChallengeRecord{}, fieldTypeErr("bounty", values[4])
	}
	if rec.Expiration, ok = values[5].(*big.Int); !ok {
		return ChallengeRecord{}, fieldTypeErr("expiration", values[5])
	}
	return rec, nil
}

// BuildCreateChallengeCalldata encodes createChallenge(name, theorem, expiration).
// The bounty travels as the transaction value, not in the calldata.
func (b *ChallengeLedgerBinding) BuildCreateChallengeCalldata(name, theorem string, expiration *big.Int) ([]byte, error) {
	if expiration == nil {
		return nil, fmt.Errorf("expiration cannot be nil")
	}
	data, err := b.abi.Pack(MethodCreateChallenge, name, theorem, expiration)
	if err != nil {
		return nil, fmt.Errorf("failed to pack createChallenge calldata: %w", err)
	}
	return data, nil
}

// BuildSubmitSolutionCalldata encodes submitSolution(id, solutionHash, seal).
func (b *ChallengeLedgerBinding) BuildSubmitSolutionCalldata(id *big.Int, solutionHash common.Hash, seal []byte) ([]byte, error) {
	if id == nil {
		return nil, fmt.Errorf("challenge id cannot be nil")
	}
	if len(seal) == 0 {
		return nil, fmt.Errorf("seal cannot be empty")
	}
	data, err := b.abi.Pack(MethodSubmitSolution, id, [32]byte(solutionHash), seal)
	if err != nil {
		return nil, fmt.Errorf("failed to pack submitSolution calldata: %w", err)
	}
	return data, nil
}

// BuildClaimBountyCalldata encodes claimBounty(id, solution).
func (b *ChallengeLedgerBinding) BuildClaimBountyCalldata(id *big.Int, solution string) ([]byte, error) {
	if id == nil {
		return nil, fmt.Errorf("challenge id cannot be nil")
	}
	data, err := b.abi.Pack(MethodClaimBounty, id, solution)
	if err != nil {
		return nil, fmt.Errorf("failed to pack claimBounty calldata: %w", err)
	}
	return data, nil
}

func fieldTypeErr(field string, v interface{}) error {
	return fmt.Errorf("%w: challenges.%s has type %T", ErrUnexpectedOutput, field, v)
}
