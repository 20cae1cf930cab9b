// Package artifact turns a proving service artifact into the arguments of a
// ledger submitSolution call.
package artifact

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/lemma-network/lemma/x/faults"
	"github.com/lemma-network/lemma/x/prover"
)

// JournalSize is the encoded length of the static (address, bytes32) tuple.
const JournalSize = 64

// VerifierSelector routes a seal to the Groth16 verifier on the ledger side.
var VerifierSelector = [4]byte{0x31, 0x0f, 0xe5, 0x98}

var (
	// ErrDecode is returned when the journal is not a well formed (address, bytes32) tuple.
	ErrDecode = errors.New("artifact decode failed")
	// ErrIdentityMismatch is returned when the journal commits to a different signer.
	ErrIdentityMismatch = errors.New("artifact signer mismatch")
)

var journalArgs = mustJournalArgs()

func mustJournalArgs() abi.Arguments {
	addrT, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	hashT, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "sender", Type: addrT},
		{Name: "solutionHash", Type: hashT},
	}
}

// Journal is the public output committed by the guest program.
type Journal struct {
	Sender       common.Address
	SolutionHash common.Hash
}

// DecodeJournal decodes raw journal bytes. Anything other than exactly
// JournalSize bytes, or an address word with non-zero padding, is rejected.
func DecodeJournal(raw []byte) (Journal, error) {
	const op = "artifact.decodeJournal"
	if len(raw) != JournalSize {
		return Journal{}, faults.New(faults.KindValidation, op).
			WithSentinel(ErrDecode).
			WithMessage("journal is %d bytes, want %d", len(raw), JournalSize)
	}
	if !bytes.Equal(raw[:12], make([]byte, 12)) {
		return Journal{}, faults.New(faults.KindValidation, op).
			WithSentinel(ErrDecode).
			WithMessage("address word has non-zero padding %s", hexutil.Encode(raw[:12]))
	}

	values, err := journalArgs.Unpack(raw)
	if err != nil {
		return Journal{}, faults.New(faults.KindValidation, op).WithSentinel(ErrDecode).WithCause(err)
	}
	sender, ok := values[0].(common.Address)
	if !ok {
		return Journal{}, faults.New(faults.KindValidation, op).
			WithSentinel(ErrDecode).
			WithMessage("sender has type %T", values[0])
	}
	hash, ok := values[1].([32]byte)
	if !ok {
		return Journal{}, faults.New(faults.KindValidation, op).
			WithSentinel(ErrDecode).
			WithMessage("solution hash has type %T", values[1])
	}
	return Journal{Sender: sender, SolutionHash: common.Hash(hash)}, nil
}

// EncodeJournal is the inverse of DecodeJournal.
func EncodeJournal(j Journal) ([]byte, error) {
	out, err := journalArgs.Pack(j.Sender, [32]byte(j.SolutionHash))
	if err != nil {
		return nil, fmt.Errorf("pack journal: %w", err)
	}
	return out, nil
}

// SealForLedger prefixes seal with VerifierSelector.
func SealForLedger(seal []byte) []byte {
	out := make([]byte, 0, len(VerifierSelector)+len(seal))
	out = append(out, VerifierSelector[:]...)
	return append(out, seal...)
}

// Decode validates art against expectedSigner and returns the solution hash
// and the seal in the form the ledger expects.
func Decode(art prover.Artifact, expectedSigner common.Address) (common.Hash, []byte, error) {
	j, err := DecodeJournal(art.Journal)
	if err != nil {
		return common.Hash{}, nil, err
	}
	if j.Sender != expectedSigner {
		return common.Hash{}, nil, faults.New(faults.KindValidation, "artifact.decode").
			WithSentinel(ErrIdentityMismatch).
			WithMessage("journal sender %s, expected %s", j.Sender.Hex(), expectedSigner.Hex())
	}
	if len(art.Seal) == 0 {
		return common.Hash{}, nil, faults.New(faults.KindValidation, "artifact.decode").
			WithSentinel(ErrDecode).
			WithMessage("seal is empty")
	}
	return j.SolutionHash, SealForLedger(art.Seal), nil
}
