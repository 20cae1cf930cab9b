package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/lemma-network/lemma/x/faults"
)

var (
	// ErrLedgerCall is matched by every failure returned from Client.
	ErrLedgerCall = errors.New("ledger call failed")
	// ErrChallengeNotFound is returned by Challenge for ids outside [0, count).
	ErrChallengeNotFound = fmt.Errorf("%w: challenge not found", ErrLedgerCall)
	// ErrNoSigner is returned by write calls made without a signer.
	ErrNoSigner = fmt.Errorf("%w: signer is required", ErrLedgerCall)
)

// classify turns an RPC failure into a tagged ledger error.
func classify(op string, err error) error {
	kind := faults.KindTransport
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = faults.KindCanceled
	case isRejection(err):
		kind = faults.KindLedgerRejection
	}
	return faults.New(kind, op).WithSentinel(ErrLedgerCall).WithCause(err)
}

func protocolErr(op string, err error) error {
	return faults.New(faults.KindProtocol, op).WithSentinel(ErrLedgerCall).WithCause(err)
}

func rejectionErr(op, format string, args ...interface{}) *faults.Error {
	return faults.New(faults.KindLedgerRejection, op).
		WithSentinel(ErrLedgerCall).
		WithMessage(format, args...)
}

// isRejection reports whether the node executed the call and the contract
// refused it, as opposed to the node being unreachable.
func isRejection(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == 3 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "revert") || strings.Contains(msg, "insufficient funds")
}
