package prover

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Artifact is the output of one proving round trip: the opaque seal and the
// public output (journal) bytes committed by the guest program.
type Artifact struct {
	Seal    []byte
	Journal []byte
}

// Client requests a proof that solution proves theorem on behalf of sender.
type Client interface {
	RequestProof(ctx context.Context, sender common.Address, theorem, solution string) (Artifact, error)
}

type proveRequest struct {
	Sender   string `json:"sender"`
	Theorem  string `json:"theorem"`
	Solution string `json:"solution"`
}

type proveResponse struct {
	Receipt *receipt `json:"receipt"`
}

type receipt struct {
	Inner   *receiptInner `json:"inner"`
	Journal *journal      `json:"journal"`
}

type receiptInner struct {
	Groth16 *groth16Receipt `json:"Groth16"`
}

type groth16Receipt struct {
	Seal byteList `json:"seal"`
}

type journal struct {
	Bytes byteList `json:"bytes"`
}

func (r proveResponse) seal() []byte {
	if r.Receipt == nil || r.Receipt.Inner == nil || r.Receipt.Inner.Groth16 == nil {
		return nil
	}
	return r.Receipt.Inner.Groth16.Seal.clone()
}

func (r proveResponse) journal() []byte {
	if r.Receipt == nil || r.Receipt.Journal == nil {
		return nil
	}
	return r.Receipt.Journal.Bytes.clone()
}
