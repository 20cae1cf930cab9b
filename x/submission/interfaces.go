package submission

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lemma-network/lemma/x/ledger"
	"github.com/lemma-network/lemma/x/prover"
)

//go:generate mockgen -source=interfaces.go -destination=./submission_mock.go -package=submission

// Prover requests a proof artifact from the remote proving service.
type Prover interface {
	RequestProof(ctx context.Context, sender common.Address, theorem, solution string) (prover.Artifact, error)
}

// Ledger is the write side of the challenge ledger used by a submission.
type Ledger interface {
	SubmitSolution(
		ctx context.Context,
		signer ledger.Signer,
		id *big.Int,
		solutionHash common.Hash,
		seal []byte,
	) (*ledger.Receipt, error)
	ClaimBounty(ctx context.Context, signer ledger.Signer, id *big.Int, solution string) (*ledger.Receipt, error)
}

// Challenges resolves a challenge id to its cached record.
type Challenges interface {
	Get(id uint64) (ledger.Challenge, bool)
}

// Observer receives every progress transition of one submission.
type Observer interface {
	OnProgress(p Progress)
}
