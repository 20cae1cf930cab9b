package submission

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrNoSigner is returned before any side effect when no signer identity is given.
	ErrNoSigner = errors.New("no signer identity")
	// ErrUnknownChallenge is returned before any side effect when the challenge is not in the registry.
	ErrUnknownChallenge = errors.New("unknown challenge")
)

// PipelineError is the terminal failure of a submission. Step is the last
// step attempted and SolutionRecorded tells whether submitSolution had
// already succeeded, in which case claiming the bounty again is safe.
type PipelineError struct {
	ChallengeID      *big.Int
	Step             Step
	Stage            Stage
	SolutionRecorded bool
	Err              error
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("submission for challenge %v failed at %s (%s): %v", e.ChallengeID, e.Step, e.Stage, e.Err)
	if e.SolutionRecorded {
		msg += "; solution is already recorded on the ledger, retry with a claim-only request since resubmitting is rejected"
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// AsPipelineError extracts a *PipelineError from err's chain.
func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
