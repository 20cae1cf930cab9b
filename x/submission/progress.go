package submission

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Step is the last pipeline step attempted. It never moves backwards within
// one submission.
type Step int

const (
	StepNotStarted Step = iota
	StepProvingRequested
	StepSolutionSubmitted
	StepBountyClaimed
)

func (s Step) String() string {
	switch s {
	case StepNotStarted:
		return "not_started"
	case StepProvingRequested:
		return "proving_requested"
	case StepSolutionSubmitted:
		return "solution_submitted"
	case StepBountyClaimed:
		return "bounty_claimed"
	default:
		return "unknown"
	}
}

// MarshalText renders the step by name.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal is the outcome of a submission; None while it is running.
type Terminal int

const (
	TerminalNone Terminal = iota
	TerminalCompleted
	TerminalFailed
)

func (t Terminal) String() string {
	switch t {
	case TerminalNone:
		return "none"
	case TerminalCompleted:
		return "completed"
	case TerminalFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the terminal state by name.
func (t Terminal) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Stage names the operation inside a step that produced a failure.
type Stage string

const (
	StagePrecondition   Stage = "precondition"
	StageProve          Stage = "prove"
	StageDecode         Stage = "decode"
	StageSubmitSolution Stage = "submit_solution"
	StageClaimBounty    Stage = "claim_bounty"
)

// Progress is a point-in-time view of one submission, handed to observers
// by value.
type Progress struct {
	ChallengeID      *big.Int
	Step             Step
	Terminal         Terminal
	SolutionRecorded bool
	SubmitTx         common.Hash
	ClaimTx          common.Hash
	Err              error
}

// Done reports whether the submission reached a terminal state.
func (p Progress) Done() bool {
	return p.Terminal != TerminalNone
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Progress)

// OnProgress calls f(p).
func (f ObserverFunc) OnProgress(p Progress) { f(p) }

// MultiObserver fans every transition out to each observer in order.
type MultiObserver []Observer

// OnProgress implements Observer.
func (m MultiObserver) OnProgress(p Progress) {
	for _, o := range m {
		if o != nil {
			o.OnProgress(p)
		}
	}
}

type nopObserver struct{}

func (nopObserver) OnProgress(Progress) {}
