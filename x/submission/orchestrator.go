// Package submission drives one proof submission from the prover to the
// bounty claim and reports each transition to an Observer.
package submission

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/lemma-network/lemma/x/artifact"
	"github.com/lemma-network/lemma/x/faults"
	"github.com/lemma-network/lemma/x/ledger"
)

// Request identifies one submission attempt.
type Request struct {
	ChallengeID *big.Int
	Solution    string
	Signer      ledger.Signer
}

// Orchestrator runs the prove, decode, submitSolution, claimBounty sequence.
// It keeps no state between calls, so Submit may run concurrently for
// different challenges and may be re-invoked after any failure.
type Orchestrator struct {
	prover     Prover
	ledger     Ledger
	challenges Challenges
	log        zerolog.Logger
	metrics    *Metrics
}

// NewOrchestrator wires the pipeline collaborators.
func NewOrchestrator(p Prover, l Ledger, c Challenges, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		prover:     p,
		ledger:     l,
		challenges: c,
		log:        log.With().Str("component", "submission-orchestrator").Logger(),
		metrics:    NewMetrics(),
	}
}

// Submit runs the pipeline once. Any failure is returned as *PipelineError
// after the observer has seen the Failed transition. No step is retried.
func (o *Orchestrator) Submit(ctx context.Context, req Request, obs Observer) error {
	r := o.start(req, obs)
	return r.measure(func() error { return r.execute(ctx) })
}

// Claim runs only the bounty claim for a solution that an earlier Submit
// already recorded on the ledger. It is the recovery path when Submit fails
// with SolutionRecorded set; resubmitting would be rejected by the ledger.
func (o *Orchestrator) Claim(ctx context.Context, req Request, obs Observer) error {
	r := o.start(req, obs)
	return r.measure(func() error { return r.claim(ctx) })
}

func (o *Orchestrator) start(req Request, obs Observer) *run {
	if obs == nil {
		obs = nopObserver{}
	}
	return &run{
		o:   o,
		req: req,
		obs: obs,
		log: o.log.With().Str("challenge_id", bigString(req.ChallengeID)).Logger(),
		progress: Progress{
			ChallengeID: cloneBig(req.ChallengeID),
			Step:        StepNotStarted,
		},
	}
}

// run holds the progress of a single Submit call.
type run struct {
	o        *Orchestrator
	req      Request
	obs      Observer
	log      zerolog.Logger
	progress Progress
}

func (r *run) measure(fn func() error) error {
	r.o.metrics.InFlight.Inc()
	defer r.o.metrics.InFlight.Dec()

	err := fn()
	result := "completed"
	if err != nil {
		result = faults.KindOf(err).String()
	}
	r.o.metrics.SubmissionsTotal.WithLabelValues(r.progress.Step.String(), result).Inc()
	return err
}

// resolve checks the side-effect free preconditions shared by submit and claim.
func (r *run) resolve() (ledger.Signer, ledger.Challenge, error) {
	signer := r.req.Signer
	if signer == nil || signer.Address() == (common.Address{}) {
		return nil, ledger.Challenge{}, r.fail(StagePrecondition, faults.New(faults.KindPrecondition, "submission.submit").
			WithSentinel(ErrNoSigner))
	}

	id := r.req.ChallengeID
	if id == nil || !id.IsUint64() {
		return nil, ledger.Challenge{}, r.fail(StagePrecondition, unknownChallenge(id))
	}
	challenge, ok := r.o.challenges.Get(id.Uint64())
	if !ok || challenge.Empty() {
		return nil, ledger.Challenge{}, r.fail(StagePrecondition, unknownChallenge(id))
	}
	return signer, challenge, nil
}

func (r *run) execute(ctx context.Context) error {
	signer, challenge, err := r.resolve()
	if err != nil {
		return err
	}
	sender := signer.Address()
	id := r.req.ChallengeID

	r.log.Info().
		Str("sender", sender.Hex()).
		Str("challenge", challenge.Name).
		Msg("Starting submission")

	// prove
	if err := r.advance(ctx, StepProvingRequested, StageProve); err != nil {
		return err
	}
	start := time.Now()
	art, err := r.o.prover.RequestProof(ctx, sender, challenge.Theorem, r.req.Solution)
	r.observeStage(StageProve, start)
	if err != nil {
		return r.fail(StageProve, err)
	}

	// decode
	if err := faults.FromContext(ctx, "submission.decode"); err != nil {
		return r.fail(StageDecode, err)
	}
	solutionHash, seal, err := artifact.Decode(art, sender)
	if err != nil {
		return r.fail(StageDecode, err)
	}
	r.log.Debug().
		Str("solution_hash", solutionHash.Hex()).
		Int("seal_bytes", len(seal)).
		Msg("Artifact decoded")

	// submitSolution
	if err := r.advance(ctx, StepSolutionSubmitted, StageSubmitSolution); err != nil {
		return err
	}
	start = time.Now()
	rcpt, err := r.o.ledger.SubmitSolution(ctx, signer, id, solutionHash, seal)
	r.observeStage(StageSubmitSolution, start)
	if err != nil {
		return r.fail(StageSubmitSolution, err)
	}
	r.progress.SolutionRecorded = true
	if rcpt != nil {
		r.progress.SubmitTx = rcpt.TxHash
	}
	r.log.Info().Str("tx_hash", r.progress.SubmitTx.Hex()).Msg("Solution recorded")

	return r.claimBounty(ctx, signer)
}

// claim runs the claim step alone. Whether a solution was recorded is up to
// the ledger, so SolutionRecorded stays false and a rejection is reported as is.
func (r *run) claim(ctx context.Context) error {
	signer, challenge, err := r.resolve()
	if err != nil {
		return err
	}
	r.log.Info().
		Str("sender", signer.Address().Hex()).
		Str("challenge", challenge.Name).
		Msg("Claiming bounty")
	return r.claimBounty(ctx, signer)
}

func (r *run) claimBounty(ctx context.Context, signer ledger.Signer) error {
	id := r.req.ChallengeID
	if err := r.advance(ctx, StepBountyClaimed, StageClaimBounty); err != nil {
		return err
	}
	start := time.Now()
	rcpt, err := r.o.ledger.ClaimBounty(ctx, signer, id, r.req.Solution)
	r.observeStage(StageClaimBounty, start)
	if err != nil {
		return r.fail(StageClaimBounty, err)
	}
	if rcpt != nil {
		r.progress.ClaimTx = rcpt.TxHash
	}

	r.progress.Terminal = TerminalCompleted
	r.notify()
	r.log.Info().
		Str("claim_tx", r.progress.ClaimTx.Hex()).
		Msg("Bounty claimed")
	return nil
}

// advance checks for cancellation, then moves to step and notifies the
// observer before the step is attempted.
func (r *run) advance(ctx context.Context, step Step, stage Stage) error {
	if err := faults.FromContext(ctx, "submission."+string(stage)); err != nil {
		return r.fail(stage, err)
	}
	r.progress.Step = step
	r.notify()
	r.log.Debug().Str("step", step.String()).Msg("Step started")
	return nil
}

func (r *run) fail(stage Stage, err error) error {
	pe := &PipelineError{
		ChallengeID:      cloneBig(r.req.ChallengeID),
		Step:             r.progress.Step,
		Stage:            stage,
		SolutionRecorded: r.progress.SolutionRecorded,
		Err:              err,
	}
	r.progress.Terminal = TerminalFailed
	r.progress.Err = pe
	r.notify()

	r.log.Error().
		Err(err).
		Str("step", pe.Step.String()).
		Str("stage", string(stage)).
		Str("kind", faults.KindOf(err).String()).
		Bool("solution_recorded", pe.SolutionRecorded).
		Msg("Submission failed")
	return pe
}

func (r *run) notify() {
	p := r.progress
	p.ChallengeID = cloneBig(r.progress.ChallengeID)
	r.obs.OnProgress(p)
}

func (r *run) observeStage(stage Stage, start time.Time) {
	r.o.metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}

func unknownChallenge(id *big.Int) error {
	return faults.New(faults.KindPrecondition, "submission.submit").
		WithSentinel(ErrUnknownChallenge).
		WithContext("challenge_id", bigString(id))
}

func bigString(v *big.Int) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
