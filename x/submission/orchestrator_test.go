package submission

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lemma-network/lemma/x/artifact"
	"github.com/lemma-network/lemma/x/faults"
	"github.com/lemma-network/lemma/x/ledger"
	"github.com/lemma-network/lemma/x/prover"
)

const (
	testTheorem  = "a ∧ b → b ∧ a"
	testSolution = "and.comm"
)

var testHash = common.HexToHash("0xdead00000000000000000000000000000000000000000000000000000000beef")

type bigIntMatcher struct{ want *big.Int }

func (m bigIntMatcher) Matches(x any) bool {
	v, ok := x.(*big.Int)
	return ok && v != nil && v.Cmp(m.want) == 0
}

func (m bigIntMatcher) String() string { return fmt.Sprintf("big.Int %s", m.want) }

func bigEq(v int64) gomock.Matcher { return bigIntMatcher{want: big.NewInt(v)} }

type progressMatcher struct {
	step     Step
	terminal Terminal
}

func (m progressMatcher) Matches(x any) bool {
	p, ok := x.(Progress)
	return ok && p.Step == m.step && p.Terminal == m.terminal
}

func (m progressMatcher) String() string {
	return fmt.Sprintf("progress %s/%s", m.step, m.terminal)
}

type recorder struct {
	mu    sync.Mutex
	steps []Progress
}

func (r *recorder) OnProgress(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, p)
}

func (r *recorder) last() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.steps[len(r.steps)-1]
}

type fixture struct {
	ctrl       *gomock.Controller
	prover     *MockProver
	ledger     *MockLedger
	challenges *MockChallenges
	orch       *Orchestrator
	signer     *ledger.LocalSigner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	f := &fixture{
		ctrl:       ctrl,
		prover:     NewMockProver(ctrl),
		ledger:     NewMockLedger(ctrl),
		challenges: NewMockChallenges(ctrl),
		signer:     ledger.NewLocalSigner(key),
	}
	f.orch = NewOrchestrator(f.prover, f.ledger, f.challenges, zerolog.Nop())
	return f
}

func (f *fixture) expectChallenge(id uint64) {
	f.challenges.EXPECT().Get(id).Return(ledger.Challenge{
		ID:      new(big.Int).SetUint64(id),
		Creator: common.HexToAddress("0x0000000000000000000000000000000000000abc"),
		Name:    "And commutes",
		Theorem: testTheorem,
		Bounty:  big.NewInt(1_000),
	}, true)
}

func journal(t *testing.T, sender common.Address) []byte {
	t.Helper()
	raw, err := artifact.EncodeJournal(artifact.Journal{Sender: sender, SolutionHash: testHash})
	require.NoError(t, err)
	return raw
}

func (f *fixture) request(id int64) Request {
	return Request{ChallengeID: big.NewInt(id), Solution: testSolution, Signer: f.signer}
}

func rejection(op, msg string) error {
	return faults.New(faults.KindLedgerRejection, op).WithSentinel(ledger.ErrLedgerCall).WithMessage("%s", msg)
}

func TestSubmit_EndToEndSuccess(t *testing.T) {
	f := newFixture(t)
	obs := NewMockObserver(f.ctrl)
	f.expectChallenge(7)

	submitTx := common.HexToHash("0x01")
	claimTx := common.HexToHash("0x02")

	gomock.InOrder(
		obs.EXPECT().OnProgress(progressMatcher{StepProvingRequested, TerminalNone}),
		f.prover.EXPECT().
			RequestProof(gomock.Any(), f.signer.Address(), testTheorem, testSolution).
			Return(prover.Artifact{Seal: []byte{0x01, 0x02}, Journal: journal(t, f.signer.Address())}, nil),
		obs.EXPECT().OnProgress(progressMatcher{StepSolutionSubmitted, TerminalNone}),
		f.ledger.EXPECT().
			SubmitSolution(gomock.Any(), f.signer, bigEq(7), testHash, []byte{0x31, 0x0f, 0xe5, 0x98, 0x01, 0x02}).
			Return(&ledger.Receipt{TxHash: submitTx}, nil),
		obs.EXPECT().OnProgress(progressMatcher{StepBountyClaimed, TerminalNone}),
		f.ledger.EXPECT().
			ClaimBounty(gomock.Any(), f.signer, bigEq(7), testSolution).
			Return(&ledger.Receipt{TxHash: claimTx}, nil),
		obs.EXPECT().OnProgress(progressMatcher{StepBountyClaimed, TerminalCompleted}).
			Do(func(p Progress) {
				require.True(t, p.SolutionRecorded)
				require.Equal(t, submitTx, p.SubmitTx)
				require.Equal(t, claimTx, p.ClaimTx)
				require.NoError(t, p.Err)
			}),
	)

	require.NoError(t, f.orch.Submit(t.Context(), f.request(7), obs))
}

func TestSubmit_SubmitSolutionRejectedNeverClaims(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	f.expectChallenge(7)

	f.prover.EXPECT().RequestProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(prover.Artifact{Seal: []byte{0x01, 0x02}, Journal: journal(t, f.signer.Address())}, nil)
	f.ledger.EXPECT().SubmitSolution(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, rejection("ledger.submitSolution", "execution reverted: challenge expired"))

	err := f.orch.Submit(t.Context(), f.request(7), rec)

	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	require.Equal(t, StepSolutionSubmitted, pe.Step)
	require.Equal(t, StageSubmitSolution, pe.Stage)
	require.False(t, pe.SolutionRecorded)
	require.ErrorIs(t, err, ledger.ErrLedgerCall)
	require.Equal(t, faults.KindLedgerRejection, faults.KindOf(err))

	final := rec.last()
	require.Equal(t, TerminalFailed, final.Terminal)
	require.Equal(t, StepSolutionSubmitted, final.Step)
	require.ErrorIs(t, final.Err, ledger.ErrLedgerCall)
}

func TestSubmit_IdentityMismatchNeverReachesLedger(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	f.expectChallenge(7)

	other := common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	f.prover.EXPECT().RequestProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(prover.Artifact{Seal: []byte{0x01}, Journal: journal(t, other)}, nil)

	err := f.orch.Submit(t.Context(), f.request(7), rec)

	require.ErrorIs(t, err, artifact.ErrIdentityMismatch)
	require.Equal(t, faults.KindValidation, faults.KindOf(err))
	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	require.Equal(t, StepProvingRequested, pe.Step)
	require.Equal(t, StageDecode, pe.Stage)
	require.Equal(t, TerminalFailed, rec.last().Terminal)
}

func TestSubmit_WrongLengthJournal(t *testing.T) {
	f := newFixture(t)
	f.expectChallenge(7)

	f.prover.EXPECT().RequestProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(prover.Artifact{Seal: []byte{0x01}, Journal: make([]byte, 63)}, nil)

	err := f.orch.Submit(t.Context(), f.request(7), nil)
	require.ErrorIs(t, err, artifact.ErrDecode)
}

func TestSubmit_ProverErrorPropagatedUnchanged(t *testing.T) {
	f := newFixture(t)
	f.expectChallenge(7)

	proverErr := faults.New(faults.KindTransport, "prover.requestProof").
		WithSentinel(prover.ErrUnavailable).
		WithCause(errors.New("connection refused"))
	f.prover.EXPECT().RequestProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(prover.Artifact{}, proverErr)

	err := f.orch.Submit(t.Context(), f.request(7), nil)

	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	require.Same(t, proverErr, pe.Err)
	require.Equal(t, StepProvingRequested, pe.Step)
	require.Equal(t, StageProve, pe.Stage)
	require.ErrorIs(t, err, prover.ErrUnavailable)
	require.Equal(t, faults.KindTransport, faults.KindOf(err))
}

func TestSubmit_ClaimFailureReportsRecordedSolution(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	f.expectChallenge(7)

	f.prover.EXPECT().RequestProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(prover.Artifact{Seal: []byte{0x01, 0x02}, Journal: journal(t, f.signer.Address())}, nil)
	f.ledger.EXPECT().SubmitSolution(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ledger.Receipt{TxHash: common.HexToHash("0x01")}, nil)
	f.ledger.EXPECT().ClaimBounty(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, rejection("ledger.claimBounty", "execution reverted: already claimed"))

	err := f.orch.Submit(t.Context(), f.request(7), rec)

	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	require.Equal(t, StepBountyClaimed, pe.Step)
	require.Equal(t, StageClaimBounty, pe.Stage)
	require.True(t, pe.SolutionRecorded)
	require.Contains(t, err.Error(), "already recorded")

	final := rec.last()
	require.Equal(t, TerminalFailed, final.Terminal)
	require.True(t, final.SolutionRecorded)
}

func TestSubmit_NoSigner(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}

	req := f.request(7)
	req.Signer = nil
	err := f.orch.Submit(t.Context(), req, rec)

	require.ErrorIs(t, err, ErrNoSigner)
	require.Equal(t, faults.KindPrecondition, faults.KindOf(err))
	require.Len(t, rec.steps, 1)
	require.Equal(t, StepNotStarted, rec.steps[0].Step)
	require.Equal(t, TerminalFailed, rec.steps[0].Terminal)
}

func TestSubmit_UnknownChallenge(t *testing.T) {
	f := newFixture(t)
	f.challenges.EXPECT().Get(uint64(99)).Return(ledger.Challenge{}, false)

	err := f.orch.Submit(t.Context(), f.request(99), nil)

	require.ErrorIs(t, err, ErrUnknownChallenge)
	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	require.Equal(t, StepNotStarted, pe.Step)
	require.Equal(t, StagePrecondition, pe.Stage)
}

func TestSubmit_CanceledAfterSubmitSkipsClaim(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	f.expectChallenge(7)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	f.prover.EXPECT().RequestProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(prover.Artifact{Seal: []byte{0x01, 0x02}, Journal: journal(t, f.signer.Address())}, nil)
	f.ledger.EXPECT().SubmitSolution(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, ledger.Signer, *big.Int, common.Hash, []byte) (*ledger.Receipt, error) {
			cancel()
			return &ledger.Receipt{TxHash: common.HexToHash("0x01")}, nil
		})

	err := f.orch.Submit(ctx, f.request(7), rec)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, faults.KindCanceled, faults.KindOf(err))
	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	require.Equal(t, StepSolutionSubmitted, pe.Step)
	require.True(t, pe.SolutionRecorded)
}

func TestSubmit_CanceledBeforeStart(t *testing.T) {
	f := newFixture(t)
	f.expectChallenge(7)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := f.orch.Submit(ctx, f.request(7), nil)
	require.ErrorIs(t, err, context.Canceled)
	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	require.Equal(t, StepNotStarted, pe.Step)
}

func TestSubmit_ReinvokeAfterFailureStartsFresh(t *testing.T) {
	f := newFixture(t)
	f.challenges.EXPECT().Get(uint64(7)).Return(ledger.Challenge{Theorem: testTheorem}, true).Times(2)
	f.prover.EXPECT().RequestProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(prover.Artifact{Seal: []byte{0x01, 0x02}, Journal: journal(t, f.signer.Address())}, nil).
		Times(2)

	gomock.InOrder(
		f.ledger.EXPECT().SubmitSolution(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("dial tcp: connection refused")),
		f.ledger.EXPECT().SubmitSolution(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&ledger.Receipt{}, nil),
		f.ledger.EXPECT().ClaimBounty(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&ledger.Receipt{}, nil),
	)

	first := &recorder{}
	require.Error(t, f.orch.Submit(t.Context(), f.request(7), first))

	second := &recorder{}
	require.NoError(t, f.orch.Submit(t.Context(), f.request(7), second))

	require.Equal(t, StepProvingRequested, second.steps[0].Step)
	require.False(t, second.steps[0].SolutionRecorded)
	require.NoError(t, second.steps[0].Err)
	require.Equal(t, TerminalCompleted, second.last().Terminal)
}

func TestSubmit_StepsNeverRegress(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	f.expectChallenge(7)

	f.prover.EXPECT().RequestProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(prover.Artifact{Seal: []byte{0x01}, Journal: journal(t, f.signer.Address())}, nil)
	f.ledger.EXPECT().SubmitSolution(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ledger.Receipt{}, nil)
	f.ledger.EXPECT().ClaimBounty(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ledger.Receipt{}, nil)

	require.NoError(t, f.orch.Submit(t.Context(), f.request(7), rec))

	require.Len(t, rec.steps, 4)
	for i := 1; i < len(rec.steps); i++ {
		require.GreaterOrEqual(t, rec.steps[i].Step, rec.steps[i-1].Step)
	}
}

func TestSubmit_ClearedChallengeIsUnknown(t *testing.T) {
	f := newFixture(t)
	f.challenges.EXPECT().Get(uint64(3)).Return(ledger.Challenge{ID: big.NewInt(3)}, true)

	err := f.orch.Submit(t.Context(), f.request(3), nil)

	require.ErrorIs(t, err, ErrUnknownChallenge)
	require.Equal(t, faults.KindPrecondition, faults.KindOf(err))
}

func TestClaim_RecoversAfterClaimFailure(t *testing.T) {
	f := newFixture(t)
	f.expectChallenge(7)
	f.expectChallenge(7)

	claimTx := common.HexToHash("0x02")
	gomock.InOrder(
		f.prover.EXPECT().RequestProof(gomock.Any(), f.signer.Address(), testTheorem, testSolution).
			Return(prover.Artifact{Seal: []byte{0x01}, Journal: journal(t, f.signer.Address())}, nil),
		f.ledger.EXPECT().SubmitSolution(gomock.Any(), gomock.Any(), bigEq(7), testHash, gomock.Any()).
			Return(&ledger.Receipt{TxHash: common.HexToHash("0x01")}, nil),
		f.ledger.EXPECT().ClaimBounty(gomock.Any(), gomock.Any(), bigEq(7), testSolution).
			Return(nil, faults.New(faults.KindTransport, "ledger.claimBounty").WithCause(errors.New("connection reset"))),
		f.ledger.EXPECT().ClaimBounty(gomock.Any(), gomock.Any(), bigEq(7), testSolution).
			Return(&ledger.Receipt{TxHash: claimTx}, nil),
	)

	err := f.orch.Submit(t.Context(), f.request(7), nil)
	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	require.True(t, pe.SolutionRecorded)
	require.Contains(t, err.Error(), "claim-only")

	rec := &recorder{}
	require.NoError(t, f.orch.Claim(t.Context(), f.request(7), rec))

	require.Len(t, rec.steps, 2)
	require.Equal(t, StepBountyClaimed, rec.steps[0].Step)
	require.Equal(t, TerminalNone, rec.steps[0].Terminal)
	require.Equal(t, TerminalCompleted, rec.steps[1].Terminal)
	require.Equal(t, claimTx, rec.steps[1].ClaimTx)
}

func TestClaim_RejectionIsNotMarkedRecorded(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	f.expectChallenge(7)
	f.ledger.EXPECT().ClaimBounty(gomock.Any(), gomock.Any(), bigEq(7), testSolution).
		Return(nil, rejection("ledger.claimBounty", "execution reverted: no accepted solution"))

	err := f.orch.Claim(t.Context(), f.request(7), rec)

	pe, ok := AsPipelineError(err)
	require.True(t, ok)
	require.Equal(t, StepBountyClaimed, pe.Step)
	require.Equal(t, StageClaimBounty, pe.Stage)
	require.False(t, pe.SolutionRecorded)
	require.Equal(t, faults.KindLedgerRejection, faults.KindOf(err))
	require.Equal(t, TerminalFailed, rec.last().Terminal)
}

func TestClaim_NoSigner(t *testing.T) {
	f := newFixture(t)

	req := f.request(7)
	req.Signer = nil
	err := f.orch.Claim(t.Context(), req, nil)

	require.ErrorIs(t, err, ErrNoSigner)
}
