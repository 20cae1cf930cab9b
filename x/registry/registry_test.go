package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lemma-network/lemma/x/faults"
	"github.com/lemma-network/lemma/x/ledger"
)

type stubReader struct {
	mu         sync.Mutex
	challenges []ledger.Challenge
	countErr   error
	failAt     int
	failErr    error
	cleared    map[int64]bool
	delay      time.Duration

	reads    []int64
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newStubReader(n int) *stubReader {
	s := &stubReader{failAt: -1}
	for i := 0; i < n; i++ {
		s.challenges = append(s.challenges, testChallenge(i, fmt.Sprintf("challenge-%d", i)))
	}
	return s
}

func testChallenge(i int, name string) ledger.Challenge {
	return ledger.Challenge{
		ID:         big.NewInt(int64(i)),
		Creator:    common.BigToAddress(big.NewInt(int64(i + 1))),
		Name:       name,
		Theorem:    "theorem " + name,
		Bounty:     big.NewInt(int64(1000 * (i + 1))),
		Expiration: big.NewInt(1_800_000_000),
	}
}

func (s *stubReader) ChallengeCount(ctx context.Context) (*big.Int, error) {
	if s.countErr != nil {
		return nil, s.countErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return big.NewInt(int64(len(s.challenges))), nil
}

func (s *stubReader) Challenge(ctx context.Context, id *big.Int) (ledger.Challenge, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxSeen.Load()
		if cur <= prev || s.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, id.Int64())
	if int(id.Int64()) == s.failAt {
		return ledger.Challenge{}, s.failErr
	}
	if s.cleared[id.Int64()] {
		return ledger.Challenge{}, faults.New(faults.KindLedgerRejection, "ledger.challenges").
			WithSentinel(ledger.ErrChallengeNotFound)
	}
	return s.challenges[id.Int64()].Clone(), nil
}

func newTestRegistry(reader Reader, concurrency int) *Registry {
	cfg := DefaultConfig()
	cfg.SyncConcurrency = concurrency
	return New(cfg, reader, zerolog.Nop())
}

func TestSynchronize_ContiguousKeys(t *testing.T) {
	reader := newStubReader(5)
	reg := newTestRegistry(reader, 1)

	require.False(t, reg.Ready())
	require.NoError(t, reg.Synchronize(t.Context()))
	require.True(t, reg.Ready())

	all := reg.All()
	require.Len(t, all, 5)
	for i, e := range all {
		require.Equal(t, uint64(i), e.ID)
		require.Equal(t, reader.challenges[i].Name, e.Challenge.Name)
		require.Equal(t, 0, reader.challenges[i].Bounty.Cmp(e.Challenge.Bounty))
	}
	require.Equal(t, []int64{0, 1, 2, 3, 4}, reader.reads)
}

func TestSynchronize_EmptyLedger(t *testing.T) {
	reg := newTestRegistry(newStubReader(0), 1)

	require.NoError(t, reg.Synchronize(t.Context()))
	require.Empty(t, reg.All())
	require.True(t, reg.Ready())
}

func TestSynchronize_FailureKeepsPreviousSnapshot(t *testing.T) {
	reader := newStubReader(3)
	reg := newTestRegistry(reader, 1)
	require.NoError(t, reg.Synchronize(t.Context()))
	before := reg.All()
	syncedAt := reg.SyncedAt()

	reader.mu.Lock()
	reader.challenges = append(reader.challenges, testChallenge(3, "late"), testChallenge(4, "later"))
	reader.failAt = 3
	reader.failErr = faults.New(faults.KindTransport, "ledger.challenges").
		WithSentinel(ledger.ErrLedgerCall).
		WithCause(errors.New("connection reset"))
	reader.reads = nil
	reader.mu.Unlock()

	err := reg.Synchronize(t.Context())
	require.ErrorIs(t, err, ErrSync)
	require.ErrorIs(t, err, ledger.ErrLedgerCall)
	require.Equal(t, faults.KindTransport, faults.KindOf(err))
	require.Equal(t, before, reg.All())
	require.Equal(t, syncedAt, reg.SyncedAt())
	require.Equal(t, []int64{0, 1, 2, 3}, reader.reads, "sequential sync stops at the failing read")
}

func TestSynchronize_NoReadAfterFailure(t *testing.T) {
	reader := newStubReader(4)
	reader.failAt = 0
	reader.failErr = faults.New(faults.KindTransport, "ledger.challenges").WithCause(errors.New("EOF"))
	reg := newTestRegistry(reader, 1)

	for i := 0; i < 10; i++ {
		reader.mu.Lock()
		reader.reads = nil
		reader.mu.Unlock()

		err := reg.Synchronize(t.Context())
		require.ErrorIs(t, err, ErrSync)
		require.Equal(t, faults.KindTransport, faults.KindOf(err))
		require.Equal(t, []int64{0}, reader.reads)
	}
	require.False(t, reg.Ready())
}

func TestSynchronize_KeepsClearedRecords(t *testing.T) {
	reader := newStubReader(3)
	reader.cleared = map[int64]bool{1: true}
	reg := newTestRegistry(reader, 1)

	require.NoError(t, reg.Synchronize(t.Context()))

	all := reg.All()
	require.Len(t, all, 3)
	require.Equal(t, uint64(1), all[1].ID)
	require.True(t, all[1].Challenge.Empty())
	require.Equal(t, int64(1), all[1].Challenge.ID.Int64())
	require.Equal(t, "challenge-2", all[2].Challenge.Name)

	ch, ok := reg.Get(1)
	require.True(t, ok)
	require.True(t, ch.Empty())
}

func TestSynchronize_CountFailure(t *testing.T) {
	reader := newStubReader(2)
	reg := newTestRegistry(reader, 1)
	require.NoError(t, reg.Synchronize(t.Context()))

	reader.countErr = errors.New("dial tcp: connection refused")
	err := reg.Synchronize(t.Context())
	require.ErrorIs(t, err, ErrSync)
	require.Len(t, reg.All(), 2)
}

func TestSynchronize_ReplacesWholesale(t *testing.T) {
	reader := newStubReader(2)
	reg := newTestRegistry(reader, 1)
	require.NoError(t, reg.Synchronize(t.Context()))

	reader.mu.Lock()
	reader.challenges = []ledger.Challenge{testChallenge(0, "renamed")}
	reader.mu.Unlock()

	require.NoError(t, reg.Synchronize(t.Context()))
	all := reg.All()
	require.Len(t, all, 1)
	require.Equal(t, "renamed", all[0].Challenge.Name)
	_, ok := reg.Get(1)
	require.False(t, ok)
}

func TestSynchronize_ConcurrentFanOut(t *testing.T) {
	reader := newStubReader(12)
	reader.delay = 5 * time.Millisecond
	reg := newTestRegistry(reader, 4)

	require.NoError(t, reg.Synchronize(t.Context()))
	all := reg.All()
	require.Len(t, all, 12)
	for i, e := range all {
		require.Equal(t, uint64(i), e.ID)
		require.Equal(t, fmt.Sprintf("challenge-%d", i), e.Challenge.Name)
	}
	require.LessOrEqual(t, reader.maxSeen.Load(), int32(4))
}

func TestSynchronize_ConcurrentFailureIsAllOrNothing(t *testing.T) {
	reader := newStubReader(8)
	reader.failAt = 5
	reader.failErr = errors.New("execution reverted")
	reg := newTestRegistry(reader, 3)

	err := reg.Synchronize(t.Context())
	require.ErrorIs(t, err, ErrSync)
	require.Empty(t, reg.All())
	require.False(t, reg.Ready())
}

func TestSynchronize_Canceled(t *testing.T) {
	reg := newTestRegistry(newStubReader(3), 1)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := reg.Synchronize(ctx)
	require.ErrorIs(t, err, ErrSync)
	require.Equal(t, faults.KindCanceled, faults.KindOf(err))
	require.False(t, reg.Ready())
}

func TestGet(t *testing.T) {
	reg := newTestRegistry(newStubReader(2), 1)
	_, ok := reg.Get(0)
	require.False(t, ok)

	require.NoError(t, reg.Synchronize(t.Context()))
	ch, ok := reg.Get(1)
	require.True(t, ok)
	require.Equal(t, "challenge-1", ch.Name)

	ch.Bounty.SetInt64(0)
	again, _ := reg.Get(1)
	require.Equal(t, int64(2000), again.Bounty.Int64())

	_, ok = reg.Get(2)
	require.False(t, ok)
}

func TestSynchronize_RejectsOversizedCount(t *testing.T) {
	reader := newStubReader(3)
	cfg := DefaultConfig()
	cfg.MaxChallenges = 2
	reg := New(cfg, reader, zerolog.Nop())

	err := reg.Synchronize(t.Context())
	require.ErrorIs(t, err, ErrSync)
	require.Equal(t, faults.KindProtocol, faults.KindOf(err))
	require.Empty(t, reader.reads)
}
