// Package registry keeps an in-memory, id-ordered view of every challenge on
// the ledger, rebuilt by replaying the ledger's sequential counter.
package registry

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lemma-network/lemma/x/faults"
	"github.com/lemma-network/lemma/x/ledger"
)

// ErrSync is matched by every synchronize failure.
var ErrSync = errors.New("registry sync failed")

// Reader is the read side of the ledger the registry replays.
type Reader interface {
	ChallengeCount(ctx context.Context) (*big.Int, error)
	Challenge(ctx context.Context, id *big.Int) (ledger.Challenge, error)
}

// Entry pairs a challenge with its ledger id.
type Entry struct {
	ID        uint64           `json:"id"        yaml:"id"`
	Challenge ledger.Challenge `json:"challenge" yaml:"challenge"`
}

// snapshot is immutable once published.
type snapshot struct {
	challenges []ledger.Challenge
	syncedAt   time.Time
}

// Registry serves reads from the last fully successful synchronize.
type Registry struct {
	cfg     Config
	reader  Reader
	log     zerolog.Logger
	metrics *Metrics

	// syncMu serializes synchronize calls; readers never take it.
	syncMu  sync.Mutex
	current atomic.Pointer[snapshot]
}

// New creates an empty registry backed by reader.
func New(cfg Config, reader Reader, log zerolog.Logger) *Registry {
	if cfg.SyncConcurrency < 1 {
		cfg.SyncConcurrency = 1
	}
	if cfg.MaxChallenges == 0 {
		cfg.MaxChallenges = DefaultConfig().MaxChallenges
	}
	r := &Registry{
		cfg:     cfg,
		reader:  reader,
		log:     log.With().Str("component", "challenge-registry").Logger(),
		metrics: NewMetrics(),
	}
	r.current.Store(&snapshot{})
	return r
}

// Synchronize reads the challenge count and every challenge in [0, count),
// then replaces the published collection. On any failure the previous
// collection stays in place and the returned error matches ErrSync.
func (r *Registry) Synchronize(ctx context.Context) (err error) {
	const op = "registry.synchronize"

	r.syncMu.Lock()
	defer r.syncMu.Unlock()

	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = faults.KindOf(err).String()
		}
		r.metrics.SyncsTotal.WithLabelValues(result).Inc()
		r.metrics.SyncDuration.Observe(time.Since(start).Seconds())
	}()

	count, err := r.reader.ChallengeCount(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to read challenge count")
		return syncErr(op, err).WithMessage("read challenge count")
	}
	if count == nil || count.Sign() < 0 || !count.IsUint64() || count.Uint64() > r.cfg.MaxChallenges {
		return faults.New(faults.KindProtocol, op).
			WithSentinel(ErrSync).
			WithMessage("challenge count %v out of range (max %d)", count, r.cfg.MaxChallenges)
	}

	n := int(count.Uint64())
	fresh := make([]ledger.Challenge, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.SyncConcurrency)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A slot can free up only after a failed read has canceled gctx.
			if err := gctx.Err(); err != nil {
				return err
			}
			id := big.NewInt(int64(i))
			ch, err := r.reader.Challenge(gctx, id)
			if errors.Is(err, ledger.ErrChallengeNotFound) {
				// In range but cleared on the ledger; keep the slot so ids stay contiguous.
				r.log.Debug().Int("challenge_id", i).Msg("Challenge record is empty")
				fresh[i] = ledger.Challenge{ID: id, Bounty: new(big.Int), Expiration: new(big.Int)}
				return nil
			}
			if err != nil {
				return syncErr(op, err).
					WithMessage("read challenge %d", i).
					WithContext("challenge_id", i)
			}
			fresh[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.log.Error().Err(err).Int("count", n).Msg("Registry synchronization failed, keeping previous snapshot")
		return err
	}
	if err := ctx.Err(); err != nil {
		return syncErr(op, err)
	}

	r.current.Store(&snapshot{challenges: fresh, syncedAt: time.Now()})
	r.metrics.Challenges.Set(float64(n))

	r.log.Info().
		Int("count", n).
		Int("concurrency", r.cfg.SyncConcurrency).
		Dur("elapsed", time.Since(start)).
		Msg("Registry synchronized")
	return nil
}

// All returns every challenge in id order. The result is a copy.
func (r *Registry) All() []Entry {
	snap := r.current.Load()
	out := make([]Entry, len(snap.challenges))
	for i, ch := range snap.challenges {
		out[i] = Entry{ID: uint64(i), Challenge: ch.Clone()}
	}
	return out
}

// Get returns the challenge with the given id, if present.
func (r *Registry) Get(id uint64) (ledger.Challenge, bool) {
	snap := r.current.Load()
	if id >= uint64(len(snap.challenges)) {
		return ledger.Challenge{}, false
	}
	return snap.challenges[id].Clone(), true
}

// Len returns the number of challenges in the published snapshot.
func (r *Registry) Len() int {
	return len(r.current.Load().challenges)
}

// SyncedAt returns when the published snapshot was built; zero before the
// first successful synchronize.
func (r *Registry) SyncedAt() time.Time {
	return r.current.Load().syncedAt
}

// Ready reports whether at least one synchronize has succeeded.
func (r *Registry) Ready() bool {
	return !r.SyncedAt().IsZero()
}

// GetStats returns registry statistics
func (r *Registry) GetStats() map[string]interface{} {
	snap := r.current.Load()
	stats := map[string]interface{}{
		"challenges":       len(snap.challenges),
		"ready":            !snap.syncedAt.IsZero(),
		"sync_concurrency": r.cfg.SyncConcurrency,
	}
	if !snap.syncedAt.IsZero() {
		stats["synced_at"] = snap.syncedAt.UTC().Format(time.RFC3339)
	}
	return stats
}

func syncErr(op string, cause error) *faults.Error {
	kind := faults.KindOf(cause)
	if kind == faults.KindUnknown {
		kind = faults.KindTransport
	}
	return faults.New(kind, op).WithSentinel(ErrSync).WithCause(cause)
}

