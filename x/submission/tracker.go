package submission

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lemma-network/lemma/x/faults"
)

// Snapshot is the display view of one tracked submission.
type Snapshot struct {
	ID               uuid.UUID `json:"id"`
	ChallengeID      string    `json:"challenge_id"`
	Step             Step      `json:"step"`
	Terminal         Terminal  `json:"terminal"`
	SolutionRecorded bool      `json:"solution_recorded"`
	SubmitTx         string    `json:"submit_tx,omitempty"`
	ClaimTx          string    `json:"claim_tx,omitempty"`
	Error            string    `json:"error,omitempty"`
	ErrorKind        string    `json:"error_kind,omitempty"`
	FailedStage      Stage     `json:"failed_stage,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Tracker keeps the latest progress of background submissions for display.
// It only records what observers hand it and never feeds back into a run.
type Tracker struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]Snapshot
	retention time.Duration
	log       zerolog.Logger
}

// NewTracker returns an empty tracker. Finished entries older than retention
// are dropped by Run; zero keeps them forever.
func NewTracker(retention time.Duration, log zerolog.Logger) *Tracker {
	return &Tracker{
		byID:      make(map[uuid.UUID]Snapshot),
		retention: retention,
		log:       log.With().Str("component", "submission-tracker").Logger(),
	}
}

// Track registers a new submission and returns its id and the observer that
// keeps its snapshot current.
func (t *Tracker) Track(challengeID string) (uuid.UUID, Observer) {
	id := uuid.New()
	now := time.Now()

	t.mu.Lock()
	t.byID[id] = Snapshot{
		ID:          id,
		ChallengeID: challengeID,
		Step:        StepNotStarted,
		Terminal:    TerminalNone,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	t.mu.Unlock()

	t.log.Debug().Str("submission_id", id.String()).Str("challenge_id", challengeID).Msg("submission tracked")

	return id, ObserverFunc(func(p Progress) { t.update(id, p) })
}

func (t *Tracker) update(id uuid.UUID, p Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.byID[id]
	if !ok {
		return
	}
	s.Step = p.Step
	s.Terminal = p.Terminal
	s.SolutionRecorded = p.SolutionRecorded
	s.UpdatedAt = time.Now()
	if p.SubmitTx != (common.Hash{}) {
		s.SubmitTx = p.SubmitTx.Hex()
	}
	if p.ClaimTx != (common.Hash{}) {
		s.ClaimTx = p.ClaimTx.Hex()
	}
	if p.Err != nil {
		s.Error = p.Err.Error()
		s.ErrorKind = faults.KindOf(p.Err).String()
		var pe *PipelineError
		if errors.As(p.Err, &pe) {
			s.FailedStage = pe.Stage
		}
	}
	t.byID[id] = s
}

// Get returns the snapshot for id.
func (t *Tracker) Get(id uuid.UUID) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.byID[id]
	return s, ok
}

// List returns all tracked submissions, oldest first.
func (t *Tracker) List() []Snapshot {
	t.mu.RLock()
	out := make([]Snapshot, 0, len(t.byID))
	for _, s := range t.byID {
		out = append(out, s)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Prune drops finished submissions last updated before cutoff and returns
// how many were removed.
func (t *Tracker) Prune(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, s := range t.byID {
		if s.Terminal != TerminalNone && s.UpdatedAt.Before(cutoff) {
			delete(t.byID, id)
			removed++
		}
	}
	return removed
}

// GetStats returns tracker statistics
func (t *Tracker) GetStats() map[string]interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byTerminal := make(map[string]int)
	byStep := make(map[string]int)
	for _, s := range t.byID {
		byTerminal[s.Terminal.String()]++
		byStep[s.Step.String()]++
	}
	return map[string]interface{}{
		"total_submissions": len(t.byID),
		"by_terminal":       byTerminal,
		"by_step":           byStep,
	}
}

// Run periodically prunes expired entries and logs statistics until ctx is done.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			if t.retention > 0 {
				removed = t.Prune(time.Now().Add(-t.retention))
			}
			stats := t.GetStats()
			t.log.Info().
				Int("total_submissions", stats["total_submissions"].(int)).
				Interface("by_terminal", stats["by_terminal"]).
				Int("pruned", removed).
				Msg("submission tracker stats")
		}
	}
}
