// Package http exposes proof submissions over HTTP. Submissions are accepted
// immediately and run in the background; their progress is polled through
// the submission tracker.
package http

import (
	"context"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apicommon "github.com/lemma-network/lemma/server/api"
	"github.com/lemma-network/lemma/x/faults"
	"github.com/lemma-network/lemma/x/ledger"
	"github.com/lemma-network/lemma/x/submission"
)

const maxSubmitBody = 4 << 20

// Submitter runs the full submission pipeline or, for a solution already
// recorded on the ledger, the bounty claim alone.
type Submitter interface {
	Submit(ctx context.Context, req submission.Request, obs submission.Observer) error
	Claim(ctx context.Context, req submission.Request, obs submission.Observer) error
}

// Challenges reports whether a challenge is known locally.
type Challenges interface {
	Get(id uint64) (ledger.Challenge, bool)
}

type submitReq struct {
	Solution string `json:"solution"`
}

type Handler struct {
	base       context.Context
	submitter  Submitter
	tracker    *submission.Tracker
	challenges Challenges
	signer     ledger.Signer
	log        zerolog.Logger

	// mu orders wg.Add against Wait.
	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewHandler builds the submissions handler. Background runs are bound to
// base, so canceling it aborts every in-flight submission. A nil signer
// disables submitting.
func NewHandler(
	base context.Context,
	submitter Submitter,
	tracker *submission.Tracker,
	challenges Challenges,
	signer ledger.Signer,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		base:       base,
		submitter:  submitter,
		tracker:    tracker,
		challenges: challenges,
		signer:     signer,
		log:        log.With().Str("component", "submissions-http").Logger(),
	}
}

// Wait stops accepting new submissions and blocks until all background
// runs have returned.
func (h *Handler) Wait() {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()
	h.wg.Wait()
}

// runFunc is one of Submitter's entry points.
type runFunc func(ctx context.Context, req submission.Request, obs submission.Observer) error

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, "submit", h.submitter.Submit)
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, "claim", h.submitter.Claim)
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request, kind string, fn runFunc) {
	defer r.Body.Close()

	if h.signer == nil {
		apicommon.WriteError(w, r, http.StatusServiceUnavailable, "signer_unavailable", "no signer configured", nil)
		return
	}

	rawID := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_id", "challenge id must be an unsigned integer", nil)
		return
	}

	var req submitReq
	if err := apicommon.DecodeJSON(r, &req, maxSubmitBody); err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode request", nil)
		return
	}
	if strings.TrimSpace(req.Solution) == "" {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_solution", "solution is required", nil)
		return
	}

	if _, ok := h.challenges.Get(id); !ok {
		apicommon.WriteError(w, r, http.StatusNotFound, "challenge_not_found", "challenge is not in the registry", map[string]any{
			"id": id,
		})
		return
	}

	h.mu.Lock()
	if h.closing || h.base.Err() != nil {
		h.mu.Unlock()
		apicommon.WriteError(w, r, http.StatusServiceUnavailable, "shutting_down", "service is shutting down", nil)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()

	subID, obs := h.tracker.Track(rawID)
	sreq := submission.Request{
		ChallengeID: new(big.Int).SetUint64(id),
		Solution:    req.Solution,
		Signer:      h.signer,
	}
	go h.run(subID, kind, fn, sreq, obs)

	h.log.Info().
		Str("submission_id", subID.String()).
		Str("kind", kind).
		Uint64("challenge_id", id).
		Msg("submission accepted")

	apicommon.WriteJSON(w, http.StatusAccepted, map[string]any{
		"submission_id": subID.String(),
		"status_url":    "/v1/submissions/" + subID.String(),
	})
}

func (h *Handler) run(id uuid.UUID, kind string, fn runFunc, req submission.Request, obs submission.Observer) {
	defer h.wg.Done()

	log := h.log.With().Str("submission_id", id.String()).Str("kind", kind).Logger()
	err := fn(h.base, req, obs)
	if err == nil {
		log.Info().Msg("submission completed")
		return
	}

	ev := log.Warn().Err(err).Str("kind", faults.KindOf(err).String())
	if pe, ok := submission.AsPipelineError(err); ok {
		ev = ev.Str("stage", string(pe.Stage)).Bool("solution_recorded", pe.SolutionRecorded)
	}
	ev.Msg("submission failed")
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["submissionID"])
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_id", "submission id must be a UUID", nil)
		return
	}
	snap, ok := h.tracker.Get(id)
	if !ok {
		apicommon.WriteError(w, r, http.StatusNotFound, "submission_not_found", "submission is unknown or expired", nil)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list := h.tracker.List()
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{
		"count":       len(list),
		"submissions": list,
	})
}
