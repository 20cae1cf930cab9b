package http

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apicommon "github.com/lemma-network/lemma/server/api"
	"github.com/lemma-network/lemma/x/ledger"
	"github.com/lemma-network/lemma/x/registry"
)

const maxCreateBody = 1 << 20

// Registry is the challenge registry as seen by the HTTP surface.
type Registry interface {
	Synchronize(ctx context.Context) error
	All() []registry.Entry
	Get(id uint64) (ledger.Challenge, bool)
	SyncedAt() time.Time
}

// Creator publishes new challenges on the ledger.
type Creator interface {
	CreateChallenge(
		ctx context.Context,
		signer ledger.Signer,
		name, theorem string,
		expiration, bounty *big.Int,
	) (*ledger.Receipt, error)
}

type Handler struct {
	registry Registry
	creator  Creator
	signer   ledger.Signer
	now      func() time.Time
	log      zerolog.Logger
}

// NewHandler builds the challenges handler. A nil signer disables creation.
func NewHandler(reg Registry, creator Creator, signer ledger.Signer, log zerolog.Logger) *Handler {
	return &Handler{
		registry: reg,
		creator:  creator,
		signer:   signer,
		now:      time.Now,
		log:      log.With().Str("component", "challenges-http").Logger(),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.All()
	resp := map[string]any{
		"count":      len(entries),
		"challenges": viewsFromEntries(entries),
	}
	if at := h.registry.SyncedAt(); !at.IsZero() {
		resp["synced_at"] = at.UTC().Format(time.RFC3339)
	}
	apicommon.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_id", "challenge id must be an unsigned integer", nil)
		return
	}
	ch, ok := h.registry.Get(id)
	if !ok {
		apicommon.WriteError(w, r, http.StatusNotFound, "challenge_not_found", "challenge is not in the registry", map[string]any{
			"id": id,
		})
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, newChallengeView(id, ch))
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Synchronize(r.Context()); err != nil {
		status, _ := apicommon.StatusForError(err)
		if status < http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		apicommon.WriteError(w, r, status, "sync_failed", err.Error(), nil)
		return
	}
	h.handleList(w, r)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if h.signer == nil || h.creator == nil {
		apicommon.WriteError(w, r, http.StatusServiceUnavailable, "signer_unavailable", "no signer configured", nil)
		return
	}

	var req createReq
	if err := apicommon.DecodeJSON(r, &req, maxCreateBody); err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode request", nil)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || strings.TrimSpace(req.Theorem) == "" {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_challenge", "name and theorem are required", nil)
		return
	}
	bounty, ok := new(big.Int).SetString(strings.TrimSpace(req.BountyWei), 10)
	if !ok || bounty.Sign() <= 0 {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_bounty", "bounty_wei must be a positive integer", nil)
		return
	}
	expiration, err := h.expiration(req)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_expiration", err.Error(), nil)
		return
	}

	rcpt, err := h.creator.CreateChallenge(r.Context(), h.signer, name, req.Theorem, expiration, bounty)
	if err != nil {
		status, code := apicommon.StatusForError(err)
		h.log.Warn().Err(err).Str("name", name).Msg("challenge creation failed")
		apicommon.WriteError(w, r, status, code, err.Error(), nil)
		return
	}

	h.log.Info().
		Str("name", name).
		Str("bounty_wei", bounty.String()).
		Str("tx_hash", rcpt.TxHash.Hex()).
		Msg("challenge created")

	apicommon.WriteJSON(w, http.StatusCreated, map[string]any{
		"tx_hash":      rcpt.TxHash.Hex(),
		"block_number": rcpt.BlockNumber,
		"expiration":   expiration.String(),
	})
}

func (h *Handler) expiration(req createReq) (*big.Int, error) {
	switch {
	case req.Expiration != 0 && req.ExpiresIn != "":
		return nil, errors.New("set either expiration or expires_in, not both")
	case req.Expiration != 0:
		if int64(req.Expiration) <= h.now().Unix() {
			return nil, errors.New("expiration must be in the future")
		}
		return new(big.Int).SetUint64(req.Expiration), nil
	case req.ExpiresIn != "":
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil || d <= 0 {
			return nil, errors.New("expires_in must be a positive duration")
		}
		return big.NewInt(h.now().Add(d).Unix()), nil
	default:
		return nil, errors.New("expiration or expires_in is required")
	}
}
