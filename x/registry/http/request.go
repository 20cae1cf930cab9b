package http

import (
	"math/big"

	"github.com/lemma-network/lemma/x/ledger"
	"github.com/lemma-network/lemma/x/registry"
)

// createReq is the JSON schema for POST routeChallenges. Exactly one of
// Expiration (unix seconds) and ExpiresIn (Go duration) must be set.
type createReq struct {
	Name       string `json:"name"`
	Theorem    string `json:"theorem"`
	BountyWei  string `json:"bounty_wei"`
	Expiration uint64 `json:"expiration,omitempty"`
	ExpiresIn  string `json:"expires_in,omitempty"`
}

type challengeView struct {
	ID         uint64 `json:"id"`
	Creator    string `json:"creator"`
	Name       string `json:"name"`
	Theorem    string `json:"theorem"`
	BountyWei  string `json:"bounty_wei"`
	Expiration string `json:"expiration"`
}

func newChallengeView(id uint64, ch ledger.Challenge) challengeView {
	return challengeView{
		ID:         id,
		Creator:    ch.Creator.Hex(),
		Name:       ch.Name,
		Theorem:    ch.Theorem,
		BountyWei:  bigString(ch.Bounty),
		Expiration: bigString(ch.Expiration),
	}
}

func viewsFromEntries(entries []registry.Entry) []challengeView {
	out := make([]challengeView, len(entries))
	for i, e := range entries {
		out[i] = newChallengeView(e.ID, e.Challenge)
	}
	return out
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
