package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lemma-network/lemma/lemma-app/config"
	"github.com/lemma-network/lemma/x/ledger"
	"github.com/lemma-network/lemma/x/prover"
	"github.com/lemma-network/lemma/x/registry"
	"github.com/lemma-network/lemma/x/submission"
)

// services are the pipeline components shared by the server and the
// one-shot commands.
type services struct {
	ledger       *ledger.Client
	signer       ledger.Signer
	prover       *prover.HTTPClient
	registry     *registry.Registry
	orchestrator *submission.Orchestrator
}

func newServices(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*services, error) {
	lc, err := ledger.Dial(ctx, cfg.Ledger, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect ledger: %w", err)
	}

	s := &services{ledger: lc}

	if pk := strings.TrimSpace(cfg.Ledger.SignerPkHex); pk != "" {
		signer, err := ledger.NewLocalSignerFromHex(pk)
		if err != nil {
			lc.Close()
			return nil, fmt.Errorf("failed to load ledger signer: %w", err)
		}
		s.signer = signer
		log.Info().Str("address", signer.Address().Hex()).Msg("Ledger signer loaded")
	} else {
		log.Warn().Msg("No ledger signer configured, writes are disabled")
	}

	pc, err := prover.NewHTTPClient(cfg.Prover, nil, log)
	if err != nil {
		lc.Close()
		return nil, fmt.Errorf("failed to create prover client: %w", err)
	}
	s.prover = pc

	s.registry = registry.New(cfg.Registry, lc, log)
	s.orchestrator = submission.NewOrchestrator(pc, lc, s.registry, log)

	log.Info().
		Str("contract", lc.ContractAddress().Hex()).
		Str("rpc_endpoint", cfg.Ledger.RPCEndpoint).
		Str("prover", cfg.Prover.BaseURL).
		Msg("Services initialized")

	return s, nil
}

func (s *services) requireSigner() (ledger.Signer, error) {
	if s.signer == nil {
		return nil, fmt.Errorf("ledger.signer_pk_hex (or LEDGER_SIGNER_PK_HEX) is required for this command")
	}
	return s.signer, nil
}

func (s *services) close() {
	s.ledger.Close()
}
