package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/lemma-network/lemma/x/faults"
)

const (
	apiKeyHeader   = "x-api-key"
	maxErrorBody   = 4096
	proveOperation = "prover.requestProof"
)

// HTTPClient implements Client over the proving relay's REST API.
type HTTPClient struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
	metrics    *Metrics
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs a prover client for cfg.BaseURL. A nil httpClient
// gets a default one that honours cfg.RequestTimeout.
func NewHTTPClient(cfg Config, httpClient *http.Client, log zerolog.Logger) (*HTTPClient, error) {
	rawURL := strings.TrimSpace(cfg.BaseURL)
	if rawURL == "" {
		return nil, errors.New("base URL is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid prover base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	logger := log.With().Str("component", "prover-client").Logger()

	client := &HTTPClient{
		baseURL:    parsed,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		log:        logger,
		metrics:    NewMetrics(),
	}

	logger.Info().
		Str("base_url", rawURL).
		Dur("timeout", httpClient.Timeout).
		Bool("api_key", cfg.APIKey != "").
		Msg("HTTP prover client initialized")

	return client, nil
}

// RequestProof performs exactly one POST /prove round trip.
func (c *HTTPClient) RequestProof(
	ctx context.Context,
	sender common.Address,
	theorem, solution string,
) (art Artifact, err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = faults.KindOf(err).String()
		}
		c.metrics.RequestsTotal.WithLabelValues(result).Inc()
		c.metrics.RequestDuration.Observe(time.Since(start).Seconds())
	}()

	endpoint := c.buildURL("prove")

	c.log.Info().
		Str("endpoint", endpoint).
		Str("sender", sender.Hex()).
		Int("theorem_len", len(theorem)).
		Int("solution_len", len(solution)).
		Msg("requesting proof")

	body, err := json.Marshal(proveRequest{
		Sender:   sender.Hex(),
		Theorem:  theorem,
		Solution: solution,
	})
	if err != nil {
		return Artifact{}, faults.New(faults.KindProtocol, proveOperation).
			WithSentinel(ErrMalformedResponse).
			WithMessage("marshal request").
			WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Artifact{}, faults.New(faults.KindTransport, proveOperation).
			WithSentinel(ErrUnavailable).
			WithCause(fmt.Errorf("prepare request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		kind := faults.KindTransport
		if ctx.Err() != nil {
			kind = faults.KindCanceled
		}
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("proof request failed")
		return Artifact{}, faults.New(kind, proveOperation).WithSentinel(ErrUnavailable).WithCause(err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		c.log.Error().
			Int("status_code", res.StatusCode).
			Str("status", res.Status).
			Str("response", string(msg)).
			Msg("prover returned error response")
		return Artifact{}, faults.New(faults.KindProtocol, proveOperation).
			WithSentinel(ErrRejected).
			WithMessage("prover returned %s: %s", res.Status, strings.TrimSpace(string(msg))).
			WithContext("status_code", res.StatusCode)
	}

	var decoded proveResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		c.log.Error().Err(err).Msg("failed to decode prover response")
		return Artifact{}, faults.New(faults.KindProtocol, proveOperation).
			WithSentinel(ErrMalformedResponse).
			WithCause(fmt.Errorf("decode prover response: %w", err))
	}

	art = Artifact{Seal: decoded.seal(), Journal: decoded.journal()}
	switch {
	case len(art.Seal) == 0:
		c.log.Error().Msg("prover response missing seal")
		return Artifact{}, faults.New(faults.KindProtocol, proveOperation).
			WithSentinel(ErrMalformedResponse).
			WithMessage("response missing receipt.inner.Groth16.seal")
	case len(art.Journal) == 0:
		c.log.Error().Msg("prover response missing journal")
		return Artifact{}, faults.New(faults.KindProtocol, proveOperation).
			WithSentinel(ErrMalformedResponse).
			WithMessage("response missing receipt.journal.bytes")
	}

	c.metrics.SealBytes.Observe(float64(len(art.Seal)))
	c.log.Info().
		Int("seal_bytes", len(art.Seal)).
		Int("journal_bytes", len(art.Journal)).
		Dur("elapsed", time.Since(start)).
		Msg("proof received")

	return art, nil
}

func (c *HTTPClient) buildURL(elem ...string) string {
	clone := *c.baseURL
	clone.Path = path.Join(append([]string{c.baseURL.Path}, elem...)...)
	return clone.String()
}
