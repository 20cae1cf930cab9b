package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lemma-network/lemma/x/faults"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{faults.New(faults.KindTransport, "op"), http.StatusBadGateway, "upstream_unavailable"},
		{faults.New(faults.KindProtocol, "op"), http.StatusBadGateway, "upstream_protocol_error"},
		{faults.New(faults.KindValidation, "op"), http.StatusUnprocessableEntity, "validation_failed"},
		{faults.New(faults.KindLedgerRejection, "op"), http.StatusConflict, "ledger_rejected"},
		{faults.New(faults.KindPrecondition, "op"), http.StatusPreconditionFailed, "precondition_failed"},
		{fmt.Errorf("wrapped: %w", context.Canceled), http.StatusGatewayTimeout, "canceled"},
		{errors.New("plain"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, code := StatusForError(tc.err)
		require.Equal(t, tc.status, status, tc.err.Error())
		require.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestDecodeJSON_RejectsUnknownAndOversized(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	require.NoError(t, DecodeJSON(r, &v, 64))
	require.Equal(t, "a", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","x":1}`))
	require.Error(t, DecodeJSON(r, &v, 64))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 100)+`"}`))
	require.Error(t, DecodeJSON(r, &v, 16))
}

func TestServer_MiddlewareChain(t *testing.T) {
	s := NewServer(DefaultConfig(), zerolog.Nop())
	s.Router.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusConflict, "ledger_rejected", "reverted", nil)
	}).Methods(http.MethodGet)
	s.Router.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set("X-Request-ID", "req-1")
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ledger_rejected", body.Error.Code)
	require.Equal(t, "req-1", body.Error.RequestID)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Contains(t, rec.Body.String(), "internal_error")
}

func TestServer_CORS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CORSOrigins = []string{"https://lemma.example"}
	s := NewServer(cfg, zerolog.Nop())
	s.Router.HandleFunc("/v1/challenges", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]int{"count": 0})
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/challenges", nil)
	req.Header.Set("Origin", "https://lemma.example")
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://lemma.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func accessLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		if line["message"] == "http_request" {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestServer_AccessLogCarriesRouteAndErrorCode(t *testing.T) {
	var buf bytes.Buffer
	s := NewServer(DefaultConfig(), zerolog.New(&buf).Level(zerolog.TraceLevel))
	s.Router.HandleFunc("/v1/challenges/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusConflict, "ledger_rejected", "already solved", nil)
	})
	s.Router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/challenges/12", nil)
	req.Header.Set("X-Request-ID", "req-1")
	s.Handler().ServeHTTP(httptest.NewRecorder(), req)
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	lines := accessLines(t, &buf)
	require.Len(t, lines, 3)

	require.Equal(t, "warn", lines[0]["level"])
	require.Equal(t, "/v1/challenges/{id:[0-9]+}", lines[0]["route"])
	require.Equal(t, "/v1/challenges/12", lines[0]["path"])
	require.Equal(t, "ledger_rejected", lines[0]["error_code"])
	require.Equal(t, "req-1", lines[0]["request_id"])
	require.EqualValues(t, http.StatusConflict, lines[0]["status"])

	require.Equal(t, "trace", lines[1]["level"])
	require.Equal(t, "/health", lines[1]["route"])
	require.NotContains(t, lines[1], "error_code")

	require.Equal(t, "unknown", lines[2]["route"])
	require.EqualValues(t, http.StatusNotFound, lines[2]["status"])
}
