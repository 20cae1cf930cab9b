package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lemma-network/lemma/server/api/middleware"
	"github.com/lemma-network/lemma/x/faults"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failed request.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
	Details   any    `json:"details,omitempty"`
}

// WriteError writes a standardized error response with request tracking.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := middleware.RequestIDFrom(r.Context())
	middleware.SetErrorCode(r.Context(), code)

	WriteJSON(w, status, ErrorBody{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Details:   details,
	}})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a bounded request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, limit))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// StatusForError maps a tagged failure to an HTTP status and error code.
func StatusForError(err error) (int, string) {
	switch faults.KindOf(err) {
	case faults.KindTransport:
		return http.StatusBadGateway, "upstream_unavailable"
	case faults.KindProtocol:
		return http.StatusBadGateway, "upstream_protocol_error"
	case faults.KindValidation:
		return http.StatusUnprocessableEntity, "validation_failed"
	case faults.KindLedgerRejection:
		return http.StatusConflict, "ledger_rejected"
	case faults.KindPrecondition:
		return http.StatusPreconditionFailed, "precondition_failed"
	case faults.KindCanceled:
		return http.StatusGatewayTimeout, "canceled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
