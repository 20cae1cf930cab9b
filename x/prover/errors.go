package prover

import "errors"

var (
	// ErrUnavailable is returned when the proving service cannot be reached.
	ErrUnavailable = errors.New("prover unavailable")
	// ErrRejected is returned when the proving service answers with a non-success status.
	ErrRejected = errors.New("prover rejected request")
	// ErrMalformedResponse is returned when the answer lacks a seal or a journal.
	ErrMalformedResponse = errors.New("prover response malformed")
)
