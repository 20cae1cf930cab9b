package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterMux wires the submission routes onto r.
func (h *Handler) RegisterMux(r *mux.Router) {
	r.HandleFunc(routeSubmit, h.handleSubmit).Methods(http.MethodPost).Name(routeNameSubmit)
	r.HandleFunc(routeClaim, h.handleClaim).Methods(http.MethodPost).Name(routeNameClaim)
	r.HandleFunc(routeSubmissions, h.handleList).Methods(http.MethodGet).Name(routeNameList)
	r.HandleFunc(routeSubmissionByID, h.handleGet).Methods(http.MethodGet).Name(routeNameByID)
}
