package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterMux binds gorilla/mux routes.
func (h *Handler) RegisterMux(r *mux.Router) {
	r.HandleFunc(routeChallenges, h.handleList).Methods(http.MethodGet).Name(routeNameList)
	r.HandleFunc(routeSync, h.handleSync).Methods(http.MethodPost).Name(routeNameSync)
	r.HandleFunc(routeChallengeByID, h.handleGet).Methods(http.MethodGet).Name(routeNameByID)
	r.HandleFunc(routeChallenges, h.handleCreate).Methods(http.MethodPost).Name(routeNameCreate)
}
