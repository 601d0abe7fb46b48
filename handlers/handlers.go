// Package handlers exposes the claim pipeline over HTTP with gin.
package handlers

import (
	"autoclaim/claims"
	"autoclaim/database"
)

type Handler struct {
	claims   *claims.Service
	store    database.Store
	provider string
}

// New wires the handlers. provider names the configured reasoning backend
// for the health endpoint.
func New(svc *claims.Service, store database.Store, provider string) *Handler {
	return &Handler{claims: svc, store: store, provider: provider}
}
