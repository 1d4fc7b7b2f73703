package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/garagio/garagio-backend/api/middleware"
	"github.com/garagio/garagio-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

// PrivatePing echoes the resolved actor, useful for gateway smoke tests.
func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if actorID := middleware.ActorIDFromContext(r.Context()); actorID != uuid.Nil {
			payload["actor_id"] = actorID.String()
			payload["actor_role"] = middleware.ActorRoleFromContext(r.Context()).String()
		}
		responses.WriteSuccess(w, payload)
	}
}
