package controllers

import (
	"net/http"

	"github.com/handyhub/handyhub-backend/api/middleware"
	"github.com/handyhub/handyhub-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
			payload["user_id"] = userID
		}
		if audience := middleware.AudienceFromContext(r.Context()); audience != "" {
			payload["audience"] = audience
		}
		responses.WriteSuccess(w, payload)
	}
}
