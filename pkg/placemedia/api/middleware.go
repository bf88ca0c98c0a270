package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

type ctxKey int

const callerKey ctxKey = iota

// Identity verifies the request JWT and resolves the authenticated
// caller's user id from the "sub" claim. Authentication itself (token
// issuance) happens elsewhere; this middleware only extracts identity.
func Identity(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	verifier := jwtauth.Verifier(ja)
	return func(next http.Handler) http.Handler {
		return verifier(requireCaller(next))
	}
}

func requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sub, _ := claims["sub"].(string)
		callerID, err := uuid.Parse(sub)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, callerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerID returns the authenticated caller's user id from the request
// context.
func CallerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(callerKey).(uuid.UUID)
	return id, ok
}
