package middleware

import (
	"net/http"
	"strings"

	"github.com/NourhenHamza/TalentGo-sub001/internal/auth"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/rs/zerolog"
)

const kindUnauthenticated = "unauthenticated"

// Authenticate verifies the bearer token and attaches a per-request
// AuthContext. Role checks go through authorizer, not the token claims, so a
// revoked grant takes effect immediately.
func Authenticate(tokens *auth.TokenManager, authorizer auth.Authorizer, log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, kindUnauthenticated, "missing authorization header")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				writeError(w, http.StatusUnauthorized, kindUnauthenticated, "invalid authorization header")
				return
			}

			claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected bearer token")
				writeError(w, http.StatusUnauthorized, kindUnauthenticated, "invalid or expired token")
				return
			}

			roles := make([]workflow.Role, 0, len(claims.Roles))
			for _, name := range claims.Roles {
				if role, err := workflow.ParseRole(name); err == nil {
					roles = append(roles, role)
				}
			}

			recordActor(r, claims.ActorID)
			ac := auth.NewAuthContext(auth.Actor{ID: claims.ActorID, Roles: roles}, authorizer)
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}
