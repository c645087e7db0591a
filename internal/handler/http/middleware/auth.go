package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/timeclock/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AdminRequired admits requests carrying an unrevoked admin session token.
// It expects jwtauth.Verifier to run first.
func AdminRequired(svc jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				response.Unauthorized(w, "Admin session required, unlock with the admin PIN")
				return
			}

			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != jwt.TokenTypeAdmin {
				response.Forbidden(w, "Token is not an admin session")
				return
			}

			if svc.IsTokenRevoked(jwtauth.TokenFromHeader(r)) {
				response.Unauthorized(w, "Admin session was locked")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
