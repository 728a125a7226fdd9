package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"snapcaption/internal/pkg/jwtutil"
	"snapcaption/internal/transport/http/response"
)

const ContextClientIDKey = "client_id"

// AuthJWT requires a bearer token signed with secret. The token subject becomes the
// client id seen by later middleware.
func AuthJWT(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, issuer, token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			return
		}

		c.Set(ContextClientIDKey, claims.Subject)
		c.Next()
	}
}
