package auth

import (
	"net/http"
	"strings"

	domainauth "github.com/NordCoder/Libra/internal/domain/auth"
	"github.com/NordCoder/Libra/internal/services/api-server/httpx"
	"github.com/gin-gonic/gin"
)

const identityKey = "auth.identity"

// Middleware requires a bearer token: none gives 401, a bad or expired one gives 403.
func Middleware(tokens domainauth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			httpx.AbortWithError(c, http.StatusUnauthorized, "Access token required. Please log in.", nil)
			return
		}
		id, err := tokens.Parse(raw)
		if err != nil {
			httpx.AbortWithError(c, http.StatusForbidden, "Invalid or expired token. Please log in again.", err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the caller set by Middleware, if any.
func IdentityFrom(c *gin.Context) (*domainauth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*domainauth.Identity)
	return id, ok
}
