package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"reviewcms/auth"
	"reviewcms/database"
	"reviewcms/models"
	"reviewcms/response"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context keys set by the auth middleware.
const (
	CtxUserID    = "userId"
	CtxClaims    = "claims"
	CtxPrincipal = "principal"
)

// TokenGate requires a valid bearer token and attaches its claims.
// A missing or malformed header is a 400, a token that fails validation a 403.
func TokenGate(validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip CORS preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || scheme != "Bearer" || strings.TrimSpace(token) == "" {
			response.Abort(c, http.StatusBadRequest, "Authentication failed: No token provided")
			return
		}

		claims, err := validator.Validate(strings.TrimSpace(token))
		if err != nil {
			log.Printf("[TokenGate] %s %s: %v", c.Request.Method, c.FullPath(), err)
			response.Abort(c, http.StatusForbidden, "Authentication failed: Invalid or expired token")
			return
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// RequireRole must run after TokenGate. It loads the caller and checks the role.
func RequireRole(users database.Repository[models.User], role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			response.Abort(c, http.StatusForbidden, "Access denied. Admins only.")
			return
		}

		user, err := users.Get(c.Request.Context(), id)
		if errors.Is(err, database.ErrNotFound) {
			response.Abort(c, http.StatusForbidden, "Access denied. Admins only.")
			return
		}
		if err != nil {
			log.Printf("[RequireRole] lookup %s: %v", id.Hex(), err)
			response.Abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if user.Role != role {
			response.Abort(c, http.StatusForbidden, "Access denied. Admins only.")
			return
		}

		c.Set(CtxPrincipal, auth.PrincipalOf(user))
		c.Next()
	}
}

// UserID returns the authenticated caller's id set by TokenGate.
func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	hex := c.GetString(CtxUserID)
	if hex == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// Principal returns the caller loaded by RequireRole.
func Principal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}
