package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/smart-task-api/internal/auth"
	"github.com/yukikurage/smart-task-api/internal/constants"
	apierrors "github.com/yukikurage/smart-task-api/internal/errors"
)

// RequireAuth checks the bearer credential with the identity provider
func RequireAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, err := auth.BearerToken(c.Request)
		if err != nil {
			apierrors.MissingCredential(c)
			c.Abort()
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), credential)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired credential")
			c.Abort()
			return
		}

		// Store identity in context for easy access in handlers
		c.Set(constants.ContextKeyIdentity, identity)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// GetIdentity retrieves the current identity from context
func GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	value, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return nil, false
	}

	identity, ok := value.(*auth.Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
