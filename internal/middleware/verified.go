package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink-api/internal/models"
	appErrors "github.com/campuslink/campuslink-api/pkg/errors"
	"github.com/campuslink/campuslink-api/pkg/response"
)

// VerifiedOnly blocks users whose email address is not verified. Google-origin
// accounts always pass; the claim is computed at token issue time.
func VerifiedOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if !claims.Verified {
			response.Error(c, appErrors.Clone(appErrors.ErrUnverifiedEmail, "verify your email address to perform this action"))
			c.Abort()
			return
		}

		c.Next()
	}
}
