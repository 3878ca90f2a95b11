package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink-api/internal/models"
)

func verifiedTestRouter(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
	})
	r.POST("/protected", VerifiedOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestVerifiedOnlyBlocksUnverified(t *testing.T) {
	r := verifiedTestRouter(&models.JWTClaims{UserID: "u1", Role: models.RoleStudent, Verified: false})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/protected", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerifiedOnlyAllowsVerified(t *testing.T) {
	r := verifiedTestRouter(&models.JWTClaims{UserID: "u1", Role: models.RoleStudent, Verified: true})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/protected", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestVerifiedOnlyRequiresClaims(t *testing.T) {
	r := verifiedTestRouter(nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/protected", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
