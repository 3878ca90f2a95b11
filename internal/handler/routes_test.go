package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/service"
)

const routesTestSecret = "routes-test-secret"

func routesTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := service.NewAuthService(nil, nil, nil, service.AuthConfig{AccessTokenSecret: routesTestSecret}, nil)
	r := gin.New()
	RegisterRoutes(r, "/api/v1", Handlers{}, auth)
	return r
}

func routesTestToken(t *testing.T, role models.UserRole, verified bool) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID:   "u1",
		Role:     role,
		Verified: verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routesTestSecret))
	require.NoError(t, err)
	return signed
}

func TestEventApprovalRoutesRequireVerifiedAdmin(t *testing.T) {
	r := routesTestRouter()
	token := routesTestToken(t, models.RoleAdmin, false)

	for _, path := range []string{"/api/v1/events/e1/approve", "/api/v1/events/e1/reject"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPut, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusForbidden, w.Code, path)
	}
}

func TestModerationRoutesMountedAsPut(t *testing.T) {
	r := routesTestRouter()
	token := routesTestToken(t, models.RoleStudent, true)

	for _, path := range []string{
		"/api/v1/discussions/d1/moderate",
		"/api/v1/events/e1/approve",
		"/api/v1/events/e1/reject",
	} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusNotFound, w.Code, path)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest(http.MethodPut, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusForbidden, w.Code, path)
	}
}
