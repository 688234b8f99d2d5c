package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": 1,
		"email":   "ana@marbleworld.local",
		"role":    role,
		"exp":     time.Now().Add(expiresIn).Unix(),
		"iat":     time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newProtectedRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/", JWTAuth(testSecret))
	if len(roles) > 0 {
		group.Use(RequireRole(roles...))
	}
	group.GET("/ping", func(c *gin.Context) {
		claims := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"role": claims.Role})
	})
	return r
}

func get(r *gin.Engine, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMissingHeader(t *testing.T) {
	r := newProtectedRouter()
	w := get(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthBadToken(t *testing.T) {
	r := newProtectedRouter()
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	r := newProtectedRouter()
	expired := signToken(t, "admin", -time.Hour)
	assert.Equal(t, http.StatusUnauthorized, get(r, expired).Code)
}

func TestJWTAuthValidToken(t *testing.T) {
	r := newProtectedRouter()
	w := get(r, signToken(t, "salesrep", time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "salesrep")
}

func TestRequireRole(t *testing.T) {
	r := newProtectedRouter("admin", "salesrep")

	assert.Equal(t, http.StatusOK, get(r, signToken(t, "admin", time.Hour)).Code)
	assert.Equal(t, http.StatusOK, get(r, signToken(t, "salesrep", time.Hour)).Code)
	assert.Equal(t, http.StatusForbidden, get(r, signToken(t, "guest", time.Hour)).Code)
}
