package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func shopperRouter() (*gin.Engine, *service.Shopper) {
	gin.SetMode(gin.TestMode)

	captured := &service.Shopper{}
	router := gin.New()
	router.Use(CartSession(time.Hour))
	router.Use(Auth(testSecret))
	router.GET("/whoami", func(c *gin.Context) {
		*captured = currentShopper(c)
		c.Status(http.StatusOK)
	})
	return router, captured
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func TestCartSessionSetsCookie(t *testing.T) {
	router, shopper := shopperRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, shopper.Authenticated())
	assert.NotEmpty(t, shopper.Token)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, cartCookieName, cookies[0].Name)
	assert.Equal(t, shopper.Token, cookies[0].Value)
}

func TestCartSessionReusesExistingToken(t *testing.T) {
	router, shopper := shopperRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cartCookieName, Value: "existing-token"})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "existing-token", shopper.Token)
}

func TestAuthResolvesShopperFromToken(t *testing.T) {
	router, shopper := shopperRouter()

	signed := signToken(t, jwt.MapClaims{
		"user_id":    float64(42),
		"first_name": "Petya",
		"last_name":  "Petrov",
		"email":      "petya@example.com",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, shopper.Authenticated())
	assert.Equal(t, int64(42), shopper.UserID)
	assert.Equal(t, "petya@example.com", shopper.Email)
	assert.NotEmpty(t, shopper.Token, "authenticated shoppers still carry a session token")
}

func TestAuthRejectsBadToken(t *testing.T) {
	router, _ := shopperRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	router, _ := shopperRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
