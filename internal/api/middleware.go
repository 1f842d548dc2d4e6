package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shop-service/internal/service"
	"shop-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	cartCookieName = "cart_session"
	shopperKey     = "shopper"
)

// CartSession ensures every visitor carries a session token for anonymous
// cart binding. The token is an opaque uuid; the order id it maps to lives
// server-side in the session store.
func CartSession(cookieMaxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cartCookieName)
		if err != nil || token == "" {
			token = uuid.New().String()
			c.SetCookie(cartCookieName, token, int(cookieMaxAge.Seconds()), "/", "", false, true)
		}
		c.Set("cart_token", token)
		c.Next()
	}
}

// Auth resolves the shopper from an optional Bearer token. Requests without
// a token proceed as anonymous; a malformed or expired token is rejected.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopper := service.Shopper{Token: c.GetString("cart_token")}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(shopperKey, shopper)
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		userID, ok := claims["user_id"].(float64)
		if !ok || userID <= 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user_id claim"})
			c.Abort()
			return
		}

		shopper.UserID = int64(userID)
		shopper.FirstName, _ = claims["first_name"].(string)
		shopper.LastName, _ = claims["last_name"].(string)
		shopper.Email, _ = claims["email"].(string)

		c.Set(shopperKey, shopper)
		c.Next()
	}
}

func currentShopper(c *gin.Context) service.Shopper {
	if v, ok := c.Get(shopperKey); ok {
		if shopper, ok := v.(service.Shopper); ok {
			return shopper
		}
	}
	return service.Shopper{Token: c.GetString("cart_token")}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
