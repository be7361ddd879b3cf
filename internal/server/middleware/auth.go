package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	userContextKey = contextKey("user_id")

	// UserIDKey is the gin context key holding the authenticated user ID
	UserIDKey = "user_id"
)

// JWTAuth middleware for JWT authentication. The user ID is read from the
// "sub" claim, falling back to "user_id".
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		userID, ok := userIDFromClaims(claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid user ID in token",
				"details": "sub or user_id claim must be a positive number",
			})
			return
		}

		c.Set(UserIDKey, userID)
		ctx := context.WithValue(c.Request.Context(), userContextKey, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func userIDFromClaims(claims jwt.MapClaims) (uint, bool) {
	for _, key := range []string{"sub", "user_id"} {
		switch v := claims[key].(type) {
		case float64:
			if v >= 1 {
				return uint(v), true
			}
		case string:
			if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
				return uint(id), true
			}
		}
	}
	return 0, false
}

// GetUserID returns the authenticated user ID set by JWTAuth
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// UserIDFromContext retrieves the authenticated user ID from a request context
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userContextKey).(uint)
	return id, ok
}

// SignToken issues an HS256 token for userID
func SignToken(secret string, userID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// extractToken reads the bearer header, or the token query parameter for
// websocket handshakes where browsers cannot set headers
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && bearerToken[:7] == "Bearer " {
		return bearerToken[7:]
	}
	return c.Query("token")
}
