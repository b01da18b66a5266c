package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/auth"
	"resume-analyzer/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
	isGuestKey   = "isGuest"

	guestHeader = "X-Guest-Id"
	guestPrefix = "guest:"
)

// Auth resolves the caller to an owner id. A bearer JWT wins over the guest
// header; guests become "guest:<id>". Paths under publicPrefixes skip
// identity entirely.
func Auth(publicPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
			if !bearerIdentity(c, header) {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader(guestHeader))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		c.Set(userIDKey, guestPrefix+guestID)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

func bearerIdentity(c *gin.Context, header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return false
	}
	claims, err := auth.VerifyJWT(token)
	if err != nil {
		return false
	}
	c.Set(userIDKey, claims.Subject)
	c.Set(isGuestKey, false)
	if claims.Email != "" {
		c.Set(userEmailKey, claims.Email)
	}
	if claims.Name != "" {
		c.Set(userNameKey, claims.Name)
	}
	return true
}

// UserIDFromContext returns the owner id set by Auth.
func UserIDFromContext(c *gin.Context) string { return contextString(c, userIDKey) }

func UserEmailFromContext(c *gin.Context) string { return contextString(c, userEmailKey) }

func UserNameFromContext(c *gin.Context) string { return contextString(c, userNameKey) }

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	return c.GetString(key)
}
