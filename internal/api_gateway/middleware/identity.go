package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// AccountIDHeader carries the authenticated account identity. It is
	// set by the auth layer in front of this service; the identity is
	// trusted, not verified here.
	AccountIDHeader = "X-Account-ID"

	// AccountIDKey is the key used to store the account id in the context
	AccountIDKey = "account_id"
)

// Identity middleware extracts the authenticated account id and rejects
// requests without one
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(AccountIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing account identity",
				},
			})
			return
		}

		accountID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid account identity",
				},
			})
			return
		}

		c.Set(AccountIDKey, accountID)
		c.Next()
	}
}

// GetAccountID retrieves the authenticated account id from the gin context
func GetAccountID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(AccountIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}
