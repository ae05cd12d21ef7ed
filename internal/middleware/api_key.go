package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "persacc/internal/errors"
)

// APIKeyHeader carries the shared secret of the ledger API.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth validates the X-API-Key header against the configured key. An
// empty key leaves the API open, which is the single-user local setup.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		key := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		c.Next()
	}
}
