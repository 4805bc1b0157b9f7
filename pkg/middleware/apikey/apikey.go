package apikey

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
	"github.com/tutorpulse/reliability-api/pkg/response"
)

const headerKey = "X-API-Key"

// Middleware enforces a static API key on mutating routes. When no key is
// configured the check is disabled.
func Middleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(headerKey)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or missing API key"))
			c.Abort()
			return
		}

		c.Next()
	}
}
