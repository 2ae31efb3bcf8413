package server

import (
	"strings"
	"time"

	"github.com/crescendohq/crescendo/internal/auditcontext"
	auditdomain "github.com/crescendohq/crescendo/internal/audit/domain"
	"github.com/gin-gonic/gin"
)

// authCacheTTL bounds how long a verified key skips the argon2 derivation.
// Revoked keys stay usable for at most this window.
const authCacheTTL = 30 * time.Second

// AdminRequired authenticates requests with a bearer API key. Verified
// hashes are cached briefly since argon2 is deliberately expensive.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := bearerToken(c.GetHeader("Authorization"))
		if secret == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if _, ok := s.authCache.Get(secret); !ok {
			if _, err := s.apiKeySvc.Verify(c.Request.Context(), secret); err != nil {
				AbortWithError(c, err)
				return
			}
			s.authCache.Set(secret, true, authCacheTTL)
		}

		ctx := auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeAdmin), "")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
