package auth

import (
	"net/http"
	"strings"

	"edusuite/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActorContextKey gin key holding the acting user id
const ActorContextKey = "actor_id"

// ActorMiddleware binds the bearer token subject as the acting user. Requests
// without a token run as defaultActor; a present but invalid token is rejected.
func ActorMiddleware(jwtService *JWTService, defaultActor string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		actor := defaultActor

		if header := c.GetHeader("Authorization"); header != "" {
			token := ExtractTokenFromBearer(header)
			if token == "" || jwtService == nil {
				common.AbortWithError(c, http.StatusUnauthorized, "Invalid authorization header")
				return
			}
			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				common.AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			actor = claims.Subject
		}

		c.Set(ActorContextKey, actor)
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// ExtractTokenFromBearer strips the Bearer prefix, "" if absent.
func ExtractTokenFromBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
