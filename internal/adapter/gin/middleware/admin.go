package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-directory-service/pkg/logger"
	"user-directory-service/pkg/security"
)

// MsgNotAuthorized is returned when an admin-only route is called without the admin credential.
const MsgNotAuthorized = "You are not authorized for this action."

// TokenVerifier accepts or rejects a bearer token.
type TokenVerifier interface {
	Verify(token string) error
}

// AdminAuth only lets requests carrying an admin bearer token through.
func AdminAuth(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := security.ParseBearerToken(c.GetHeader("Authorization"))
		if err == nil {
			err = verifier.Verify(token)
		}
		if err != nil {
			logger.WithContext(c.Request.Context(), log).Warn("admin authorization rejected",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgNotAuthorized})
			return
		}

		c.Next()
	}
}
