package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/rastro/internal/authcontext"
)

const bearerPrefix = "Bearer "

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		userID, err := s.authSvc.Verify(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := authcontext.WithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := strings.TrimSpace(s.cfg.AdminAPIToken)
		if expected == "" {
			AbortWithError(c, ErrForbidden)
			return
		}
		token := bearerToken(c)
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}
