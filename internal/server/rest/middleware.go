package rest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dkolesnikov/bookshelf/internal/common"
	"github.com/dkolesnikov/bookshelf/internal/server/models"
	"github.com/gin-gonic/gin"
)

const ctxUserKey = "authUser"

// unauthorizedMsg is the single message returned for every 401. Missing
// header, bad signature, expired token and unknown subject are deliberately
// indistinguishable to the client; the real cause goes to the log.
const unauthorizedMsg = "could not validate credentials"

// authRequired validates the bearer token and resolves its subject to a
// stored user before the handler runs.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			s.abortUnauthorized(c, common.ErrUnauthorized)
			return
		}

		subject, err := s.users.Tokens().Verify(token)
		if err != nil {
			s.abortUnauthorized(c, err)
			return
		}

		user, err := s.users.GetByUsername(c.Request.Context(), subject)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				s.abortUnauthorized(c, common.ErrUnauthorized)
				return
			}
			s.writeError(c, common.ErrInternal)
			c.Abort()
			return
		}

		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func (s *Server) abortUnauthorized(c *gin.Context, cause error) {
	s.logger.Debug(c.Request.Context(), "request rejected", "path", c.FullPath(), "reason", cause.Error())
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": unauthorizedMsg})
}

// currentUser returns the authenticated user stored by authRequired.
func currentUser(c *gin.Context) *models.User {
	u, _ := c.Get(ctxUserKey)
	user, _ := u.(*models.User)
	return user
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
