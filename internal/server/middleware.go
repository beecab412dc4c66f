package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	authdomain "github.com/AndreaSpaggiari/sito-andrea/internal/auth/domain"
	permissiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/permission/domain"
)

const contextUserKey = "current_user"

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok || strings.TrimSpace(token) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) (*authdomain.User, bool) {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*authdomain.User)
	return user, ok && user != nil
}

func (s *Server) RequireAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := "user:" + user.ID.String()
		if err := s.authzSvc.Authorize(c.Request.Context(), actor, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// SectionApproved enforces the portal's three-state gate on top of the
// role check. Admins skip the gate since they are the ones approving.
func (s *Server) SectionApproved(section permissiondomain.Section) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if user.Role == authdomain.RoleAdmin {
			c.Next()
			return
		}

		state, err := s.permissionSvc.Check(c.Request.Context(), user.ID, section)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if state != permissiondomain.StateApproved {
			AbortWithError(c, permissiondomain.ErrInvalidState)
			return
		}
		c.Next()
	}
}

// ScanRateLimit throttles the vision endpoints. With no limiter
// configured the middleware is a no-op, matching local development.
func (s *Server) ScanRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.scanLimiter.Enabled() {
			c.Next()
			return
		}
		user, ok := currentUser(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		allowed, err := s.scanLimiter.AllowUser(c.Request.Context(), user.ID.String())
		if err != nil {
			AbortWithError(c, ErrUnavailable)
			return
		}
		if !allowed {
			AbortWithError(c, ErrTooManyRequests)
			return
		}

		token, locked, err := s.scanLimiter.TryLockUser(c.Request.Context(), user.ID.String())
		if err != nil {
			AbortWithError(c, ErrUnavailable)
			return
		}
		if !locked {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		defer func() {
			_ = s.scanLimiter.ReleaseUser(c.Request.Context(), user.ID.String(), token)
		}()

		c.Next()
	}
}
