package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	permissiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/permission/domain"
)

type RequestSectionRequest struct {
	Section string `json:"section"`
}

func (s *Server) RequestSection(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req RequestSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	section := permissiondomain.Section(strings.ToLower(strings.TrimSpace(req.Section)))
	grant, err := s.permissionSvc.Request(c.Request.Context(), user.ID, section)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}

func (s *Server) MySections(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	grants, err := s.permissionSvc.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

func (s *Server) ListPendingSections(c *gin.Context) {
	grants, err := s.permissionSvc.ListPending(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

func (s *Server) DecideSection(c *gin.Context) {
	var req permissiondomain.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	grant, err := s.permissionSvc.Decide(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}
