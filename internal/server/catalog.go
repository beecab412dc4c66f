package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListMachines(c *gin.Context) {
	machines, err := s.catalogSvc.ListMachines(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"machines": machines})
}

func (s *Server) ListPhases(c *gin.Context) {
	phases, err := s.catalogSvc.ListPhases(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phases": phases})
}

func (s *Server) ListClients(c *gin.Context) {
	clients, err := s.catalogSvc.ListClients(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}
