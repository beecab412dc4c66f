package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	handballdomain "github.com/AndreaSpaggiari/sito-andrea/internal/handball/domain"
)

func (s *Server) ListHandballTeams(c *gin.Context) {
	teams, err := s.handballSvc.ListTeams(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

func (s *Server) ListHandballMatches(c *gin.Context) {
	matches, err := s.handballSvc.ListMatches(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (s *Server) HandballStandings(c *gin.Context) {
	standings, err := s.handballSvc.Standings(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"standings": standings})
}

func (s *Server) CreateHandballTeam(c *gin.Context) {
	var req handballdomain.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	team, err := s.handballSvc.CreateTeam(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (s *Server) ScheduleHandballMatch(c *gin.Context) {
	var req handballdomain.ScheduleMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	match, err := s.handballSvc.ScheduleMatch(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, match)
}

func (s *Server) RecordHandballResult(c *gin.Context) {
	var req handballdomain.RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.MatchID = c.Param("id")

	match, err := s.handballSvc.RecordResult(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}
