package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

func (s *Server) DailyOutput(c *gin.Context) {
	date, err := parseDateParam(c.Query("date"), time.Now().UTC())
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	outputs, err := s.productionSvc.DailyOutput(c.Request.Context(), date)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":     date.Format(dateLayout),
		"machines": outputs,
	})
}

func (s *Server) RollingAverage(c *gin.Context) {
	days := 30
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		days = parsed
	}

	averages, err := s.productionSvc.RollingAverage(c.Request.Context(), days)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"days":     days,
		"machines": averages,
	})
}

func (s *Server) Backlog(c *gin.Context) {
	entries, err := s.productionSvc.Backlog(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"machines": entries})
}

func (s *Server) ProductionMatrix(c *gin.Context) {
	now := time.Now().UTC()
	from, err := parseDateParam(c.Query("from"), now.AddDate(0, -1, 0))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	to, err := parseDateParam(c.Query("to"), now)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	matrix, err := s.productionSvc.Matrix(c.Request.Context(), from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, matrix)
}

func (s *Server) DailyProductionReport(c *gin.Context) {
	date, err := parseDateParam(c.Query("date"), time.Now().UTC())
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	reader, err := s.reportSvc.DailyProduction(c.Request.Context(), date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="produzione-`+date.Format(dateLayout)+`.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

func parseDateParam(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return time.ParseInLocation(dateLayout, raw, time.UTC)
}
