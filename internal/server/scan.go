package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	intakedomain "github.com/AndreaSpaggiari/sito-andrea/internal/intake/domain"
)

func (s *Server) AnalyzeProductionForm(c *gin.Context) {
	req, err := readScanUpload(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	descriptor, err := s.intakeSvc.Analyze(c.Request.Context(), *req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, descriptor)
}

func (s *Server) AnalyzeMatchSheet(c *gin.Context) {
	req, err := readScanUpload(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sheet, err := s.intakeSvc.AnalyzeMatchSheet(c.Request.Context(), *req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

func (s *Server) ListScanUploads(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		limit = parsed
	}

	uploads, err := s.intakeSvc.ListUploads(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}

func readScanUpload(c *gin.Context) (*intakedomain.AnalyzeRequest, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return nil, ErrInvalidRequest
	}

	file, err := header.Open()
	if err != nil {
		return nil, ErrInvalidRequest
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return nil, ErrInvalidRequest
	}

	return &intakedomain.AnalyzeRequest{
		Image:       image,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}
