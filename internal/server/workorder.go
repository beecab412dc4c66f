package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	workorderdomain "github.com/AndreaSpaggiari/sito-andrea/internal/workorder/domain"
)

func (s *Server) EnqueueWorkOrder(c *gin.Context) {
	var req workorderdomain.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.workOrderSvc.Enqueue(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

type StartWorkOrderRequest struct {
	PhaseID string `json:"phase_id"`
}

func (s *Server) StartWorkOrder(c *gin.Context) {
	var req StartWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.workOrderSvc.Start(c.Request.Context(), workorderdomain.StartRequest{
		OrderID: c.Param("id"),
		PhaseID: req.PhaseID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type FinishWorkOrderRequest struct {
	Weight             float64 `json:"weight"`
	PassCount          int     `json:"pass_count"`
	PieceCount         int     `json:"piece_count"`
	SuccessorMachineID string  `json:"successor_machine_id"`
}

func (s *Server) FinishWorkOrder(c *gin.Context) {
	var req FinishWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.workOrderSvc.Finish(c.Request.Context(), workorderdomain.FinishRequest{
		OrderID:            c.Param("id"),
		Weight:             req.Weight,
		PassCount:          req.PassCount,
		PieceCount:         req.PieceCount,
		SuccessorMachineID: strings.TrimSpace(req.SuccessorMachineID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) GetWorkOrderByID(c *gin.Context) {
	order, err := s.workOrderSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) ListWorkOrders(c *gin.Context) {
	orders, err := s.workOrderSvc.List(c.Request.Context(), workorderdomain.ListRequest{
		MachineID: strings.TrimSpace(c.Query("machine_id")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
