package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type analyzeRequest struct {
	ProductDescription string `json:"product_description"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Persona Analysis API is running"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}
	description := strings.TrimSpace(req.ProductDescription)
	if description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Missing 'product_description' in request body"})
		return
	}

	report, err := s.analyzer.Query(c.Request.Context(), description)
	if err != nil {
		s.logger.Error("analysis failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
