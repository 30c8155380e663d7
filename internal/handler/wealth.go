package handler

import (
	"net/http"

	"carvest-backend/internal/model"
	"carvest-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type WealthHandler struct {
	wealthService *service.WealthService
	production    bool
}

func NewWealthHandler(wealthService *service.WealthService, production bool) *WealthHandler {
	return &WealthHandler{
		wealthService: wealthService,
		production:    production,
	}
}

func (h *WealthHandler) Analyze(c *gin.Context) {
	var req model.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId is required"})
		return
	}

	result, analysisType, err := h.wealthService.Analyze(c.Request.Context(), req.UserID, req.AnalysisType)
	if errors.Is(err, service.ErrInvalidAnalysisType) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "analysisType must be one of risk, opportunity, performance, comprehensive",
		})
		return
	}
	if err != nil {
		internalError(c, "Failed to analyze portfolio", err, h.production, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, model.AnalyzeResponse{
		Success:      true,
		AnalysisType: analysisType,
		Result:       result,
	})
}

func (h *WealthHandler) Portfolio(c *gin.Context) {
	portfolio, err := h.wealthService.Portfolio(c.Request.Context(), c.Param("userId"))
	if err != nil {
		internalError(c, "Failed to load portfolio", err, h.production, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "portfolio": portfolio})
}

func (h *WealthHandler) Insights(c *gin.Context) {
	insights, err := h.wealthService.Insights(c.Request.Context(), c.Param("userId"), c.Query("analysisType"))
	if errors.Is(err, service.ErrNoInsights) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No insights found"})
		return
	}
	if err != nil {
		internalError(c, "Failed to load insights", err, h.production, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "insights": insights})
}
