package handler

import (
	"net/http"

	"carvest-backend/internal/model"
	"carvest-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type CarHandler struct {
	carService *service.CarService
	production bool
}

func NewCarHandler(carService *service.CarService, production bool) *CarHandler {
	return &CarHandler{
		carService: carService,
		production: production,
	}
}

func (h *CarHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "vehicles": h.carService.Vehicles()})
}

func (h *CarHandler) Search(c *gin.Context) {
	var req model.CarSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "query is required"})
		return
	}

	result, err := h.carService.Search(c.Request.Context(), req.Query)
	if errors.Is(err, service.ErrEmptyQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "query is required"})
		return
	}
	if err != nil {
		internalError(c, "Failed to search vehicles", err, h.production, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "query": req.Query, "result": result})
}
