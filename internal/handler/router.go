package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the health check and the /api surface on r.
func RegisterRoutes(r gin.IRouter, chat *ChatHandler, wealth *WealthHandler, cars *CarHandler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	api := r.Group("/api")
	{
		chatGroup := api.Group("/chat")
		{
			chatGroup.POST("/message", chat.SendMessage)
			chatGroup.POST("/stream", chat.StreamMessage)
			chatGroup.GET("/history/:userId", chat.GetHistory)
			chatGroup.DELETE("/history/:userId", chat.ClearHistory)
		}

		wealthGroup := api.Group("/wealth")
		{
			wealthGroup.POST("/analyze", wealth.Analyze)
			wealthGroup.GET("/portfolio/:userId", wealth.Portfolio)
			wealthGroup.GET("/insights/:userId", wealth.Insights)
		}

		carGroup := api.Group("/cars")
		{
			carGroup.GET("", cars.List)
			carGroup.POST("/search", cars.Search)
		}
	}
}
