package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Log           *slog.Logger
	AllowOrigins  []string
	HealthHandler *HealthHandler
	TradeHandler  *TradeHandler
	DebugHandler  *DebugHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(cfg.Log))
	if len(cfg.AllowOrigins) > 0 {
		r.Use(CORS(cfg.AllowOrigins))
	}

	r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	trades := r.Group("/trades")
	{
		trades.POST("/invitations", cfg.TradeHandler.Invite)
		trades.POST("/invitations/accept", cfg.TradeHandler.Accept)
		trades.POST("/invitations/decline", cfg.TradeHandler.Decline)

		trades.GET("/:actor", cfg.TradeHandler.View)
		trades.POST("/:actor/currency", cfg.TradeHandler.AddCurrency)
		trades.DELETE("/:actor/currency", cfg.TradeHandler.RemoveCurrency)
		trades.POST("/:actor/assets", cfg.TradeHandler.AddAssets)
		trades.DELETE("/:actor/assets", cfg.TradeHandler.RemoveAssets)
		trades.POST("/:actor/confirm", cfg.TradeHandler.Confirm)
		trades.POST("/:actor/cancel", cfg.TradeHandler.Cancel)
	}

	r.GET("/actors/:actor/notifications", cfg.TradeHandler.Notifications)
	r.GET("/settlements", cfg.TradeHandler.Settlements)

	if cfg.DebugHandler != nil {
		r.GET("/debug/inspect", cfg.DebugHandler.Inspect)
	}

	return r
}
