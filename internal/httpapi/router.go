package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuanqi-lab/fortune-platform/internal/common"
	"github.com/yuanqi-lab/fortune-platform/internal/httpapi/handlers"
	"github.com/yuanqi-lab/fortune-platform/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "route_not_found", "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	api := r.Group("/api")

	api.GET("/health", h.Health)
	api.GET("/marquee", h.Marquee)
	api.PUT("/marquee", h.SetMarquee)
	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.PutSettings)
	api.GET("/persona", h.GetPersona)
	api.PUT("/persona", h.PutPersona)

	// raw model relay
	api.POST("/gemini/generate", h.Generate)
	api.POST("/gemini/stream", h.GenerateStream)

	// divination pipeline
	api.GET("/divination/:type/chart", h.Chart)
	api.POST("/divination/:type", h.Divine)
	api.POST("/divination/:type/stream", h.DivineStream)

	// capped history
	api.GET("/history/:type", h.ListHistory)
	api.DELETE("/history/:type", h.ClearHistory)
	api.GET("/history/:type/:id", h.GetHistoryRecord)
	api.DELETE("/history/:type/:id", h.DeleteHistoryRecord)

	// async jobs
	api.POST("/jobs", h.CreateJob)
	api.GET("/jobs/:id", h.GetJob)

	return r
}
