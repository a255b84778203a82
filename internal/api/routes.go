package api

import (
	"github.com/gin-gonic/gin"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/editor"
)

func RegisterRoutes(r *gin.Engine, ed *editor.Editor) {
	h := &handlers{ed: ed}
	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.GET("/state", h.state)
		api.POST("/photo", h.photo)

		api.POST("/crop/drag", h.drag)
		api.POST("/crop/display", h.display)
		api.POST("/crop/suggest", h.suggest)
		api.GET("/crop/view", h.cropView)
		api.POST("/crop/confirm", h.confirmCrop)
		api.POST("/crop/cancel", h.cancelCrop)

		api.GET("/avatar", h.avatar)
		api.DELETE("/avatar", h.clearAvatar)
		api.PUT("/fields", h.fields)
		api.GET("/preview", h.preview)
		api.POST("/export", h.export)
		api.GET("/qr", qrHandler)
	}
}
