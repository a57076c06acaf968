package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/softstore/internal/handlers"
)

func registerTagRoutes(api *gin.RouterGroup, handler *handlers.TagHandler) {
	if api == nil || handler == nil {
		return
	}

	tags := api.Group("/tags")
	{
		tags.GET("", handler.List)
		tags.GET("/deleted", handler.ListDeleted)
		tags.GET("/lookup", handler.Lookup)
		tags.GET("/:id", handler.Get)
		tags.POST("", handler.Create)
		tags.POST("/import", handler.Import)
		tags.POST("/:id/restore", handler.Restore)
		tags.PATCH("/:id", handler.Update)
		tags.DELETE("/:id", handler.Delete)
	}
}
