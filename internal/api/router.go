package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/softstore/internal/handlers"
	"github.com/charlesng35/softstore/internal/middleware"
	"github.com/charlesng35/softstore/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the tag routes.
func NewRouter(db *gorm.DB, tags *services.TagService) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if tags == nil {
		return nil, fmt.Errorf("tag service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.NoRoute(middleware.NotFoundHandler)

	registerHealthRoutes(r, db)

	api := r.Group("/api")
	registerTagRoutes(api, handlers.NewTagHandler(tags))

	return r, nil
}

func registerHealthRoutes(r *gin.Engine, db *gorm.DB) {
	r.GET("/health", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
