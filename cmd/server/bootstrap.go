package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/softstore/internal/api"
	"github.com/charlesng35/softstore/internal/app"
	"github.com/charlesng35/softstore/internal/app/maintenance"
	"github.com/charlesng35/softstore/internal/database"
	"github.com/charlesng35/softstore/internal/models"
	"github.com/charlesng35/softstore/internal/services"
	"github.com/charlesng35/softstore/internal/softdelete"
	"github.com/charlesng35/softstore/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB     *gorm.DB
	Tags   *softdelete.Repository[models.Tag]
	TagSvc *services.TagService
	Purger *maintenance.Purger
	Router *gin.Engine
}

// bootstrapRuntime initialises the database, repositories, services, maintenance jobs,
// and the HTTP router.
func bootstrapRuntime(_ context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	repoOpts, err := cfg.TagRepositoryOptions()
	if err != nil {
		return nil, fmt.Errorf("configure tag repository: %w", err)
	}
	repoOpts = append(repoOpts, softdelete.WithLogger(logger.WithModule("softdelete")))

	stack.Tags, err = softdelete.New[models.Tag](stack.DB, repoOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise tag repository: %w", err)
	}

	stack.TagSvc, err = services.NewTagService(stack.Tags)
	if err != nil {
		return nil, fmt.Errorf("initialise tag service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Purger = maintenance.NewPurger([]maintenance.Purgeable{stack.Tags},
			maintenance.WithSchedule(cfg.Maintenance.PurgeSchedule),
			maintenance.WithRetention(cfg.Maintenance.Retention),
		)
		if err := stack.Purger.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(stack.DB, stack.TagSvc)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(_ context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Purger != nil {
		<-s.Purger.Stop().Done()
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.DatabaseSettings()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}
