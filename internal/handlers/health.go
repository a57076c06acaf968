package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/softstore/pkg/errors"
	"github.com/charlesng35/softstore/pkg/logger"
	"github.com/charlesng35/softstore/pkg/response"
)

const healthCheckTimeout = 2 * time.Second

// ErrStorageUnavailable is returned by the health check when the database does not answer.
var ErrStorageUnavailable = apperrors.New("STORAGE_UNAVAILABLE", "Storage is unavailable", http.StatusServiceUnavailable)

// Health returns a status payload useful for readiness checks. With a database handle
// the check also pings storage.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			response.Success(c, http.StatusOK, gin.H{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(requestContext(c), healthCheckTimeout)
		defer cancel()

		if err := pingDatabase(ctx, db); err != nil {
			logger.WithModule("http").Warn("health check failed", zap.Error(err))
			response.Error(c, ErrStorageUnavailable.WithInternal(err))
			return
		}

		response.Success(c, http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	}
}

func pingDatabase(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
