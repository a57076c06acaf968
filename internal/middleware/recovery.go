package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/charlesng35/softstore/pkg/errors"
	"github.com/charlesng35/softstore/pkg/logger"
	"github.com/charlesng35/softstore/pkg/response"
)

// ErrRouteNotFound is rendered for unknown routes.
var ErrRouteNotFound = apperrors.New("ROUTE_NOT_FOUND", "Route not found", http.StatusNotFound)

// Recovery converts panics into a 500 response and logs the error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(CtxRequestIDKey)),
					zap.Any("error", r),
					zap.Stack("stack"),
				)
				// Avoid leaking internals to clients
				response.Error(c, apperrors.ErrInternalServer)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, ErrRouteNotFound.WithInternal(fmt.Errorf("route %s not found", c.Request.URL.Path)))
}
