package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-todo-backend/internal/http/middleware"
)

// readyTimeout bounds the dependency checks of /ready.
const readyTimeout = 2 * time.Second

// HealthChecker is a dependency probed by /ready (repo.MongoHelper).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse is the body of /ready.
type ReadyResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks"`
}

// health godoc
// @ID       health
// @Summary  Liveness probe
// @Tags     Ops
// @Produce  json
// @Success  200  {object}  httpapi.HealthResponse
// @Router   /health [get]
func health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// ready godoc
// @ID       ready
// @Summary  Readiness probe
// @Description Pings the document store; 503 when it is unreachable.
// @Tags     Ops
// @Produce  json
// @Success  200  {object}  httpapi.ReadyResponse
// @Failure  503  {object}  httpapi.ReadyResponse
// @Router   /ready [get]
func ready(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := map[string]string{}
		status, code := "ok", http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("readiness check failed")
				checks["database"] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
			} else {
				checks["database"] = "ok"
			}
		}

		c.JSON(code, ReadyResponse{Status: status, Checks: checks})
	}
}
