package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fatflowers/bizpay/pkg/response"
)

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

// DBPing pings the pool behind db.
func DBPing(db *gorm.DB) PingFunc {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// @Summary      Health check
// @Description  Liveness. Returns ok while the process serves requests.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, response.OKT(map[string]string{"status": "ok"}))
}

// @Summary      Readiness check
// @Description  Returns 503 when the database is unreachable.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /readyz [get]
func ApiReadyz(ping PingFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, response.ErrorT(response.APIResponseCodeError, map[string]string{"status": "db_unreachable"}))
				return
			}
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"status": "ready"}))
	}
}

func RegisterHealthRoutes(r gin.IRouter, ping PingFunc) {
	r.GET("/healthz", Healthz)
	r.GET("/readyz", ApiReadyz(ping))
}
