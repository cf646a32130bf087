package controller

import (
	"net/http"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/service"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB           *gorm.DB
	Connectivity *service.ConnectivityService
}

func NewHealthController(db *gorm.DB, conn *service.ConnectivityService) *HealthController {
	return &HealthController{DB: db, Connectivity: conn}
}

func (c *HealthController) HealthCheck(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.Ping(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Local store unavailable")
		return
	}

	remoteState := "offline"
	if c.Connectivity.Online() {
		remoteState = "online"
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"store":  "up",
			"remote": remoteState,
		},
	})
}
