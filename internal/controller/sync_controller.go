package controller

import (
	"time"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/remote"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/service"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/util"

	"github.com/gin-gonic/gin"
)

type SyncController struct {
	Sync         *service.SyncService
	Connectivity *service.ConnectivityService
	Remote       remote.Service
}

func NewSyncController(syncSvc *service.SyncService, conn *service.ConnectivityService, rs remote.Service) *SyncController {
	return &SyncController{Sync: syncSvc, Connectivity: conn, Remote: rs}
}

// Status backs the sync indicator: how many operations still await remote
// acknowledgment, and whether the node currently sees the remote service.
func (c *SyncController) Status(ctx *gin.Context) {
	pending, err := c.Sync.PendingCount()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"pending": pending,
		"online":  c.Connectivity.Online(),
	})
}

// Flush is the manual retry trigger.
func (c *SyncController) Flush(ctx *gin.Context) {
	delivered, err := c.Sync.Flush(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	pending, _ := c.Sync.PendingCount()
	util.Success(ctx, gin.H{"delivered": delivered, "pending": pending})
}

type progressRequest struct {
	VideoID   string `json:"videoId" binding:"required"`
	Position  int    `json:"position" binding:"min=0"`
	Completed bool   `json:"completed"`
}

// UpdateProgress writes through to the remote service when reachable and
// falls back to the pending queue otherwise. Either way the caller sees
// success.
func (c *SyncController) UpdateProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req progressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record := &model.ProgressRecord{
		StudentID: user.UserID,
		VideoID:   req.VideoID,
		Position:  req.Position,
		Completed: req.Completed,
		UpdatedAt: time.Now(),
	}

	if err := c.Remote.UpdateProgress(ctx.Request.Context(), record); err != nil {
		if qErr := c.Sync.EnqueueProgress(record); qErr != nil {
			util.LogInternalError(ctx, qErr)
			return
		}
		util.Success(ctx, gin.H{"queued": true})
		return
	}

	util.Success(ctx, gin.H{"queued": false})
}
