package controller

import (
	"errors"
	"net/http"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/service"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/util"

	"github.com/gin-gonic/gin"
)

type CacheController struct {
	Service *service.AssetCacheService
}

func NewCacheController(svc *service.AssetCacheService) *CacheController {
	return &CacheController{Service: svc}
}

type installRequest struct {
	Version  string   `json:"version" binding:"required"`
	Manifest []string `json:"manifest" binding:"required,min=1"`
}

func (c *CacheController) Install(ctx *gin.Context) {
	var req installRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.Install(ctx.Request.Context(), req.Version, req.Manifest); err != nil {
		if errors.Is(err, util.ErrCacheInstall) {
			util.Error(ctx, http.StatusBadGateway, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"version": req.Version, "entries": len(req.Manifest)})
}

type activateRequest struct {
	Version string `json:"version" binding:"required"`
}

func (c *CacheController) Activate(ctx *gin.Context) {
	var req activateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.Activate(req.Version); err != nil {
		if errors.Is(err, util.ErrCacheInstall) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"active": req.Version})
}

// ServeAsset is the fetch-interception read path. Non-GET requests never
// touch the cache.
func (c *CacheController) ServeAsset(ctx *gin.Context) {
	if ctx.Request.Method != http.MethodGet {
		ctx.Status(http.StatusMethodNotAllowed)
		return
	}

	path := ctx.Param("path")
	if path == "" || path == "/" {
		path = "/index.html"
	}

	resp, err := c.Service.Serve(ctx.Request.Context(), path, ctx.GetHeader("Accept"))
	if err != nil {
		util.Error(ctx, http.StatusBadGateway, "resource unavailable offline")
		return
	}

	if resp.Status == http.StatusNoContent {
		ctx.Status(http.StatusNoContent)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Data(resp.Status, contentType, resp.Body)
}
