package controller

import (
	"errors"
	"net/http"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/service"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	Service *service.SessionService
}

func NewSessionController(svc *service.SessionService) *SessionController {
	return &SessionController{Service: svc}
}

func (c *SessionController) StartQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.Service.Start(ctx.Request.Context(), user, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotAuthorized):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrSessionActive):
			util.Error(ctx, http.StatusConflict, err.Error())
		case errors.Is(err, util.ErrLoadFailed):
			util.Error(ctx, http.StatusServiceUnavailable, "quiz unavailable, please retry")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, view)
}

type answerRequest struct {
	Index int    `json:"index" binding:"min=0"`
	Value string `json:"value" binding:"required"`
}

func (c *SessionController) RecordAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req answerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.RecordAnswer(user.UserID, req.Index, req.Value); err != nil {
		util.Error(ctx, http.StatusConflict, err.Error())
		return
	}

	util.Success(ctx, gin.H{"recorded": true})
}

type submitRequest struct {
	Manual bool `json:"manual"`
}

func (c *SessionController) SubmitQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req submitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		req.Manual = true
	}

	view, err := c.Service.Submit(ctx.Request.Context(), user.UserID, req.Manual)
	if err != nil {
		util.Error(ctx, http.StatusConflict, err.Error())
		return
	}

	util.Success(ctx, view)
}

func (c *SessionController) CancelQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Service.Cancel(user.UserID); err != nil {
		util.Error(ctx, http.StatusConflict, err.Error())
		return
	}

	util.Success(ctx, gin.H{"cancelled": true})
}

func (c *SessionController) GetSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.Service.View(user.UserID)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	util.Success(ctx, view)
}
