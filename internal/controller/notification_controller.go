package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationService *service.NotificationService
}

func NewNotificationController(notificationService *service.NotificationService) *NotificationController {
	return &NotificationController{NotificationService: notificationService}
}

// ListNotifications godoc
// @Summary 我的通知
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Param unread query bool false "只看未读"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/portal/notifications [get]
func (c *NotificationController) ListNotifications(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, limit := util.Pagination(ctx)
	list, total, err := c.NotificationService.List(claims.UserID, ctx.Query("unread") == "true", page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: page, Limit: limit})
}

// UnreadCount godoc
// @Summary 未读通知数
// @Tags 通知
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/portal/notifications/unread-count [get]
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	n, err := c.NotificationService.UnreadCount(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"count": n})
}

// MarkRead godoc
// @Summary 标记已读
// @Tags 通知
// @Security ApiKeyAuth
// @Param id path int true "通知ID"
// @Success 200 {object} util.Response
// @Router /api/portal/notifications/{id}/read [post]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	if err := c.NotificationService.MarkRead(ctx.Request.Context(), claims.UserID, id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// MarkAllRead godoc
// @Summary 全部标记已读
// @Tags 通知
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/portal/notifications/read-all [post]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	n, err := c.NotificationService.MarkAllRead(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"updated": n})
}
