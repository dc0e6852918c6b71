package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// EventController 线下培训活动
type EventController struct {
	EventService *service.EventService
}

func NewEventController(eventService *service.EventService) *EventController {
	return &EventController{EventService: eventService}
}

// CreateEvent godoc
// @Summary 创建活动
// @Description capacity 为 0 表示不限人数
// @Tags 活动管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body service.EventInput true "活动信息"
// @Success 201 {object} util.Response{data=model.TrainingEvent}
// @Router /api/admin/events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	var in service.EventInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	e, err := c.EventService.Create(in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, e)
}

// ListEvents godoc
// @Summary 活动列表（含草稿）
// @Tags 活动管理
// @Produce  json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/events [get]
func (c *EventController) ListEvents(ctx *gin.Context) {
	page, limit := util.Pagination(ctx)
	events, total, err := c.EventService.ListAll(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: events, Total: total, Page: page, Limit: limit})
}

// UpdateEvent godoc
// @Summary 修改活动
// @Tags 活动管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param body body service.EventInput true "活动信息"
// @Success 200 {object} util.Response{data=model.TrainingEvent}
// @Router /api/admin/events/{id} [put]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.EventInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	e, err := c.EventService.Update(id, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, e)
}

// PublishEvent godoc
// @Summary 发布/撤回活动
// @Tags 活动管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param body body PublishRequest true "是否发布"
// @Success 200 {object} util.Response{data=model.TrainingEvent}
// @Router /api/admin/events/{id}/publish [post]
func (c *EventController) PublishEvent(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	e, err := c.EventService.SetPublished(id, req.Published)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, e)
}

// DeleteEvent godoc
// @Summary 删除活动
// @Tags 活动管理
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Success 200 {object} util.Response
// @Router /api/admin/events/{id} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.EventService.Delete(id); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// EventRegistrations godoc
// @Summary 活动报名名单
// @Tags 活动管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Success 200 {object} util.Response{data=[]model.EventRegistration}
// @Router /api/admin/events/{id}/registrations [get]
func (c *EventController) EventRegistrations(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if _, err := c.EventService.Get(id); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	regs, err := c.EventService.Registrations(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, regs)
}

// UpcomingEvents godoc
// @Summary 近期活动
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/portal/events [get]
func (c *EventController) UpcomingEvents(ctx *gin.Context) {
	page, limit := util.Pagination(ctx)
	views, total, err := c.EventService.ListUpcoming(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: views, Total: total, Page: page, Limit: limit})
}

// RegisterEvent godoc
// @Summary 报名活动
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Success 201 {object} util.Response{data=model.EventRegistration}
// @Failure 409 {object} util.Response "名额已满或已报名"
// @Router /api/portal/events/{id}/register [post]
func (c *EventController) RegisterEvent(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	reg, err := c.EventService.Register(ctx.Request.Context(), claims.UserID, id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, reg)
}

// CancelRegistration godoc
// @Summary 取消报名
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Success 200 {object} util.Response{data=model.EventRegistration}
// @Router /api/portal/events/{id}/cancel [post]
func (c *EventController) CancelRegistration(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	reg, err := c.EventService.Cancel(ctx.Request.Context(), claims.UserID, id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, reg)
}

// MyRegistrations godoc
// @Summary 我的报名
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.EventRegistration}
// @Router /api/portal/my-events [get]
func (c *EventController) MyRegistrations(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	regs, err := c.EventService.MyRegistrations(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, regs)
}
