package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LearningPathController struct {
	PathService *service.LearningPathService
}

func NewLearningPathController(pathService *service.LearningPathService) *LearningPathController {
	return &LearningPathController{PathService: pathService}
}

// ---- 后台 ----

// CreatePath godoc
// @Summary 创建学习路径
// @Description courseIds 的顺序即解锁顺序
// @Tags 学习路径管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body service.PathInput true "路径信息"
// @Success 201 {object} util.Response{data=model.LearningPath}
// @Router /api/admin/paths [post]
func (c *LearningPathController) CreatePath(ctx *gin.Context) {
	var in service.PathInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	path, err := c.PathService.Create(ctx.Request.Context(), in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, path)
}

// ListPaths godoc
// @Summary 学习路径列表（含草稿）
// @Tags 学习路径管理
// @Produce  json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/paths [get]
func (c *LearningPathController) ListPaths(ctx *gin.Context) {
	c.list(ctx, false)
}

func (c *LearningPathController) list(ctx *gin.Context, publishedOnly bool) {
	page, limit := util.Pagination(ctx)
	paths, total, err := c.PathService.List(publishedOnly, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: paths, Total: total, Page: page, Limit: limit})
}

// GetPath godoc
// @Summary 学习路径详情
// @Tags 学习路径管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "路径ID"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Router /api/admin/paths/{id} [get]
func (c *LearningPathController) GetPath(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	path, err := c.PathService.Get(id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// UpdatePath godoc
// @Summary 修改学习路径
// @Tags 学习路径管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "路径ID"
// @Param body body service.PathInput true "路径信息"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Router /api/admin/paths/{id} [put]
func (c *LearningPathController) UpdatePath(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.PathInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	path, err := c.PathService.Update(ctx.Request.Context(), id, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// PublishPath godoc
// @Summary 发布/撤回学习路径
// @Tags 学习路径管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "路径ID"
// @Param body body PublishRequest true "是否发布"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Failure 422 {object} util.Response "空路径不能发布"
// @Router /api/admin/paths/{id}/publish [post]
func (c *LearningPathController) PublishPath(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	path, err := c.PathService.SetPublished(ctx.Request.Context(), id, req.Published)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// DeletePath godoc
// @Summary 删除学习路径
// @Tags 学习路径管理
// @Security ApiKeyAuth
// @Param id path int true "路径ID"
// @Success 200 {object} util.Response
// @Router /api/admin/paths/{id} [delete]
func (c *LearningPathController) DeletePath(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.PathService.Delete(id); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ---- 学员端 ----

// PublishedPaths godoc
// @Summary 可加入的学习路径
// @Tags 学习路径
// @Produce  json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/portal/paths [get]
func (c *LearningPathController) PublishedPaths(ctx *gin.Context) {
	c.list(ctx, true)
}

// EnrollPath godoc
// @Summary 加入学习路径
// @Tags 学习路径
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "路径ID"
// @Success 201 {object} util.Response{data=model.PathEnrollment}
// @Router /api/portal/paths/{id}/enroll [post]
func (c *LearningPathController) EnrollPath(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	pe, err := c.PathService.EnrollPath(ctx.Request.Context(), claims.UserID, id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, pe)
}

// PathProgress godoc
// @Summary 学习路径进度
// @Description 每门课程的解锁状态与完成情况
// @Tags 学习路径
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "路径ID"
// @Success 200 {object} util.Response{data=service.PathProgressView}
// @Router /api/portal/paths/{id} [get]
func (c *LearningPathController) PathProgress(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	view, err := c.PathService.PathProgress(ctx.Request.Context(), claims.UserID, id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// EnrollCourseInPath godoc
// @Summary 在路径中选修下一门课程
// @Tags 学习路径
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "路径ID"
// @Param courseId path int true "课程ID"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 409 {object} util.Response "课程未解锁"
// @Router /api/portal/paths/{id}/courses/{courseId}/enroll [post]
func (c *LearningPathController) EnrollCourseInPath(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	courseID, ok := util.ParamID(ctx, "courseId")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.PathService.EnrollCourseInPath(ctx.Request.Context(), claims.UserID, id, courseID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// MyPaths godoc
// @Summary 我加入的学习路径
// @Tags 学习路径
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.PathEnrollment}
// @Router /api/portal/my-paths [get]
func (c *LearningPathController) MyPaths(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	list, err := c.PathService.MyPaths(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, list)
}
