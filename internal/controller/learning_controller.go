package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// LearningController 选课与学习进度
type LearningController struct {
	ProgressService *service.ProgressService
}

func NewLearningController(progressService *service.ProgressService) *LearningController {
	return &LearningController{ProgressService: progressService}
}

// EnrollCourse godoc
// @Summary 选修课程
// @Description 课程属于已加入的学习路径且尚未解锁时返回 409
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 409 {object} util.Response "课程未解锁"
// @Router /api/portal/courses/{id}/enroll [post]
func (c *LearningController) EnrollCourse(ctx *gin.Context) {
	courseID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.ProgressService.EnrollCourse(ctx.Request.Context(), claims.UserID, courseID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// DropCourse godoc
// @Summary 退选课程
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Router /api/portal/courses/{id}/drop [post]
func (c *LearningController) DropCourse(ctx *gin.Context) {
	courseID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.ProgressService.Drop(ctx.Request.Context(), claims.UserID, courseID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// CourseProgress godoc
// @Summary 课程内容与我的进度
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseProgress}
// @Router /api/portal/courses/{id} [get]
func (c *LearningController) CourseProgress(ctx *gin.Context) {
	courseID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	out, err := c.ProgressService.CourseProgress(claims.UserID, courseID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, out)
}

// RecomputeProgress godoc
// @Summary 重新计算课程进度
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Router /api/portal/courses/{id}/recompute [post]
func (c *LearningController) RecomputeProgress(ctx *gin.Context) {
	courseID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.ProgressService.Recompute(ctx.Request.Context(), claims.UserID, courseID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// CompleteLesson godoc
// @Summary 完成课时
// @Description 重复完成同一课时不会重复计分
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课时ID"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 403 {object} util.Response "未选修课程"
// @Router /api/portal/lessons/{id}/complete [post]
func (c *LearningController) CompleteLesson(ctx *gin.Context) {
	lessonID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.ProgressService.CompleteLesson(ctx.Request.Context(), claims.UserID, lessonID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// MyEnrollments godoc
// @Summary 我的课程
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Router /api/portal/enrollments [get]
func (c *LearningController) MyEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	list, err := c.ProgressService.MyEnrollments(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// CourseEnrollments godoc
// @Summary 课程学员进度
// @Tags 课程管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/courses/{id}/enrollments [get]
func (c *LearningController) CourseEnrollments(ctx *gin.Context) {
	courseID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	list, total, err := c.ProgressService.CourseEnrollments(courseID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: page, Limit: limit})
}
