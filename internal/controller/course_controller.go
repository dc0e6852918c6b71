package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
	QuizAdmin     *service.QuizAdminService
}

func NewCourseController(courseService *service.CourseService, quizAdmin *service.QuizAdminService) *CourseController {
	return &CourseController{
		CourseService: courseService,
		QuizAdmin:     quizAdmin,
	}
}

type PublishRequest struct {
	Published bool `json:"published"`
}

// ---- 后台 ----

// CreateCourse godoc
// @Summary 创建课程
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body service.CourseInput true "课程信息"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 422 {object} util.Response
// @Router /api/admin/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var in service.CourseInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)
	course, err := c.CourseService.CreateCourse(claims.UserID, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// ListCourses godoc
// @Summary 课程列表（含草稿）
// @Tags 课程管理
// @Produce  json
// @Security ApiKeyAuth
// @Param keyword query string false "标题关键字"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, limit := util.Pagination(ctx)
	courses, total, err := c.CourseService.ListCourses(false, ctx.Query("keyword"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: courses, Total: total, Page: page, Limit: limit})
}

// GetCourse godoc
// @Summary 课程详情（章节与课时）
// @Tags 课程管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	course, err := c.CourseService.GetCourseTree(id, false)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// UpdateCourse godoc
// @Summary 修改课程
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Param body body service.CourseInput true "课程信息"
// @Success 200 {object} util.Response{data=model.Course}
// @Router /api/admin/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.CourseInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.CourseService.UpdateCourse(id, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// PublishCourse godoc
// @Summary 发布/撤回课程
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Param body body PublishRequest true "是否发布"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 422 {object} util.Response "没有课时的课程不能发布"
// @Router /api/admin/courses/{id}/publish [post]
func (c *CourseController) PublishCourse(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.CourseService.SetPublished(id, req.Published)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Tags 课程管理
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/admin/courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.CourseService.DeleteCourse(id); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CreateModule godoc
// @Summary 新增章节
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Param body body service.ModuleInput true "章节信息"
// @Success 201 {object} util.Response{data=model.Module}
// @Router /api/admin/courses/{id}/modules [post]
func (c *CourseController) CreateModule(ctx *gin.Context) {
	courseID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.ModuleInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	m, err := c.CourseService.CreateModule(courseID, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, m)
}

// UpdateModule godoc
// @Summary 修改章节
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "章节ID"
// @Param body body service.ModuleInput true "章节信息"
// @Success 200 {object} util.Response{data=model.Module}
// @Router /api/admin/modules/{id} [put]
func (c *CourseController) UpdateModule(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.ModuleInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	m, err := c.CourseService.UpdateModule(id, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, m)
}

// DeleteModule godoc
// @Summary 删除章节（连同课时）
// @Tags 课程管理
// @Security ApiKeyAuth
// @Param id path int true "章节ID"
// @Success 200 {object} util.Response
// @Router /api/admin/modules/{id} [delete]
func (c *CourseController) DeleteModule(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.CourseService.DeleteModule(id); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CreateLesson godoc
// @Summary 新增课时
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "章节ID"
// @Param body body service.LessonInput true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Router /api/admin/modules/{id}/lessons [post]
func (c *CourseController) CreateLesson(ctx *gin.Context) {
	moduleID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.LessonInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	lesson, err := c.CourseService.CreateLesson(moduleID, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// UpdateLesson godoc
// @Summary 修改课时
// @Tags 课程管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课时ID"
// @Param body body service.LessonInput true "课时信息"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Router /api/admin/lessons/{id} [put]
func (c *CourseController) UpdateLesson(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.LessonInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	lesson, err := c.CourseService.UpdateLesson(id, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// DeleteLesson godoc
// @Summary 删除课时
// @Tags 课程管理
// @Security ApiKeyAuth
// @Param id path int true "课时ID"
// @Success 200 {object} util.Response
// @Router /api/admin/lessons/{id} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.CourseService.DeleteLesson(id); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ---- 学员端 ----

// Catalog godoc
// @Summary 已发布课程
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param keyword query string false "标题关键字"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/portal/courses [get]
func (c *CourseController) Catalog(ctx *gin.Context) {
	page, limit := util.Pagination(ctx)
	courses, total, err := c.CourseService.ListCourses(true, ctx.Query("keyword"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: courses, Total: total, Page: page, Limit: limit})
}

// CourseQuizzes godoc
// @Summary 课程下的测验
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.Quiz}
// @Failure 404 {object} util.Response
// @Router /api/portal/courses/{id}/quizzes [get]
func (c *CourseController) CourseQuizzes(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if _, err := c.CourseService.GetCourseTree(id, true); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	quizzes, err := c.QuizAdmin.ListByCourse(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}
