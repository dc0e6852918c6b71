package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
	QuizAdmin   *service.QuizAdminService
}

func NewQuizController(quizService *service.QuizService, quizAdmin *service.QuizAdminService) *QuizController {
	return &QuizController{
		QuizService: quizService,
		QuizAdmin:   quizAdmin,
	}
}

// ---- 学员作答 ----

// Overview godoc
// @Summary 测验说明
// @Description 题目数量、剩余次数与历史作答
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.QuizOverview}
// @Router /api/portal/quizzes/{id} [get]
func (c *QuizController) Overview(ctx *gin.Context) {
	quizID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	out, err := c.QuizService.Overview(ctx.Request.Context(), claims.UserID, quizID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, out)
}

// StartAttempt godoc
// @Summary 开始作答
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 201 {object} util.Response{data=service.AttemptView}
// @Failure 403 {object} util.Response "未选修课程"
// @Failure 409 {object} util.Response "次数已用完或已有进行中的作答"
// @Router /api/portal/quizzes/{id}/attempts [post]
func (c *QuizController) StartAttempt(ctx *gin.Context) {
	quizID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	view, err := c.QuizService.Start(ctx.Request.Context(), claims.UserID, quizID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// GetAttempt godoc
// @Summary 作答详情
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=service.AttemptView}
// @Router /api/portal/attempts/{id} [get]
func (c *QuizController) GetAttempt(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	view, err := c.QuizService.GetAttempt(ctx.Request.Context(), claims.UserID, id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// AnswerQuestion godoc
// @Summary 保存答案
// @Description 同一道题重复提交会覆盖之前的答案
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Param questionId path int true "题目ID"
// @Param body body service.AnswerInput true "答案"
// @Success 200 {object} util.Response{data=service.AnswerView}
// @Router /api/portal/attempts/{id}/answers/{questionId} [put]
func (c *QuizController) AnswerQuestion(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	questionID, ok := util.ParamID(ctx, "questionId")
	if !ok {
		return
	}
	var in service.AnswerInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)
	view, err := c.QuizService.AnswerQuestion(ctx.Request.Context(), claims.UserID, id, questionID, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// SubmitAttempt godoc
// @Summary 交卷
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Router /api/portal/attempts/{id}/submit [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	if _, err := c.QuizService.Submit(ctx.Request.Context(), claims.UserID, id); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	// 交卷后按测验的展示设置返回结果
	res, err := c.QuizService.Result(ctx.Request.Context(), claims.UserID, id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// AttemptResult godoc
// @Summary 作答结果
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Failure 409 {object} util.Response "尚未交卷"
// @Router /api/portal/attempts/{id}/result [get]
func (c *QuizController) AttemptResult(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	res, err := c.QuizService.Result(ctx.Request.Context(), claims.UserID, id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// ---- 后台：测验与题目 ----

// CreateQuiz godoc
// @Summary 创建测验
// @Tags 测验管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body service.QuizInput true "测验设置"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Router /api/admin/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var in service.QuizInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.QuizAdmin.CreateQuiz(in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// ListQuizzes godoc
// @Summary 课程的测验列表
// @Tags 测验管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.Quiz}
// @Router /api/admin/courses/{id}/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	courseID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	quizzes, err := c.QuizAdmin.ListByCourse(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// GetQuiz godoc
// @Summary 测验详情（含答案）
// @Tags 测验管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Router /api/admin/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	quiz, err := c.QuizAdmin.GetQuiz(id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// UpdateQuiz godoc
// @Summary 修改测验设置
// @Tags 测验管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param body body service.QuizInput true "测验设置"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Router /api/admin/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.QuizInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.QuizAdmin.UpdateQuiz(id, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// DeleteQuiz godoc
// @Summary 删除测验
// @Description 已有作答记录的测验不能删除
// @Tags 测验管理
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.QuizAdmin.DeleteQuiz(id); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AddQuestion godoc
// @Summary 新增题目
// @Tags 测验管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param body body service.QuestionInput true "题目"
// @Success 201 {object} util.Response{data=model.Question}
// @Router /api/admin/quizzes/{id}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	quizID, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.QuestionInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.QuizAdmin.AddQuestion(quizID, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary 修改题目
// @Tags 测验管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Param body body service.QuestionInput true "题目"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/admin/questions/{id} [put]
func (c *QuizController) UpdateQuestion(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.QuestionInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.QuizAdmin.UpdateQuestion(id, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 测验管理
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/admin/questions/{id} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.QuizAdmin.DeleteQuestion(id); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ---- 后台：评分 ----

// PendingGrading godoc
// @Summary 待评分作答
// @Tags 评分
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId query int false "课程ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/grading [get]
func (c *QuizController) PendingGrading(ctx *gin.Context) {
	page, limit := util.Pagination(ctx)
	// 不传 courseId 时返回全部课程
	courseID := util.MustParseUint(ctx.Query("courseId"))
	attempts, total, err := c.QuizService.PendingGrading(courseID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: attempts, Total: total, Page: page, Limit: limit})
}

// GradingView godoc
// @Summary 评分视图
// @Tags 评分
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=service.GradingView}
// @Router /api/admin/grading/{id} [get]
func (c *QuizController) GradingView(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.QuizService.AttemptForGrading(ctx.Request.Context(), id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// GradeEssay godoc
// @Summary 问答题评分
// @Description 分数为 0-100 的百分比，每道题只能评一次。讲师只能评自己创建的课程
// @Tags 评分
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Param answerId path int true "答案ID"
// @Param body body service.GradeInput true "评分"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Failure 403 {object} util.Response "不是该课程的讲师"
// @Router /api/admin/grading/{id}/answers/{answerId} [post]
func (c *QuizController) GradeEssay(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	answerID, ok := util.ParamID(ctx, "answerId")
	if !ok {
		return
	}
	var in service.GradeInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)
	attempt, err := c.QuizService.GradeEssay(ctx.Request.Context(), claims.UserID, id, answerID, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// SuggestGrade godoc
// @Summary AI 评分建议
// @Description 仅返回建议，不写入评分
// @Tags 评分
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Param answerId path int true "答案ID"
// @Success 200 {object} util.Response{data=service.EssaySuggestion}
// @Failure 503 {object} util.Response "AI 助手不可用"
// @Router /api/admin/grading/{id}/answers/{answerId}/suggest [post]
func (c *QuizController) SuggestGrade(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	answerID, ok := util.ParamID(ctx, "answerId")
	if !ok {
		return
	}
	s, err := c.QuizService.SuggestEssayGrade(ctx.Request.Context(), id, answerID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, s)
}
