package controller

import (
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AIController 内容与题目草稿，导入前由讲师审阅
type AIController struct {
	AIService *service.AIService
}

func NewAIController(aiService *service.AIService) *AIController {
	return &AIController{AIService: aiService}
}

// DraftContent godoc
// @Summary 生成课时内容草稿
// @Tags AI 助手
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body service.DraftContentInput true "主题"
// @Success 201 {object} util.Response{data=model.AIDraft}
// @Failure 503 {object} util.Response "AI 助手不可用"
// @Router /api/admin/ai/content-drafts [post]
func (c *AIController) DraftContent(ctx *gin.Context) {
	var in service.DraftContentInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)
	draft, err := c.AIService.DraftContent(ctx.Request.Context(), claims.UserID, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, draft)
}

// DraftQuestions godoc
// @Summary 生成题目草稿
// @Tags AI 助手
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body service.DraftQuestionsInput true "主题与数量"
// @Success 201 {object} util.Response{data=model.AIDraft}
// @Failure 503 {object} util.Response "AI 助手不可用"
// @Router /api/admin/ai/question-drafts [post]
func (c *AIController) DraftQuestions(ctx *gin.Context) {
	var in service.DraftQuestionsInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)
	draft, err := c.AIService.DraftQuestions(ctx.Request.Context(), claims.UserID, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, draft)
}

// ListDrafts godoc
// @Summary 草稿列表
// @Tags AI 助手
// @Produce  json
// @Security ApiKeyAuth
// @Param kind query string false "content/questions"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/ai/drafts [get]
func (c *AIController) ListDrafts(ctx *gin.Context) {
	page, limit := util.Pagination(ctx)
	drafts, total, err := c.AIService.ListDrafts(model.AIDraftKind(ctx.Query("kind")), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: drafts, Total: total, Page: page, Limit: limit})
}

// GetDraft godoc
// @Summary 草稿详情
// @Tags AI 助手
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "草稿ID"
// @Success 200 {object} util.Response{data=model.AIDraft}
// @Router /api/admin/ai/drafts/{id} [get]
func (c *AIController) GetDraft(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	draft, err := c.AIService.GetDraft(id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

type ImportDraftRequest struct {
	QuizID uint `json:"quizId" binding:"required"`
}

// ImportDraft godoc
// @Summary 导入题目草稿到测验
// @Description 每份草稿只能导入一次；测验已有作答时不能导入
// @Tags AI 助手
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "草稿ID"
// @Param body body ImportDraftRequest true "目标测验"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Failure 409 {object} util.Response
// @Router /api/admin/ai/drafts/{id}/import [post]
func (c *AIController) ImportDraft(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req ImportDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	questions, err := c.AIService.ImportDraft(ctx.Request.Context(), id, req.QuizID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}
