package controller

import (
	"strconv"

	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AchievementController 证书与积分
type AchievementController struct {
	CertificateService *service.CertificateService
	PointService       *service.PointService
}

func NewAchievementController(certService *service.CertificateService, pointService *service.PointService) *AchievementController {
	return &AchievementController{
		CertificateService: certService,
		PointService:       pointService,
	}
}

// MyCertificates godoc
// @Summary 我的证书
// @Tags 成就
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Certificate}
// @Router /api/portal/certificates [get]
func (c *AchievementController) MyCertificates(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	certs, err := c.CertificateService.ListMine(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// VerifyCertificate godoc
// @Summary 校验证书编号
// @Tags 成就
// @Produce  json
// @Param number path string true "证书编号"
// @Success 200 {object} util.Response{data=service.CertificateVerification}
// @Failure 404 {object} util.Response
// @Router /api/public/certificates/{number} [get]
func (c *AchievementController) VerifyCertificate(ctx *gin.Context) {
	v, err := c.CertificateService.Verify(ctx.Param("number"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// ListCertificates godoc
// @Summary 证书列表
// @Tags 证书管理
// @Produce  json
// @Security ApiKeyAuth
// @Param type query string false "course/path"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/certificates [get]
func (c *AchievementController) ListCertificates(ctx *gin.Context) {
	page, limit := util.Pagination(ctx)
	certs, total, err := c.CertificateService.List(model.CertificateType(ctx.Query("type")), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: certs, Total: total, Page: page, Limit: limit})
}

type RevokeRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// RevokeCertificate godoc
// @Summary 吊销证书
// @Tags 证书管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "证书ID"
// @Param body body RevokeRequest false "吊销原因"
// @Success 200 {object} util.Response{data=model.Certificate}
// @Router /api/admin/certificates/{id}/revoke [post]
func (c *AchievementController) RevokeCertificate(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req RevokeRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	cert, err := c.CertificateService.Revoke(ctx.Request.Context(), id, req.Reason)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, cert)
}

// RestoreCertificate godoc
// @Summary 恢复证书
// @Tags 证书管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "证书ID"
// @Success 200 {object} util.Response{data=model.Certificate}
// @Router /api/admin/certificates/{id}/restore [post]
func (c *AchievementController) RestoreCertificate(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	cert, err := c.CertificateService.Restore(ctx.Request.Context(), id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, cert)
}

// MyPoints godoc
// @Summary 积分余额与流水
// @Tags 成就
// @Produce  json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=object}
// @Router /api/portal/points [get]
func (c *AchievementController) MyPoints(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, limit := util.Pagination(ctx)
	balance, err := c.PointService.Balance(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	history, total, err := c.PointService.History(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"balance": balance,
		"history": util.PageResponse{List: history, Total: total, Page: page, Limit: limit},
	})
}

// Leaderboard godoc
// @Summary 积分排行榜
// @Tags 成就
// @Produce  json
// @Security ApiKeyAuth
// @Param limit query int false "前 N 名，默认 10，最多 100"
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /api/portal/leaderboard [get]
func (c *AchievementController) Leaderboard(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	entries, err := c.PointService.Leaderboard(ctx.Request.Context(), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// RebuildLeaderboard godoc
// @Summary 重建排行榜缓存
// @Tags 证书管理
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/admin/leaderboard/rebuild [post]
func (c *AchievementController) RebuildLeaderboard(ctx *gin.Context) {
	if err := c.PointService.RebuildLeaderboard(ctx.Request.Context()); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
