package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	Settings *service.SettingsResolver
}

func NewSettingsController(settings *service.SettingsResolver) *SettingsController {
	return &SettingsController{Settings: settings}
}

// ListSettings godoc
// @Summary 系统设置
// @Description source 表示当前值来自数据库、配置文件或未设置；密钥只显示末四位
// @Tags 系统设置
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.SettingView}
// @Router /api/admin/settings [get]
func (c *SettingsController) ListSettings(ctx *gin.Context) {
	views, err := c.Settings.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

type SettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// UpdateSetting godoc
// @Summary 修改设置
// @Description 数据库中的值优先于配置文件
// @Tags 系统设置
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param key path string true "设置项"
// @Param body body SettingRequest true "新值"
// @Success 200 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/admin/settings/{key} [put]
func (c *SettingsController) UpdateSetting(ctx *gin.Context) {
	var req SettingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.Settings.Set(ctx.Param("key"), req.Value); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ResetSetting godoc
// @Summary 恢复为配置文件的值
// @Tags 系统设置
// @Security ApiKeyAuth
// @Param key path string true "设置项"
// @Success 200 {object} util.Response
// @Router /api/admin/settings/{key} [delete]
func (c *SettingsController) ResetSetting(ctx *gin.Context) {
	if err := c.Settings.Reset(ctx.Param("key")); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
