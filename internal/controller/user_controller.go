package controller

import (
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// CreateUser godoc
// @Summary 创建用户
// @Description 系统不开放注册，由管理员创建账号
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateUserInput true "用户信息"
// @Success 201 {object} util.Response{data=model.User}
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Failure 422 {object} util.Response "参数校验失败"
// @Router /api/admin/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var in service.CreateUserInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.CreateUser(in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, user)
}

// ListUsers godoc
// @Summary 用户列表
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param role query string false "角色 learner/instructor/admin"
// @Param keyword query string false "姓名或邮箱"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	page, limit := util.Pagination(ctx)
	users, total, err := c.UserService.GetUsers(model.UserRole(ctx.Query("role")), ctx.Query("keyword"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: users, Total: total, Page: page, Limit: limit})
}

// GetUser godoc
// @Summary 用户详情
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	user, err := c.UserService.GetUserByID(id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateUser godoc
// @Summary 修改用户
// @Description 修改姓名、角色或停用账号
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "用户ID"
// @Param body body service.UpdateUserInput true "用户信息"
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/admin/users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var in service.UpdateUserInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	// 不能停用或降级自己，避免后台失去最后一个管理员
	if claims := util.GetUserFromContext(ctx); claims != nil && claims.UserID == id && (in.Disabled || in.Role != model.Admin) {
		util.Error(ctx, 400, "不能停用或降级当前登录的管理员")
		return
	}
	user, err := c.UserService.UpdateUser(id, in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// ResetPassword godoc
// @Summary 重置密码
// @Description 生成一次性临时密码，只在本次响应中返回
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/users/{id}/reset-password [post]
func (c *UserController) ResetPassword(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	temp, err := c.UserService.ResetPassword(id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"temporaryPassword": temp})
}
