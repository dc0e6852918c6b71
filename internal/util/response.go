package util

import (
	"errors"
	"net/http"

	"lms_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err))
	InternalServerError(c)
}

// HandleServiceError 将服务层错误映射为 HTTP 响应
func HandleServiceError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, Response{
			Code:    http.StatusUnprocessableEntity,
			Message: "validation failed",
			Data:    verr.Fields,
		})
	case IsNotFound(err):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotEnrolled):
		Error(c, http.StatusForbidden, err.Error())
	case isConflict(err):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrAIUnavailable):
		logger.Log.Warn("AI assistant call failed", zap.String("path", c.FullPath()), zap.Error(err))
		Error(c, http.StatusServiceUnavailable, ErrAIUnavailable.Error())
	default:
		LogInternalError(c, err)
	}
}
