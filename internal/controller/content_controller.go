package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

// PresignUpload godoc
// @Summary 获取直传地址
// @Description 视频等大文件由客户端直传对象存储，上传完成后把 publicUrl 写回课时
// @Tags 内容上传
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body service.PresignInput true "文件信息"
// @Success 200 {object} util.Response{data=service.PresignedUpload}
// @Router /api/admin/uploads/presign [post]
func (c *ContentController) PresignUpload(ctx *gin.Context) {
	var in service.PresignInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	out, err := c.ContentService.PresignUpload(ctx.Request.Context(), in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, out)
}

// UploadDirect 本地存储模式下直传地址的落点
// @Summary 本地存储直传
// @Tags 内容上传
// @Accept  octet-stream
// @Produce  json
// @Security ApiKeyAuth
// @Param key query string true "对象键"
// @Success 200 {object} util.Response
// @Router /api/admin/uploads/direct [put]
func (c *ContentController) UploadDirect(ctx *gin.Context) {
	key := ctx.Query("key")
	if key == "" {
		util.BadRequest(ctx, "缺少 key")
		return
	}
	url, err := c.ContentService.UploadDirect(ctx.Request.Context(), key, ctx.Request.Body,
		ctx.Request.ContentLength, ctx.ContentType())
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

// UploadThumbnail godoc
// @Summary 上传课程封面
// @Description 统一缩放并转为 WebP
// @Tags 内容上传
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param file formData file true "图片"
// @Success 200 {object} util.Response
// @Router /api/admin/uploads/thumbnail [post]
func (c *ContentController) UploadThumbnail(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "请选择要上传的图片")
		return
	}
	url, err := c.ContentService.UploadThumbnail(ctx.Request.Context(), file)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

// UploadLessonVideo godoc
// @Summary 上传课时视频
// @Description 自动读取时长并截取封面
// @Tags 内容上传
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课时ID"
// @Param file formData file true "视频"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Router /api/admin/lessons/{id}/video [post]
func (c *ContentController) UploadLessonVideo(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "请选择要上传的视频")
		return
	}
	lesson, err := c.ContentService.UploadLessonVideo(ctx.Request.Context(), id, file)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// UploadLessonFile godoc
// @Summary 上传课时附件
// @Tags 内容上传
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param id path int true "课时ID"
// @Param file formData file true "附件"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Router /api/admin/lessons/{id}/file [post]
func (c *ContentController) UploadLessonFile(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "请选择要上传的文件")
		return
	}
	lesson, err := c.ContentService.UploadLessonFile(ctx.Request.Context(), id, file)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}
