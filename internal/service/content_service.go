package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/imagex"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/mediainfo"

	"go.uber.org/zap"
)

// 上传目录
const (
	FolderThumbnails = "thumbnails"
	FolderVideos     = "videos"
	FolderPosters    = "posters"
	FolderFiles      = "files"
)

var allowedFileExtensions = []string{".pdf", ".zip", ".ppt", ".pptx", ".doc", ".docx", ".txt"}

// ContentService 处理封面、课时视频和附件上传
type ContentService struct {
	CourseRepo     *repository.CourseRepository
	StorageService *StorageService
	Cfg            *config.Config
}

func NewContentService(courseRepo *repository.CourseRepository, storageService *StorageService, cfg *config.Config) *ContentService {
	return &ContentService{
		CourseRepo:     courseRepo,
		StorageService: storageService,
		Cfg:            cfg,
	}
}

func hasExt(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range allowed {
		if ext == e {
			return true
		}
	}
	return false
}

type PresignInput struct {
	Kind        string `json:"kind" validate:"required,oneof=thumbnail video file"`
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
}

// PresignUpload 大文件由客户端直传对象存储，完成后再把 publicUrl 写回课时
func (s *ContentService) PresignUpload(ctx context.Context, in PresignInput) (*PresignedUpload, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	var folder string
	var exts []string
	switch in.Kind {
	case "thumbnail":
		folder, exts = FolderThumbnails, util.AllowedImageExtensions
	case "video":
		folder, exts = FolderVideos, util.AllowedVideoExtensions
	default:
		folder, exts = FolderFiles, allowedFileExtensions
	}
	if !hasExt(in.Filename, exts) {
		return nil, util.NewValidationError("filename", "unsupported file extension")
	}
	return s.StorageService.Presign(ctx, folder, in.Filename, in.ContentType)
}

// UploadDirect 本地存储时承接预签名地址的 PUT 请求
func (s *ContentService) UploadDirect(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if _, ok := s.StorageService.Provider.(*LocalStorageProvider); !ok {
		return "", util.ErrForbidden
	}
	folder := strings.SplitN(key, "/", 2)[0]
	switch folder {
	case FolderThumbnails, FolderVideos, FolderFiles:
	default:
		return "", util.NewValidationError("key", "unknown upload folder")
	}
	limit := int64(util.MaxVideoBytes)
	if folder != FolderVideos {
		limit = util.MaxFileBytes
	}
	if size > limit {
		return "", util.NewValidationError("file", "file too large")
	}
	return s.StorageService.Upload(ctx, key, io.LimitReader(r, limit), size, contentType)
}

// UploadThumbnail 封面统一缩放并转成 WebP
func (s *ContentService) UploadThumbnail(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if !hasExt(file.Filename, util.AllowedImageExtensions) {
		return "", util.NewValidationError("file", "仅支持 jpg/png/gif/webp 图片")
	}
	if file.Size > util.MaxImageBytes {
		return "", util.NewValidationError("file", "图片不能超过10MB")
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if _, err := util.SniffContent(src, util.MimeImage); err != nil {
		return "", util.NewValidationError("file", "非法的文件内容，仅允许图片格式")
	}

	data, err := imagex.ToWebP(src, imagex.Options{MaxSize: s.Cfg.Storage.ThumbnailMaxSize})
	if err != nil {
		return "", util.NewValidationError("file", err.Error())
	}
	key := ObjectKey(FolderThumbnails, strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))+".webp")
	return s.StorageService.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), imagex.ContentType)
}

func (s *ContentService) getLesson(id uint) (*model.Lesson, error) {
	lesson, err := s.CourseRepo.FindLesson(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}
	return lesson, nil
}

func (s *ContentService) tempDir() (string, error) {
	dir := filepath.Join(s.Cfg.Storage.LocalPath, "temp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// UploadLessonVideo 保存视频并用 ffprobe 读取时长，截一帧作为封面
func (s *ContentService) UploadLessonVideo(ctx context.Context, lessonID uint, file *multipart.FileHeader) (*model.Lesson, error) {
	lesson, err := s.getLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if !hasExt(file.Filename, util.AllowedVideoExtensions) {
		return nil, util.NewValidationError("file", "不支持的视频格式")
	}
	if file.Size > util.MaxVideoBytes {
		return nil, util.NewValidationError("file", "视频过大")
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if _, err := util.SniffContent(src, util.MimeVideo); err != nil {
		return nil, util.NewValidationError("file", "非法的文件内容，仅允许视频格式")
	}

	// 临时保存到本地进行处理
	dir, err := s.tempDir()
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	videoPath := filepath.Join(dir, fmt.Sprintf("lesson_%d_%d%s", lessonID, time.Now().UnixNano(), ext))
	defer os.Remove(videoPath)

	dst, err := os.Create(videoPath)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return nil, err
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	info, err := mediainfo.Probe(videoPath)
	if err != nil {
		logger.Log.Warn("probe lesson video failed", zap.Uint("lesson_id", lessonID), zap.Error(err))
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = util.MimeOctetStream
	}
	videoURL, err := s.StorageService.UploadFile(ctx, ObjectKey(FolderVideos, file.Filename), videoPath, contentType)
	if err != nil {
		return nil, err
	}

	lesson.ContentType = model.LessonVideo
	lesson.MediaURL = videoURL
	if info != nil {
		lesson.DurationMinutes = info.Minutes()
		if poster, err := s.uploadPoster(ctx, videoPath, info.PosterOffset()); err != nil {
			logger.Log.Warn("生成视频封面失败", zap.Uint("lesson_id", lessonID), zap.Error(err))
		} else {
			lesson.PosterURL = poster
		}
	}
	if err := s.CourseRepo.UpdateLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *ContentService) uploadPoster(ctx context.Context, videoPath string, offset float64) (string, error) {
	framePath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + "_poster.jpg"
	defer os.Remove(framePath)
	if err := mediainfo.Snapshot(videoPath, framePath, offset); err != nil {
		return "", err
	}
	frame, err := os.Open(framePath)
	if err != nil {
		return "", err
	}
	defer frame.Close()

	data, err := imagex.ToWebP(frame, imagex.Options{MaxSize: s.Cfg.Storage.ThumbnailMaxSize})
	if err != nil {
		return "", err
	}
	return s.StorageService.Upload(ctx, ObjectKey(FolderPosters, "poster.webp"), bytes.NewReader(data), int64(len(data)), imagex.ContentType)
}

// UploadLessonFile 课时附件（讲义、代码包等）
func (s *ContentService) UploadLessonFile(ctx context.Context, lessonID uint, file *multipart.FileHeader) (*model.Lesson, error) {
	lesson, err := s.getLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if !hasExt(file.Filename, allowedFileExtensions) {
		return nil, util.NewValidationError("file", "不支持的文件格式")
	}
	if file.Size > util.MaxFileBytes {
		return nil, util.NewValidationError("file", "文件不能超过100MB")
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = util.MimeOctetStream
	}
	url, err := s.StorageService.Upload(ctx, ObjectKey(FolderFiles, file.Filename), src, file.Size, contentType)
	if err != nil {
		return nil, err
	}
	lesson.ContentType = model.LessonFile
	lesson.MediaURL = url
	if err := s.CourseRepo.UpdateLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}
