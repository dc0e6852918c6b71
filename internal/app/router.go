package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 学员端，所有登录用户可用
	portal := router.Group("/api/portal")
	portal.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	a.registerPortalRoutes(portal, c)

	// 3. 后台：讲师负责课程内容与评分，管理员另有账号、证书与系统设置
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	a.registerAuthoringRoutes(admin.Group("", middleware.RoleMiddleware(model.Instructor)), c)
	a.registerAdminRoutes(admin.Group("", middleware.RoleMiddleware(model.Admin)), c)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api/public")
	{
		public.POST("/login", c.auth.Login)
		public.GET("/certificates/:number", c.achievement.VerifyCertificate)
	}
}

func (a *App) registerPortalRoutes(portal *gin.RouterGroup, c *controllers) {
	portal.GET("/me", c.auth.Me)

	// 课程与进度
	portal.GET("/courses", c.course.Catalog)
	portal.GET("/courses/:id", c.learning.CourseProgress)
	portal.GET("/courses/:id/quizzes", c.course.CourseQuizzes)
	portal.POST("/courses/:id/enroll", c.learning.EnrollCourse)
	portal.POST("/courses/:id/drop", c.learning.DropCourse)
	portal.POST("/courses/:id/recompute", c.learning.RecomputeProgress)
	portal.POST("/lessons/:id/complete", c.learning.CompleteLesson)
	portal.GET("/enrollments", c.learning.MyEnrollments)

	// 学习路径
	portal.GET("/paths", c.learningPath.PublishedPaths)
	portal.GET("/paths/:id", c.learningPath.PathProgress)
	portal.POST("/paths/:id/enroll", c.learningPath.EnrollPath)
	portal.POST("/paths/:id/courses/:courseId/enroll", c.learningPath.EnrollCourseInPath)
	portal.GET("/my-paths", c.learningPath.MyPaths)

	// 测验作答
	portal.GET("/quizzes/:id", c.quiz.Overview)
	portal.POST("/quizzes/:id/attempts", c.quiz.StartAttempt)
	portal.GET("/attempts/:id", c.quiz.GetAttempt)
	portal.PUT("/attempts/:id/answers/:questionId", c.quiz.AnswerQuestion)
	portal.POST("/attempts/:id/submit", c.quiz.SubmitAttempt)
	portal.GET("/attempts/:id/result", c.quiz.AttemptResult)

	// 证书、积分
	portal.GET("/certificates", c.achievement.MyCertificates)
	portal.GET("/points", c.achievement.MyPoints)
	portal.GET("/leaderboard", c.achievement.Leaderboard)

	// 通知
	portal.GET("/notifications", c.notification.ListNotifications)
	portal.GET("/notifications/unread-count", c.notification.UnreadCount)
	portal.POST("/notifications/:id/read", c.notification.MarkRead)
	portal.POST("/notifications/read-all", c.notification.MarkAllRead)

	// 线下活动
	portal.GET("/events", c.event.UpcomingEvents)
	portal.POST("/events/:id/register", c.event.RegisterEvent)
	portal.POST("/events/:id/cancel", c.event.CancelRegistration)
	portal.GET("/my-events", c.event.MyRegistrations)
}

func (a *App) registerAuthoringRoutes(g *gin.RouterGroup, c *controllers) {
	// 课程结构
	g.GET("/courses", c.course.ListCourses)
	g.POST("/courses", c.course.CreateCourse)
	g.GET("/courses/:id", c.course.GetCourse)
	g.PUT("/courses/:id", c.course.UpdateCourse)
	g.DELETE("/courses/:id", c.course.DeleteCourse)
	g.POST("/courses/:id/publish", c.course.PublishCourse)
	g.GET("/courses/:id/enrollments", c.learning.CourseEnrollments)
	g.GET("/courses/:id/quizzes", c.quiz.ListQuizzes)
	g.POST("/courses/:id/modules", c.course.CreateModule)
	g.PUT("/modules/:id", c.course.UpdateModule)
	g.DELETE("/modules/:id", c.course.DeleteModule)
	g.POST("/modules/:id/lessons", c.course.CreateLesson)
	g.PUT("/lessons/:id", c.course.UpdateLesson)
	g.DELETE("/lessons/:id", c.course.DeleteLesson)

	// 上传
	g.POST("/uploads/presign", c.content.PresignUpload)
	g.PUT("/uploads/direct", c.content.UploadDirect)
	g.POST("/uploads/thumbnail", c.content.UploadThumbnail)
	g.POST("/lessons/:id/video", c.content.UploadLessonVideo)
	g.POST("/lessons/:id/file", c.content.UploadLessonFile)

	// 测验与题目
	g.POST("/quizzes", c.quiz.CreateQuiz)
	g.GET("/quizzes/:id", c.quiz.GetQuiz)
	g.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
	g.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)
	g.POST("/quizzes/:id/questions", c.quiz.AddQuestion)
	g.PUT("/questions/:id", c.quiz.UpdateQuestion)
	g.DELETE("/questions/:id", c.quiz.DeleteQuestion)

	// 评分
	g.GET("/grading", c.quiz.PendingGrading)
	g.GET("/grading/:id", c.quiz.GradingView)
	g.POST("/grading/:id/answers/:answerId", c.quiz.GradeEssay)
	g.POST("/grading/:id/answers/:answerId/suggest", c.quiz.SuggestGrade)

	// 学习路径
	g.GET("/paths", c.learningPath.ListPaths)
	g.POST("/paths", c.learningPath.CreatePath)
	g.GET("/paths/:id", c.learningPath.GetPath)
	g.PUT("/paths/:id", c.learningPath.UpdatePath)
	g.DELETE("/paths/:id", c.learningPath.DeletePath)
	g.POST("/paths/:id/publish", c.learningPath.PublishPath)

	// AI 草稿
	g.POST("/ai/content-drafts", c.ai.DraftContent)
	g.POST("/ai/question-drafts", c.ai.DraftQuestions)
	g.GET("/ai/drafts", c.ai.ListDrafts)
	g.GET("/ai/drafts/:id", c.ai.GetDraft)
	g.POST("/ai/drafts/:id/import", c.ai.ImportDraft)

	// 线下活动
	g.GET("/events", c.event.ListEvents)
	g.POST("/events", c.event.CreateEvent)
	g.PUT("/events/:id", c.event.UpdateEvent)
	g.DELETE("/events/:id", c.event.DeleteEvent)
	g.POST("/events/:id/publish", c.event.PublishEvent)
	g.GET("/events/:id/registrations", c.event.EventRegistrations)
}

func (a *App) registerAdminRoutes(g *gin.RouterGroup, c *controllers) {
	// 账号
	g.GET("/users", c.user.ListUsers)
	g.POST("/users", c.user.CreateUser)
	g.GET("/users/:id", c.user.GetUser)
	g.PUT("/users/:id", c.user.UpdateUser)
	g.POST("/users/:id/reset-password", c.user.ResetPassword)

	// 证书
	g.GET("/certificates", c.achievement.ListCertificates)
	g.POST("/certificates/:id/revoke", c.achievement.RevokeCertificate)
	g.POST("/certificates/:id/restore", c.achievement.RestoreCertificate)
	g.POST("/leaderboard/rebuild", c.achievement.RebuildLeaderboard)

	// 系统设置
	g.GET("/settings", c.settings.ListSettings)
	g.PUT("/settings/:key", c.settings.UpdateSetting)
	g.DELETE("/settings/:key", c.settings.ResetSetting)
}
