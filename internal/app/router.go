package app

import (
	"edulearn_backend/docs"
	"edulearn_backend/internal/config"
	"edulearn_backend/internal/middleware"
	"edulearn_backend/internal/model"
	"edulearn_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		auth := public.Group("/auth")
		{
			auth.POST("/signup", c.auth.Signup)
			auth.POST("/login", c.auth.Login)
			auth.POST("/refresh", c.auth.Refresh)
		}

		// 课程目录允许游客浏览
		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:id", middleware.TryAuthMiddleware(cfg), c.course.GetCourse)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/auth/me", c.auth.Me)

		users := authGroup.Group("/users")
		{
			users.GET("/profile", c.user.GetProfile)
			users.PUT("/profile", c.user.UpdateProfile)
			users.POST("/avatar", c.user.UploadAvatar)
			users.POST("/change-password", c.user.ChangePassword)
		}

		courses := authGroup.Group("/courses")
		{
			courses.POST("/:id/enroll", c.course.Enroll)
			courses.GET("/:id/progress", c.course.GetProgress)
			courses.POST("/:id/lessons/:lessonId/complete", c.course.CompleteLesson)

			// 课程与课时管理：讲师或管理员
			manage := courses.Group("")
			manage.Use(middleware.RoleMiddleware(model.Instructor, model.Admin))
			{
				manage.POST("", c.course.CreateCourse)
				manage.PUT("/:id", c.course.UpdateCourse)
				manage.DELETE("/:id", c.course.DeleteCourse)
				manage.POST("/:id/lessons", c.course.CreateLesson)
				manage.PUT("/:id/lessons/:lessonId", c.course.UpdateLesson)
				manage.DELETE("/:id/lessons/:lessonId", c.course.DeleteLesson)
			}
		}

		quiz := authGroup.Group("/quiz")
		{
			quiz.POST("/generate", c.quiz.Generate)
			quiz.GET("/history", c.quiz.History)
			quiz.GET("/statistics", c.quiz.Statistics)
			quiz.GET("/:id", c.quiz.GetQuiz)
			quiz.DELETE("/:id", middleware.RoleMiddleware(model.Instructor, model.Admin), c.quiz.Delete)
			quiz.POST("/:id/submit", c.quiz.Submit)
			quiz.GET("/:id/questions", c.quiz.GetQuestions)
			quiz.POST("/:id/questions/:questionId/answer", c.quiz.CheckAnswer)
			quiz.GET("/:id/questions/:questionId/reveal", c.quiz.RevealAnswer)
			quiz.GET("/:id/attempts", c.quiz.ListAttempts)
			quiz.GET("/:id/attempts/:attemptId", c.quiz.GetAttempt)
		}

		dashboard := authGroup.Group("/dashboard")
		{
			dashboard.GET("/metrics", c.dashboard.Metrics)
			dashboard.GET("/courses", c.dashboard.Courses)
			dashboard.GET("/quizzes", c.dashboard.Quizzes)
			dashboard.GET("/progress", c.dashboard.Progress)
		}

		lessons := authGroup.Group("/lessons")
		{
			lessons.GET("/completed", c.lesson.CompletedList)
			lessons.GET("/completed/summary", c.lesson.CompletedSummary)
		}
	}
}
