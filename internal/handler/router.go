package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-api/internal/middleware"
)

// Handlers - набор обработчиков API. Live может быть nil.
type Handlers struct {
	Auth      *AuthHandler
	Quiz      *QuizHandler
	Questions *QuestionHandler
	Admin     *AdminHandler
	Live      *LiveHandler
}

// RouteOptions - middleware, общие для маршрутов. Limiter == nil отключает rate limiting.
type RouteOptions struct {
	Auth        *middleware.AuthMiddleware
	Limiter     *middleware.RateLimiter
	GlobalLimit middleware.RateLimitConfig
	AuthLimit   middleware.RateLimitConfig
}

func (o RouteOptions) limit(cfg middleware.RateLimitConfig) []gin.HandlerFunc {
	if o.Limiter == nil {
		return nil
	}
	return []gin.HandlerFunc{o.Limiter.Limit(cfg)}
}

// RegisterRoutes настраивает маршруты /api
func RegisterRoutes(router *gin.Engine, h Handlers, opts RouteOptions) {
	authMw := opts.Auth

	api := router.Group("/api")
	api.Use(opts.limit(opts.GlobalLimit)...)
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			public := authGroup.Group("")
			public.Use(opts.limit(opts.AuthLimit)...)
			{
				public.POST("/register", h.Auth.Register)
				public.POST("/login", h.Auth.Login)
				public.POST("/google", h.Auth.GoogleLogin)
				public.POST("/refresh", h.Auth.Refresh)
			}

			authed := authGroup.Group("")
			authed.Use(authMw.RequireAuth())
			{
				authed.GET("/me", h.Auth.Me)
				authed.PUT("/profile", h.Auth.UpdateProfile)
				authed.PATCH("/profile", h.Auth.UpdateProfile)
				authed.POST("/change-password", h.Auth.ChangePassword)
				authed.POST("/logout", h.Auth.Logout)
			}
		}

		// Викторина
		api.GET("/questions", h.Quiz.GetQuestions)
		api.GET("/quiz/config", h.Quiz.GetConfig)
		api.POST("/submit", authMw.OptionalAuth(), h.Quiz.Submit)
		api.POST("/submit-authenticated", authMw.RequireAuth(), h.Quiz.Submit)
		api.GET("/quiz-history", authMw.RequireAuth(), h.Quiz.History)

		// Лента проверяет токен сама: он приходит в query
		if h.Live != nil {
			api.GET("/admin/live", h.Live.Connect)
		}

		admin := api.Group("/admin")
		admin.Use(authMw.RequireAuth(), authMw.AdminOnly())
		{
			questions := admin.Group("/questions")
			{
				questions.GET("", h.Questions.List)
				questions.POST("", h.Questions.Create)
				questions.POST("/upload-pdf", h.Questions.UploadPDF)
				questions.POST("/upload-xlsx", h.Questions.UploadXLSX)

				withID := questions.Group("/:id")
				withID.Use(middleware.ExtractUintParam("id", QuestionIDKey))
				{
					withID.GET("", h.Questions.Get)
					withID.PUT("", h.Questions.Update)
					withID.DELETE("", h.Questions.Delete)
				}
			}

			users := admin.Group("/users")
			{
				users.GET("", h.Admin.ListUsers)

				withID := users.Group("/:id")
				withID.Use(middleware.ExtractStringParam("id", AccountIDKey, 36))
				{
					withID.GET("", h.Admin.GetUser)
					withID.PUT("", h.Admin.UpdateUser)
					withID.DELETE("", h.Admin.DeleteUser)
				}
			}

			admin.GET("/stats", h.Admin.Stats)
			admin.GET("/attempts", h.Admin.ListAttempts)
			admin.GET("/attempts/export", h.Admin.ExportAttempts)

			admin.GET("/settings", h.Admin.GetSettings)
			admin.PUT("/settings/:key", middleware.ExtractStringParam("key", SettingKeyKey, 100), h.Admin.UpdateSetting)
		}
	}
}
