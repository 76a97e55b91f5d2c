// internal/server/routes.go
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/observability"
)

type Handlers struct {
	Live    *LiveStreamHandler
	Videos  *VideoHandler
	DPPs    *DPPHandler
	Users   *UserHandler
	Webhook *WebhookHandler
}

type RouterOptions struct {
	Auth           Authenticator
	Metrics        *observability.Metrics
	MetricsHandler http.Handler
	Health         gin.HandlerFunc
}

func NewRouter(h Handlers, opts RouterOptions) *gin.Engine {
	RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware())
	router.Use(LoggingMiddleware())
	router.Use(MetricsMiddleware(opts.Metrics))

	if opts.Health != nil {
		router.GET("/health", opts.Health)
	}
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}
	router.POST("/webhooks/bunny", h.Webhook.Handle)

	api := router.Group("/api/v1")
	api.Use(AuthMiddleware(opts.Auth))
	{
		api.GET("/live", h.Live.ListPublished)
		api.GET("/live/:id/playback", h.Live.Playback)

		api.GET("/videos", h.Videos.ListPublished)
		api.GET("/videos/:id", h.Videos.GetPublished)
		api.POST("/videos/:id/progress", h.Videos.RecordProgress)

		api.GET("/dpps", h.DPPs.ListPublished)
		api.GET("/dpps/attempts", h.DPPs.ListAttempts)
		api.GET("/dpps/:id", h.DPPs.GetForAttempt)
		api.POST("/dpps/:id/attempts", h.DPPs.SubmitAttempt)

		api.GET("/streak", h.Users.Streak)
	}

	admin := api.Group("/admin")
	admin.Use(RequireRole(models.RoleAdmin))
	{
		admin.POST("/live", h.Live.Create)
		admin.GET("/live", h.Live.List)
		admin.GET("/live/:id", h.Live.Get)
		admin.PATCH("/live/:id", h.Live.Update)
		admin.DELETE("/live/:id", h.Live.Delete)
		admin.POST("/live/:id/start", h.Live.Start)
		admin.POST("/live/:id/end", h.Live.End)
		admin.POST("/live/:id/sync", h.Live.Sync)
		admin.POST("/live/:id/recording", h.Live.AttachRecording)
		admin.POST("/live/:id/thumbnail", h.Live.UploadThumbnail)

		admin.POST("/videos/uploads", h.Videos.CreateUpload)
		admin.GET("/videos", h.Videos.List)
		admin.PATCH("/videos/:id", h.Videos.Update)
		admin.DELETE("/videos/:id", h.Videos.Delete)
		admin.POST("/videos/:id/uploading", h.Videos.MarkUploading)
		admin.POST("/videos/:id/sync", h.Videos.Sync)

		admin.POST("/dpps", h.DPPs.Create)
		admin.GET("/dpps", h.DPPs.List)
		admin.GET("/dpps/:id", h.DPPs.Get)
		admin.PATCH("/dpps/:id", h.DPPs.Update)
		admin.DELETE("/dpps/:id", h.DPPs.Delete)

		admin.GET("/users", h.Users.List)
		admin.PATCH("/users/:id/role", h.Users.SetRole)
		admin.DELETE("/users/:id", h.Users.Delete)
	}

	return router
}
