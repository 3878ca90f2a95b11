package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink-api/internal/middleware"
	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/service"
)

// Handlers bundles the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Discussions *DiscussionHandler
	Events      *EventHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes mounts all API routes under the given prefix.
//
// Reads on discussions and the image download are public; posting, liking,
// reporting, and attendance require a verified account; moderation and the
// approval queue are admin only.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	admin := string(models.RoleAdmin)

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.GET("/verify-email", h.Auth.VerifyEmail)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)

		authGroup.POST("/logout", middleware.JWT(auth), h.Auth.Logout)
		authGroup.POST("/change-password", middleware.JWT(auth), h.Auth.ChangePassword)
		authGroup.GET("/me", middleware.JWT(auth), h.Auth.Me)
	}

	users := api.Group("/users", middleware.JWT(auth))
	{
		users.GET("", middleware.RBAC(admin), h.Users.List)
		users.GET("/:id", middleware.RBAC(admin, "SELF"), h.Users.Get)
		users.PUT("/:id", middleware.RBAC(admin), h.Users.Update)
		users.DELETE("/:id", middleware.RBAC(admin), h.Users.Delete)
	}

	discussions := api.Group("/discussions")
	{
		discussions.GET("", middleware.OptionalJWT(auth), h.Discussions.List)
		discussions.GET("/reported", middleware.JWT(auth), middleware.RBAC(admin), h.Discussions.ListReported)
		discussions.GET("/:id", middleware.OptionalJWT(auth), h.Discussions.Get)

		discussions.POST("", middleware.JWT(auth), middleware.VerifiedOnly(), h.Discussions.Create)
		discussions.PUT("/:id", middleware.JWT(auth), h.Discussions.Update)
		discussions.DELETE("/:id", middleware.JWT(auth), h.Discussions.Delete)
		discussions.POST("/:id/like", middleware.JWT(auth), middleware.VerifiedOnly(), h.Discussions.ToggleLike)
		discussions.POST("/:id/report", middleware.JWT(auth), middleware.VerifiedOnly(), h.Discussions.Report)
		discussions.PUT("/:id/moderate", middleware.JWT(auth), middleware.RBAC(admin), h.Discussions.Moderate)

		discussions.POST("/:id/comments", middleware.JWT(auth), middleware.VerifiedOnly(), h.Discussions.AddComment)
		discussions.PUT("/:id/comments/:commentId", middleware.JWT(auth), h.Discussions.EditComment)
		discussions.DELETE("/:id/comments/:commentId", middleware.JWT(auth), h.Discussions.DeleteComment)
		discussions.POST("/:id/comments/:commentId/like", middleware.JWT(auth), middleware.VerifiedOnly(), h.Discussions.ToggleCommentLike)
		discussions.POST("/:id/comments/:commentId/report", middleware.JWT(auth), middleware.VerifiedOnly(), h.Discussions.ReportComment)
		discussions.PUT("/:id/comments/:commentId/moderate", middleware.JWT(auth), middleware.RBAC(admin), h.Discussions.ModerateComment)
	}

	events := api.Group("/events")
	{
		events.GET("/:id/image", h.Events.Image)

		events.GET("", middleware.JWT(auth), h.Events.List)
		events.GET("/pending", middleware.JWT(auth), middleware.RBAC(admin), h.Events.ListPending)
		events.GET("/:id", middleware.JWT(auth), h.Events.Get)

		events.POST("", middleware.JWT(auth), middleware.RBAC(string(models.RoleClub), admin), middleware.VerifiedOnly(), h.Events.Create)
		events.PUT("/:id", middleware.JWT(auth), h.Events.Update)
		events.DELETE("/:id", middleware.JWT(auth), h.Events.Delete)

		events.PUT("/:id/approve", middleware.JWT(auth), middleware.RBAC(admin), middleware.VerifiedOnly(), h.Events.Approve)
		events.PUT("/:id/reject", middleware.JWT(auth), middleware.RBAC(admin), middleware.VerifiedOnly(), h.Events.Reject)
		events.POST("/:id/view", middleware.JWT(auth), h.Events.RecordView)
		events.POST("/:id/feedback", middleware.JWT(auth), middleware.RBAC(admin), h.Events.SendFeedback)
		events.POST("/:id/feedback/:feedbackId/read", middleware.JWT(auth), h.Events.MarkFeedbackRead)
		events.POST("/:id/register", middleware.JWT(auth), middleware.VerifiedOnly(), h.Events.Register)
		events.POST("/:id/unregister", middleware.JWT(auth), h.Events.Unregister)
		events.POST("/:id/image", middleware.JWT(auth), h.Events.UploadImage)
		events.GET("/:id/attendees/export", middleware.JWT(auth), h.Events.ExportAttendees)
	}

	adminGroup := api.Group("/admin", middleware.JWT(auth), middleware.RBAC(admin))
	{
		adminGroup.GET("/metrics", h.Metrics.Snapshot)
	}
}
