package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/henningsieh/growagram/internal/config"
	"github.com/henningsieh/growagram/internal/middleware"
	"github.com/henningsieh/growagram/internal/models"
	"github.com/henningsieh/growagram/internal/repository"
	"github.com/henningsieh/growagram/internal/service"
	"github.com/henningsieh/growagram/internal/storage"
)

type HandlerSet struct {
	log                 zerolog.Logger
	cfg                 *config.AppConfig
	db                  *pgxpool.Pool
	cache               *redis.Client
	store               *storage.ObjectStore
	authService         *service.AuthService
	uploadService       *service.UploadService
	commentService      *service.CommentService
	likeService         *service.LikeService
	notificationService *service.NotificationService
	users               *repository.UserRepository
	sessions            *repository.SessionRepository
	reports             *repository.ReportRepository
	images              *repository.ImageRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	reportRepo := repository.NewReportRepository(db)
	imageRepo := repository.NewImageRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	auth := service.NewAuthService(userRepo, sessionRepo, cfg, log)
	upload := service.NewUploadService(imageRepo, store, log)
	notifications := service.NewNotificationService(notificationRepo, cache, log)
	comments := service.NewCommentService(commentRepo, reportRepo, notifications, log)
	likes := service.NewLikeService(likeRepo, reportRepo, commentRepo, notifications, log)

	return HandlerSet{
		log:                 log,
		cfg:                 cfg,
		db:                  db,
		cache:               cache,
		store:               store,
		authService:         auth,
		uploadService:       upload,
		commentService:      comments,
		likeService:         likes,
		notificationService: notifications,
		users:               userRepo,
		sessions:            sessionRepo,
		reports:             reportRepo,
		images:              imageRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	authed := middleware.Auth(h.cfg, h.users, h.sessions)
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		protected := v1.Group("/auth")
		protected.Use(authed)
		protected.GET("/me", h.Me)
		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions/:deviceId", h.RevokeSession)
	}

	reports := v1.Group("/reports")
	reports.GET("", h.ListReports)
	reports.GET("/:reportId", h.GetReport)
	reports.GET("/:reportId/posts", h.ListReportPosts)
	reports.GET("/:reportId/images", h.ListReportImages)
	reports.POST("", authed, h.CreateReport)
	reports.POST("/:reportId/posts", authed, h.CreateReportPost)
	reports.POST("/:reportId/images", authed, h.UploadReportImages)
	reports.PUT("/:reportId/like", authed, h.LikeReport)
	reports.DELETE("/:reportId/like", authed, h.UnlikeReport)

	posts := v1.Group("/posts")
	posts.GET("/:postId/comments", h.ListComments)
	posts.POST("/:postId/comments", authed, h.CreateComment)

	comments := v1.Group("/comments")
	comments.PATCH("/:commentId", authed, h.EditComment)
	comments.DELETE("/:commentId", authed, h.DeleteComment)
	comments.PUT("/:commentId/like", authed, h.LikeComment)
	comments.DELETE("/:commentId/like", authed, h.UnlikeComment)

	moderation := v1.Group("/moderation")
	moderation.Use(authed, middleware.RequireRoles(models.UserRoleModerator, models.UserRoleAdmin))
	moderation.DELETE("/comments/:commentId", h.RemoveComment)

	users := v1.Group("/users")
	users.POST("/me/avatar", authed, h.UploadAvatar)

	notifications := v1.Group("/notifications")
	notifications.Use(authed)
	notifications.GET("", h.ListNotifications)
	notifications.GET("/unread-count", h.UnreadNotificationCount)
	notifications.POST("/:notificationId/read", h.MarkNotificationRead)
	notifications.POST("/read-all", h.MarkAllNotificationsRead)
}

// currentUser pulls the authenticated user the auth middleware stored on the
// context.
func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get("current_user")
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_user"})
		return models.User{}, false
	}
	return user, true
}
