package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/middleware"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/service"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/metrics"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterDeps struct {
	Config  *config.Config
	Log     *zap.Logger
	Metrics *metrics.Collector
	DB      Pinger

	Auth          *service.AuthService
	Admin         *service.AdminService
	Reports       *service.ReportService
	Notifications *service.NotificationService
	Chat          *service.ChatService

	// UploadDir is served at Config.Storage.PublicPath when non-empty.
	UploadDir string
}

func NewRouter(d RouterDeps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.MaxMultipartMemory = cfg.Inference.MaxUploadBytes + multipartOverhead

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(d.Log),
		middleware.Tracing(cfg.Tracing.ServiceName),
		middleware.Metrics(d.Metrics),
		middleware.Logger(d.Log),
		middleware.CORS(cfg.CORS),
	)

	r.GET("/health", health(d))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	if d.UploadDir != "" {
		r.Static(cfg.Storage.PublicPath, d.UploadDir)
	}

	authH := NewAuthHandler(d.Auth)
	reportH := NewReportHandler(d.Reports, cfg.Inference.MaxUploadBytes)
	notifH := NewNotificationHandler(d.Notifications)
	adminH := NewAdminHandler(d.Admin)
	chatH := NewChatHandler(d.Chat)

	global := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize)
	credentials := middleware.PerMinute(cfg.RateLimit.AuthRequestsPerMinute)
	requireAuth := middleware.RequireAuth(d.Auth, d.Log)

	api := r.Group("/api", global.Middleware())

	authG := api.Group("/auth")
	{
		authG.POST("/register", credentials.Middleware(), authH.Register)
		authG.POST("/login", credentials.Middleware(), authH.Login)
		authG.GET("/profile", requireAuth, authH.Profile)
		authG.PUT("/password", requireAuth, authH.ChangePassword)
	}

	doctor := middleware.RequireRole(domain.RoleDoctor)
	reports := api.Group("/reports", requireAuth)
	{
		reports.POST("/analyze", doctor, reportH.Analyze)
		reports.POST("", doctor, reportH.Create)
		reports.GET("/my-reports", middleware.RequireRole(domain.RolePatient), reportH.MyReports)
		reports.GET("/patients", doctor, reportH.Patients)
		reports.GET("/patient/:id", doctor, reportH.PatientReports)
		reports.PUT("/:id", doctor, reportH.Update)
		reports.DELETE("/:id", doctor, reportH.Delete)
	}

	notifications := api.Group("/notifications", requireAuth)
	{
		notifications.GET("", notifH.List)
		notifications.GET("/unread-count", notifH.UnreadCount)
		notifications.PUT("/read-all", notifH.MarkAllRead)
		notifications.PUT("/:id/read", notifH.MarkRead)
	}

	admin := api.Group("/admin", requireAuth, middleware.RequireRole(domain.RoleAdmin))
	{
		admin.GET("/users", adminH.ListUsers)
		admin.PUT("/users/:id/role", adminH.UpdateRole)
		admin.PUT("/users/:id/reset-password", adminH.ResetPassword)
		admin.DELETE("/users/:id", adminH.DeleteUser)
	}

	api.POST("/chat", requireAuth, chatH.Chat)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "route not found")
	})

	return r
}

func health(d RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": d.Config.App.Name,
			"version": d.Config.App.Version,
		}
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.PingContext(ctx); err != nil {
				d.Log.Warn("health check: database unreachable", zap.Error(err))
				body["status"] = "degraded"
				body["database"] = "unreachable"
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
			body["database"] = "ok"
		}
		c.JSON(http.StatusOK, body)
	}
}
