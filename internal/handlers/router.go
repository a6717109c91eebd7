package handlers

import (
	"context"
	"net/http"
	"time"

	"task-manager/api/internal/config"
	"task-manager/api/internal/middleware"
	"task-manager/api/internal/models"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/services"
	"task-manager/api/internal/validation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UserDirectory is what the router needs from the user service: the
// handler operations plus lookup by token subject.
type UserDirectory interface {
	UserStore
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type RouterDeps struct {
	Log          zerolog.Logger
	ServiceName  string
	Tracing      bool
	CORS         config.CORSConfig
	Tokens       middleware.TokenValidator
	Users        UserDirectory
	Auth         Authenticator
	Tasks        TaskStore
	Notifier     TaskNotifier
	Policy       *services.AccessPolicy
	Analytics    AnalyticsSource
	Calendar     CalendarClient
	Metrics      *monitoring.Metrics
	Health       *monitoring.HealthChecker
	LoginLimiter *middleware.IPRateLimiter
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	out := cors.Config{
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.Origins) == 0 || (len(cfg.Origins) == 1 && cfg.Origins[0] == "*") {
		// browsers reject a wildcard origin on credentialed requests
		if cfg.AllowCredentials {
			out.AllowOriginFunc = func(string) bool { return true }
		} else {
			out.AllowAllOrigins = true
		}
		return out
	}
	out.AllowOrigins = cfg.Origins
	return out
}

// requireAction rejects the request unless the policy allows the current
// user to perform action.
func requireAction(policy *services.AccessPolicy, action services.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.UserFrom(c)
		err := policy.Authorize(c.Request.Context(), services.AuthorizationRequest{
			Actor:     actor,
			Action:    action,
			RequestID: middleware.RequestIDFrom(c),
		})
		if err != nil {
			RespondError(c, err)
			return
		}
		c.Next()
	}
}

func NewRouter(d RouterDeps) *gin.Engine {
	validator := validation.New()
	if d.Policy == nil {
		d.Policy = services.NewAccessPolicy(d.Log)
	}
	if d.Health == nil {
		d.Health = monitoring.NewHealthChecker(0)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(d.Log),
		middleware.RecoveryWithLog(d.Log),
		middleware.RequestLogger(d.Log),
		cors.New(corsConfig(d.CORS)),
		d.Metrics.Middleware(),
	)
	if d.Tracing {
		router.Use(otelgin.Middleware(d.ServiceName))
	}
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "route not found"})
	})

	authHandler := NewAuthHandler(d.Auth, validator)
	registerHandler := NewRegisterHandler(d.Users, validator)
	userHandler := NewUserHandler(d.Users, d.Policy, validator)
	taskHandler := NewTaskHandler(d.Tasks, d.Notifier, validator)
	analyticsHandler := NewAnalyticsHandler(d.Analytics, d.ServiceName)
	calendarHandler := NewCalendarHandler(d.Calendar, validator)

	router.GET("/", analyticsHandler.Dashboard)
	router.GET("/healthcheck/", d.Health.HealthHandler())
	router.GET("/health/live", d.Health.LivenessHandler())
	router.GET("/health/ready", d.Health.ReadinessHandler())
	router.GET("/metrics", d.Metrics.Handler())

	authenticated := []gin.HandlerFunc{
		middleware.Authn(d.Tokens, d.Log),
		middleware.CurrentUser(d.Users),
	}

	users := router.Group("/users")
	{
		users.POST("/", registerHandler.Registration)
		if d.LoginLimiter != nil {
			users.POST("/token/", middleware.RateLimit(d.LoginLimiter, d.Log), authHandler.Token)
		} else {
			users.POST("/token/", authHandler.Token)
		}

		protected := users.Group("", authenticated...)
		protected.GET("/me/", authHandler.Me)
		protected.POST("/me/", authHandler.Me)
		protected.GET("/", userHandler.GetUsers)
		protected.GET("/:id", userHandler.GetUser)
		protected.PUT("/:id", userHandler.UpdateUser)
		protected.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), userHandler.DeleteUser)
	}

	tasks := router.Group("/tasks", append(authenticated, requireAction(d.Policy, services.ActionManageTasks))...)
	{
		tasks.POST("/", taskHandler.CreateTask)
		tasks.GET("/list/", taskHandler.GetTasks)
		tasks.GET("/:id", taskHandler.GetTaskByID)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.PUT("/:id/assign", taskHandler.AssignTask)
		tasks.PUT("/:id/complete", taskHandler.CompleteTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	analytics := router.Group("/analytics", append(authenticated, requireAction(d.Policy, services.ActionViewAnalytics))...)
	analytics.GET("/summary", analyticsHandler.Summary)

	cal := router.Group("/calendar", authenticated...)
	cal.GET("/events/", calendarHandler.Events)
	cal.POST("/create-event/", calendarHandler.CreateEvent)

	return router
}
