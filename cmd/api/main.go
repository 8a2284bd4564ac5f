package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/api/handlers"
	"github.com/youlead/youlead-backend/internal/api/middleware"
	"github.com/youlead/youlead-backend/internal/config"
	"github.com/youlead/youlead-backend/internal/cron"
	"github.com/youlead/youlead-backend/internal/db"
	"github.com/youlead/youlead-backend/internal/email"
	"github.com/youlead/youlead-backend/internal/notification"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/seed"
	"github.com/youlead/youlead-backend/internal/service"
	"github.com/youlead/youlead-backend/internal/socket"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// ============================================
	// Error reporting (optional)
	// ============================================
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			logger.Warn("Sentry disabled", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
			logger.Info("Sentry reporting enabled")
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}

	// ============================================
	// Initialize PostgreSQL (pgxpool + sqlx)
	// ============================================
	pg, err := db.NewPostgresDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()

	repos := repository.NewRepositories(pg.Pool, pg.SQL)

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL, logger)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			redisDB = nil
		} else {
			defer redisDB.Close()
		}
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := socket.NewHub(logger)
	go hub.Run(ctx)
	broadcaster := socket.NewBroadcaster(hub, logger)

	// ============================================
	// Initialize Email (optional)
	// ============================================
	var mailer notification.Mailer
	emailSvc := email.NewService(&email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		UseTLS:   cfg.SMTPUseTLS,
	}, logger)
	if emailSvc.Enabled() {
		queue := email.NewEmailQueue(emailSvc, cfg.EmailWorkers, logger)
		defer queue.Stop()
		mailer = queue
	} else {
		logger.Warn("Email not configured (SMTP_HOST not set)")
	}

	notifier := notification.NewService(repos.UserRepo, mailer, broadcaster, cfg.FrontendURL, cfg.InvitationTTLDays, logger)

	// ============================================
	// Initialize All Services
	// ============================================
	deps := &service.ServiceDeps{
		Config:    cfg,
		Logger:    logger,
		Repos:     repos,
		Publisher: broadcaster,
		Notifier:  notifier,
	}
	if redisDB != nil {
		deps.Cache = redisDB
		deps.Pending = redisDB
	}
	services := service.NewServices(deps)

	wsHandler := socket.NewHandler(hub, func(token string) (string, error) {
		parsed, err := services.Auth.ValidateToken(token)
		if err != nil {
			return "", err
		}
		return services.Auth.GetUserIDFromToken(parsed)
	}, logger)
	hub.SetRoomGuard(services.Chat.CanJoinRoom)
	hub.SetOnConnect(func(userID string) {
		services.Chat.DeliverPending(context.Background(), userID)
	})

	// ============================================
	// Seed Data (for development)
	// ============================================
	if !cfg.IsProduction() {
		if err := seed.Admin(ctx, repos.UserRepo, cfg.SeedAdminEmail, cfg.SeedAdminPassword, logger); err != nil {
			logger.Warn("Seeding failed", zap.Error(err))
		}
	}

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	scheduler := cron.NewScheduler(cron.Config{
		StatusSweepSchedule: cfg.StatusSweepSchedule,
		InvitationSchedule:  cfg.InvitationExpirySchedule,
		InvitationTTL:       cfg.InvitationTTL(),
	}, services.Invitation, logger, services.Task, services.Project)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	h := handlers.NewHandlers(services)

	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.RequestLogger(logger), middleware.ErrorReporter())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL, "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		pingCtx, pingCancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer pingCancel()

		status, database := http.StatusOK, "connected"
		if err := pg.Ping(pingCtx); err != nil {
			status, database = http.StatusServiceUnavailable, "unreachable"
		}
		c.JSON(status, gin.H{
			"status":     http.StatusText(status),
			"timestamp":  time.Now(),
			"database":   database,
			"cache":      getCacheStatus(redisDB),
			"ws_clients": hub.GetConnectedClientsCount(),
			"email":      getEmailStatus(emailSvc),
		})
	})

	api := r.Group("/api")
	{
		// ============================================
		// Public routes (no auth required)
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// The socket authenticates itself from the token query parameter.
		api.GET("/ws", wsHandler.HandleWebSocket)

		// ============================================
		// Protected routes (require auth middleware)
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.Auth, logger))
		{
			users := protected.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.PUT("/me", h.User.UpdateCurrentUser)
				users.PATCH("/:id/status", h.User.SetAccountStatus)
			}

			teams := protected.Group("/teams")
			{
				teams.POST("", h.Team.Create)
				teams.POST("/leave", h.Team.Leave)
				teams.GET("/:id", h.Team.Get)
				teams.GET("/:id/members", h.Team.ListMembers)
				teams.POST("/:id/join", h.Team.Join)
				teams.DELETE("/:id/members/:userId", h.Team.RemoveMember)
				teams.PATCH("/:id/members/:userId/role", h.Team.UpdateMemberRole)

				teams.POST("/:id/invitations", h.Invitation.Create)
				teams.GET("/:id/invitations", h.Invitation.ListForTeam)

				teams.POST("/:id/meetings", h.Meeting.Schedule)
				teams.GET("/:id/meetings", h.Meeting.List)

				teams.GET("/:id/activities", h.Activity.TeamFeed)
				teams.GET("/:id/analytics", h.Analytics.TeamOverview)
			}

			invitations := protected.Group("/invitations")
			{
				invitations.GET("/me", h.Invitation.ListMine)
				invitations.POST("/:id/respond", h.Invitation.Respond)
				invitations.DELETE("/:id", h.Invitation.Cancel)
			}

			registerWorkItemRoutes(protected.Group("/tasks"), h.Task)
			registerWorkItemRoutes(protected.Group("/projects"), h.Project)

			messages := protected.Group("/messages")
			{
				messages.POST("", h.Chat.SendMessage)
				messages.GET("/:sentIn/:target", h.Chat.ListMessages)
				messages.POST("/:id/read", h.Chat.MarkRead)
				messages.PATCH("/:id", h.Chat.EditMessage)
			}

			protected.DELETE("/meetings/:id", h.Meeting.Cancel)
			protected.GET("/activities/me", h.Activity.MyFeed)
		}
	}

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	logger.Info("Server exited")
}

func registerWorkItemRoutes(g *gin.RouterGroup, h *handlers.WorkItemHandler) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/complete", h.Complete)
	g.PATCH("/:id/deadline", h.ChangeDeadline)
	g.POST("/:id/members", h.AssignMembers)
	g.DELETE("/:id/members", h.UnassignMembers)
}

// newLogger builds a development logger outside production.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = level
	}
	return zcfg.Build()
}

func getCacheStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}

func getEmailStatus(emailSvc *email.Service) string {
	if emailSvc.Enabled() {
		return "configured"
	}
	return "disabled"
}
