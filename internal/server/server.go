package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planner/internal/ai"
	"planner/internal/config"
	"planner/internal/gcal"
	"planner/internal/handler"
	"planner/internal/middleware"
	"planner/internal/repository"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
}

func Init(cfg *config.Config) (*Server, error) {
	// Setup GORM
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	// Setup Gin
	r := gin.Default()

	// Google OAuth is used both for sign-in and for calendar access
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"https://www.googleapis.com/auth/calendar.events",
		},
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	subtaskRepo := repository.NewSubtaskRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// Initialize calendar sync
	calendarClient := gcal.NewClient(cfg.CalendarBaseURL)
	tokenProvider := gcal.NewTokenProvider(tokenRepo, oauthConfig)
	syncService := gcal.NewSyncService(calendarClient, tokenProvider, taskRepo)

	// Initialize AI assistant
	aiClient := ai.NewClient(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
	aiService := ai.NewService(aiClient)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo, projectRepo, tokenRepo, oauthConfig, cfg.JWTSecret)
	projectHandler := handler.NewProjectHandler(projectRepo)
	taskHandler := handler.NewTaskHandler(taskRepo, projectRepo)
	subtaskHandler := handler.NewSubtaskHandler(subtaskRepo, taskRepo)
	calendarHandler := handler.NewCalendarHandler(taskRepo, syncService)
	aiHandler := handler.NewAIHandler(aiService, taskRepo)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.POST("/auth/google", userHandler.GoogleLogin)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Project routes
		authorized.POST("/projects", projectHandler.Create)
		authorized.GET("/projects", projectHandler.GetAll)
		authorized.GET("/projects/:id", projectHandler.GetByID)
		authorized.PUT("/projects/:id", projectHandler.Update)
		authorized.POST("/projects/:id/archive", projectHandler.Archive)
		authorized.DELETE("/projects/:id", projectHandler.Delete)

		// Task routes
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks", taskHandler.GetAll)
		authorized.GET("/tasks/search", taskHandler.Search)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/complete", taskHandler.Complete)
		authorized.POST("/tasks/:id/reopen", taskHandler.Reopen)

		// Subtask routes
		authorized.POST("/tasks/:id/subtasks", subtaskHandler.Create)
		authorized.GET("/tasks/:id/subtasks", subtaskHandler.GetByTaskID)
		authorized.PUT("/subtasks/:id", subtaskHandler.Update)
		authorized.DELETE("/subtasks/:id", subtaskHandler.Delete)
		authorized.POST("/subtasks/:id/complete", subtaskHandler.Complete)
		authorized.POST("/subtasks/:id/reopen", subtaskHandler.Reopen)

		// Calendar routes
		authorized.GET("/calendar", calendarHandler.View)
		authorized.POST("/tasks/:id/sync", calendarHandler.SyncTask)
		authorized.PUT("/tasks/:id/sync", calendarHandler.UpdateSyncedTask)
		authorized.DELETE("/tasks/:id/sync", calendarHandler.UnsyncTask)

		// AI routes
		authorized.POST("/ai/complete", aiHandler.Complete)
		authorized.POST("/ai/description", aiHandler.GenerateDescription)
		authorized.POST("/ai/suggestions", aiHandler.SuggestTasks)
	}
	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	log.Println("✅ Server exited properly")
}
