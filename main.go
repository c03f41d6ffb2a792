package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"flowboard-api/api"
	"flowboard-api/calendar"
	"flowboard-api/config"
	"flowboard-api/dispatch"
	"flowboard-api/service"
	"flowboard-api/storage"
)

func main() {
	cfg := config.Load()

	logger := log.New()
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	db, err := storage.Open(cfg.Database)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	rc := redis.NewClient(redisOpts)
	defer rc.Close()

	views := storage.NewViews(db)
	cache := storage.NewCache(views, rc, cfg.Cache)

	runner := dispatch.NewRunner(cfg.Dispatch, logger)
	defer runner.Close()

	var cal calendar.Client = calendar.Noop{}
	if cfg.Calendar.BaseURL != "" {
		cal = calendar.NewHTTPClient(cfg.Calendar.BaseURL, cfg.Calendar.Timeout)
	}

	tasks := storage.NewTaskRepository(db)
	sections := storage.NewSectionRepository(db)
	projects := storage.NewProjectRepository(db)
	activity := storage.NewActivityRepository(db)
	notifications := storage.NewNotificationRepository(db)
	comments := storage.NewCommentRepository(db)
	subtasks := storage.NewSubtaskRepository(db)
	invites := storage.NewInviteRepository(db)
	accounts := storage.NewAccountRepository(db)
	goals := storage.NewGoalRepository(db)
	portfolios := storage.NewPortfolioRepository(db)

	taskService := service.NewTaskService(
		tasks, sections, projects, activity, notifications,
		comments, subtasks, accounts, cache, runner, cal, logger,
	)
	projectService := service.NewProjectService(projects, sections, activity, cache, runner)
	inviteService := service.NewInviteService(invites, projects, notifications, cache, runner)
	notificationService := service.NewNotificationService(notifications, cache)
	goalService := service.NewGoalService(goals, portfolios)

	var auth *api.Auth
	if cfg.Auth.TestMode {
		auth = api.NewTestAuth(cfg.Auth.TestSecret)
	} else {
		if cfg.Auth.Audience == "" || cfg.Auth.Domain == "" {
			logger.Fatal("missing auth config")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", cfg.Auth.Domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			logger.Fatalf("jwks: %v", err)
		}
		auth = api.NewAuth(jwks, cfg.Auth.Audience, "https://"+cfg.Auth.Domain+"/")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(api.DecompressRequests)

	handlers := &api.Handlers{
		Views:         cache,
		Tasks:         taskService,
		Projects:      projectService,
		Invites:       inviteService,
		Notifications: notificationService,
		Goals:         goalService,
		Auth:          auth,
		Logger:        logger,
	}
	handlers.Register(e)

	go func() {
		if err := e.Start(cfg.Listen); err != nil {
			logger.Infof("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
