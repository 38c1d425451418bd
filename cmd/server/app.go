package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"projectflow/internal/auth"
	"projectflow/internal/config"
	"projectflow/internal/database"
	"projectflow/internal/events"
	"projectflow/internal/handlers"
	"projectflow/internal/logger"
	"projectflow/internal/repository"
	"projectflow/internal/server"
	"projectflow/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

// app holds the wired dependencies shared by every command.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	sqlDB  *sql.DB
	rdb    *redis.Client
	events events.Publisher

	projectRepo repository.ProjectRepository
	memberRepo  *repository.MemberStore
	auditRepo   *repository.AuditStore
	tokens      *auth.Tokens

	projects  *service.ProjectService
	members   *service.MemberService
	dashboard *service.DashboardService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		sqlDB:  sqlDB,
		events: events.NopPublisher{},
	}

	var projectRepo repository.ProjectRepository = repository.NewProjectStore(db, log)
	if cfg.RedisAddr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unreachable, cache reads will fall through", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			log.Info("Project cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
		}
		cancel()
		projectRepo = repository.NewCachedProjects(projectRepo, a.rdb, cfg.CacheTTL, log)
	}

	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, log)
		if err != nil {
			log.Warn("RabbitMQ unavailable, progress events disabled", zap.Error(err))
		} else {
			a.events = pub
		}
	}

	a.projectRepo = projectRepo
	a.memberRepo = repository.NewMemberStore(db, log)
	a.auditRepo = repository.NewAuditStore(db, log)
	a.tokens = auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	a.projects = service.NewProjectService(a.projectRepo, a.auditRepo, a.events, log)
	a.members = service.NewMemberService(a.memberRepo, a.auditRepo, a.tokens, log)
	a.dashboard = service.NewDashboardService(a.projectRepo)
	return a, nil
}

func (a *app) migrate(ctx context.Context) error {
	if err := database.Migrate(a.db.WithContext(ctx)); err != nil {
		return err
	}
	seeder := a.seeder()
	return seeder.EnsureAdmin(ctx, a.cfg.AdminEmail, a.cfg.AdminPassword)
}

func (a *app) seed(ctx context.Context, file string) error {
	if err := a.migrate(ctx); err != nil {
		return err
	}
	data, err := database.LoadSeed(file)
	if err != nil {
		return err
	}
	return a.seeder().Apply(ctx, data)
}

func (a *app) seeder() *database.Seeder {
	return &database.Seeder{
		Members:  a.memberRepo,
		Projects: a.projectRepo,
		Logger:   a.log,
	}
}

func (a *app) serve(ctx context.Context) error {
	if err := a.migrate(ctx); err != nil {
		return err
	}

	router := server.NewRouter(a.cfg, server.Deps{
		Handler: &handlers.Handler{
			Projects:  a.projects,
			Members:   a.members,
			Dashboard: a.dashboard,
			Audit:     a.auditRepo,
			Logger:    a.log,
		},
		Members: a.memberRepo,
		Tokens:  a.tokens,
		Logger:  a.log,
		DB:      a.sqlDB,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		a.log.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	a.log.Info("HTTP server stopped")
	return nil
}

func (a *app) Close() {
	if err := a.events.Close(); err != nil {
		a.log.Warn("Failed to close event publisher", zap.Error(err))
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if err := a.sqlDB.Close(); err != nil {
		a.log.Warn("Failed to close database", zap.Error(err))
	}
	_ = a.log.Sync()
}
