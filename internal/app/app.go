package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-shop-auth/internal/config"
	"go-shop-auth/internal/database"
	"go-shop-auth/internal/handler"
	"go-shop-auth/internal/media"
	"go-shop-auth/internal/middleware"
	"go-shop-auth/internal/notifier"
	"go-shop-auth/internal/password"
	"go-shop-auth/internal/repository"
	"go-shop-auth/internal/router"
	"go-shop-auth/internal/service"
)

type App struct {
	server *http.Server
	db     *database.DB
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	mediaStore, err := media.NewS3Store(context.Background(), media.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}

	var mailer notifier.Notifier
	if cfg.SMTPHost != "" {
		mailer = notifier.NewSMTPNotifier(notifier.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		slog.Warn("SMTP_HOST not set; reset emails go to the log only")
		mailer = notifier.NewLogNotifier()
	}

	userRepo := repository.NewUserRepository(db.Pool)
	guard := password.NewGuard(cfg.PasswordLegacyKey)

	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	accountService := service.NewAccountService(userRepo, guard, mediaStore)
	resetService := service.NewResetService(userRepo, guard, mailer, cfg.PublicBaseURL, cfg.ResetTokenTTL)

	authMiddleware := middleware.NewAuthMiddleware(tokenService, accountService)
	authHandler := handler.NewAuthHandler(accountService, tokenService, cfg.MaxAvatarSize)
	userHandler := handler.NewUserHandler(accountService, resetService, tokenService, cfg.MaxAvatarSize)

	appRouter := router.New(cfg, authMiddleware, authHandler, userHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{server: server, db: db}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.db.Close()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
