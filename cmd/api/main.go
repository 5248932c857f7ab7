package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/painelclima/api/internal/auth"
	"github.com/painelclima/api/internal/config"
	"github.com/painelclima/api/internal/db"
	"github.com/painelclima/api/internal/feed"
	internalhttp "github.com/painelclima/api/internal/http"
	"github.com/painelclima/api/internal/monitor"
	"github.com/painelclima/api/internal/repo"
	"github.com/painelclima/api/internal/service"
	"github.com/painelclima/api/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	repository := repo.New(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	revocacao := auth.NewRedisRevocationStore(redisClient)
	authService := service.NewAuthService(repository, revocacao, jwtManager)
	userService := service.NewUserService(repository)

	feedCache := feed.NewRedisCache(redisClient, cfg.Feed.CacheTTL)
	feedClient := feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.Timeout, feedCache)

	var arquivador storage.Arquivador = storage.NoopArquivador{}
	if cfg.Storage.Bucket != "" {
		s3, err := storage.NewS3Arquivador(storage.S3Config{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			PublicDomain: cfg.Storage.PublicDomain,
		})
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		arquivador = s3
	}

	var monitorService *monitor.Service
	if cfg.Monitor.Enabled {
		notifiers := make([]monitor.Notifier, 0, 2)
		if cfg.Monitor.SlackWebhook != "" {
			notifiers = append(notifiers, monitor.NewSlackNotifier(cfg.Monitor.SlackWebhook))
		}
		if cfg.Monitor.SMTPHost != "" {
			email, err := monitor.NewEmailNotifier(cfg.Monitor)
			if err != nil {
				return fmt.Errorf("monitor smtp: %w", err)
			}
			if email != nil {
				notifiers = append(notifiers, email)
			}
		}
		monitorService = monitor.NewService(feedClient, cfg.Monitor, log.Logger, notifiers...)
		monitorService.Start(ctx)
		defer monitorService.Stop()
	}

	handler := internalhttp.NewRouter(cfg, pool, redisClient, authService, userService, feedClient, monitorService, arquivador)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
