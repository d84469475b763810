package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"exercise-tracker/internal/cache"
	"exercise-tracker/internal/config"
	"exercise-tracker/internal/events"
	apphttp "exercise-tracker/internal/http"
	"exercise-tracker/internal/repository"
	"exercise-tracker/internal/repository/memory"
	"exercise-tracker/internal/repository/sqlite"
	"exercise-tracker/internal/service"
	"exercise-tracker/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo, closeRepo, err := buildRepository(cfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer closeRepo()

	if cfg.Cache.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			logger.Fatalf("connect redis: %v", err)
		}
		defer client.Close()
		userRepo = cache.NewUserCache(userRepo, client, time.Duration(cfg.Cache.TTLSeconds)*time.Second, logger)
		logger.Infof("caching users in redis at %s", cfg.Cache.RedisAddr)
	}

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	publisher, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup events: %v", err)
	}
	defer publisher.Close()

	userService := service.NewUserService(userRepo)
	exerciseService := service.NewExerciseService(userService, userRepo)

	var archiveService service.ArchiveService
	if cfg.Archive.Bucket != "" {
		storageSvc, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
		archiveService = service.NewArchiveService(userService, storageSvc, service.ArchiveConfig{
			Bucket:    cfg.Archive.Bucket,
			KeyPrefix: cfg.Archive.KeyPrefix,
		})
	}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Config{
		Users:     userService,
		Exercises: exerciseService,
		Archives:  archiveService,
		Events:    publisher,
		Logger:    logger,
		StaticDir: cfg.Server.StaticDir,
		ViewsDir:  cfg.Server.ViewsDir,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildRepository(cfg config.Config) (repository.UserRepository, func(), error) {
	if cfg.Database.Driver == "memory" {
		return memory.NewUserRepository(), func() {}, nil
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return sqlite.NewUserRepository(db), func() { db.Close() }, nil
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *logrus.Logger) (events.Publisher, error) {
	if cfg.Events.AMQPURL == "" {
		return events.NopPublisher{}, nil
	}
	publisher, err := events.DialAMQP(ctx, cfg.Events.AMQPURL, cfg.Events.Queue)
	if err != nil {
		return nil, err
	}
	logger.Infof("publishing events to queue %s", cfg.Events.Queue)
	return publisher, nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Archive.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Archive.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Archive.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Archive.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("archiving logs to s3 bucket %s (region %s)", cfg.Archive.Bucket, cfg.Archive.Region)
	return storage.NewS3Service(client), nil
}
