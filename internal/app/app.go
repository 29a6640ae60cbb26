package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/auth"
	"github.com/NourhenHamza/TalentGo-sub001/internal/config"
	"github.com/NourhenHamza/TalentGo-sub001/internal/delivery/httpd"
	appmw "github.com/NourhenHamza/TalentGo-sub001/internal/middleware"
	"github.com/NourhenHamza/TalentGo-sub001/internal/repository"
	"github.com/NourhenHamza/TalentGo-sub001/internal/service"
	"github.com/NourhenHamza/TalentGo-sub001/internal/service/integration"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type App struct {
	server   *http.Server
	logger   zerolog.Logger
	config   *config.Config
	db       *sql.DB
	notifier integration.RabbitMQNotifier
	redis    *redis.Client
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	rabbitNotifier, err := integration.NewRabbitMQNotifier(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.RoutingKey,
		cfg.RabbitMQ.QueueName,
		log,
	)
	if err != nil {
		// The in-app inbox still records every notification.
		log.Error().Err(err).Msg("Failed to create RabbitMQ notifier, e-mail notifications disabled")
	}

	storage, err := integration.NewMinIOStorage(integration.MinIOConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		Region:    cfg.MinIO.Region,
		UseSSL:    cfg.MinIO.UseSSL,
		Timeout:   cfg.MinIO.Timeout,
	}, log)
	if err != nil {
		if rabbitNotifier != nil {
			rabbitNotifier.Close()
		}
		return nil, err
	}

	entityRepo := repository.NewEntityRepository(db, log)
	actorRepo := repository.NewActorRepository(db, log)
	notificationRepo := repository.NewNotificationRepository(db, log)

	notifier := integration.NewMultiNotifier(
		integration.NewInboxNotifier(notificationRepo),
		rabbitNotifier,
	)

	actorService := service.NewActorService(actorRepo, log)
	workflowService := service.NewWorkflowService(entityRepo, actorRepo, notifier, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	reportFileService := service.NewReportFileService(storage, cfg.MinIO.URLExpiry, cfg.MinIO.MaxUpload, log)

	handler := httpd.NewHandler(
		workflowService,
		actorService,
		notificationService,
		reportFileService,
		repository.NewPostgresRepository(db, log),
		cfg.MinIO.MaxUpload,
		log,
	)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	protect := []func(http.Handler) http.Handler{
		appmw.Authenticate(tokens, actorService, log),
	}

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = newRedisClient(cfg.Redis, log)
		limiter := appmw.NewRedisLimiter(redisClient, "pfe:ratelimit:")
		protect = append(protect, appmw.RateLimit(limiter, appmw.ActorOrIP, cfg.RateLimit.Requests, cfg.RateLimit.Window, log))
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appmw.RequestLogger(log))
	router.Use(appmw.Recovery(log))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router, protect...)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:   server,
		logger:   log,
		config:   cfg,
		db:       db,
		notifier: rabbitNotifier,
		redis:    redisClient,
	}, nil
}

func newRedisClient(cfg config.RedisConfig, log zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unavailable, rate limiting fails open")
	} else {
		log.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	}
	return client
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting workflow service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down workflow service...")

	err := a.server.Shutdown(ctx)

	if a.notifier != nil {
		if closeErr := a.notifier.Close(); closeErr != nil {
			a.logger.Error().Err(closeErr).Msg("Failed to close RabbitMQ notifier")
		}
	}

	if a.redis != nil {
		if closeErr := a.redis.Close(); closeErr != nil {
			a.logger.Error().Err(closeErr).Msg("Failed to close Redis client")
		}
	}

	if a.db != nil {
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Error().Err(closeErr).Msg("Failed to close database connection")
		}
	}

	return err
}
