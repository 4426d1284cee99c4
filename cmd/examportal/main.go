package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/examportal/backend/adapters/events"
	"github.com/examportal/backend/adapters/repository"
	"github.com/examportal/backend/adapters/store"
	"github.com/examportal/backend/adapters/tokenizer"
	"github.com/examportal/backend/config"
	"github.com/examportal/backend/core"
	"github.com/examportal/backend/logging"
	"github.com/examportal/backend/ports"
	"github.com/examportal/backend/service"
	transport "github.com/examportal/backend/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logging.Init(config.AppName)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logging.Logger.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logging.Logger.WithError(err).Fatal("Failed to parse Redis URL")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	var revocations ports.RevocationStore
	switch cfg.RevocationBackend {
	case config.BackendRedis:
		revocations = store.NewRedisStore(redisClient)
	case config.BackendPostgres:
		pgStore, pool, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logging.Logger.WithError(err).Fatal("Failed to open revocation store")
		}
		defer pool.Close()
		revocations = pgStore
	default:
		revocations = store.NewMemoryStore()
		logging.Logger.Warn("Memory revocation store: revocations are lost on restart while their tokens stay valid")
	}
	logging.Logger.Infof("Using %s revocation store", cfg.RevocationBackend)

	var eventPub ports.EventPublisher = events.NoopPublisher{}
	if cfg.RevocationEvents {
		wmLogger := logging.NewWatermillAdapter(logging.Logger)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:  redisClient,
			Maxlens: events.StreamMaxlens(cfg.RevocationStreamMaxLen),
		}, wmLogger)
		if err != nil {
			logging.Logger.WithError(err).Fatal("Failed to create Redis publisher")
		}
		defer publisher.Close()

		// No consumer group: every instance reads every revocation.
		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{Client: redisClient}, wmLogger)
		if err != nil {
			logging.Logger.WithError(err).Fatal("Failed to create Redis subscriber")
		}
		defer subscriber.Close()

		eventPub = events.NewWatermillPublisher(publisher)

		listener := events.NewRevocationListener(subscriber, revocations)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Logger.WithError(err).Error("Revocation listener stopped")
			}
		}()
	}

	tok := tokenizer.NewJWTTokenizer(cfg.JWTSecret, tokenizer.WithIssuer(cfg.TokenIssuer))
	authService := service.NewAuthService(tok, revocations, eventPub, cfg.AccessTokenTTL)
	adminService := service.NewAdminService(
		repository.NewExamRepository(),
		repository.NewQuestionRepository(),
		repository.NewUserRepository(),
	)

	if cfg.BootstrapAdminEmail != "" {
		admin, err := adminService.EnsureUser(ctx, core.User{
			Name:  "Administrator",
			Email: cfg.BootstrapAdminEmail,
			Role:  core.RoleAdmin,
		})
		if err != nil {
			logging.Logger.WithError(err).Fatal("Failed to seed admin user")
		}
		logging.Logger.WithField("user_id", admin.ID).Infof("Bootstrap admin %s ready", admin.Email)
	}

	c := cron.New(cron.WithLocation(time.UTC))
	cleanup := service.NewRevocationCleanupService(revocations)
	if _, err := cleanup.Schedule(c, cfg.RevocationPruneSchedule); err != nil {
		logging.Logger.WithError(err).Fatal("Failed to schedule revocation pruning")
	}
	c.Start()
	defer c.Stop()

	router := transport.SetupRouter(authService, adminService, transport.Policy{
		FailOpen:      cfg.RevocationFailOpen,
		RejectInvalid: cfg.RejectInvalidTokens,
	})

	co := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           co.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Starting %s on port: %s", config.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.WithError(err).Error("Graceful shutdown failed")
	}
}
