package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/authgate/internal/application/auth"
	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
	"github.com/amirhosseinghanipour/authgate/internal/config"
	httprouter "github.com/amirhosseinghanipour/authgate/internal/infrastructure/http"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/http/middleware"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/lockout"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/persistence/memory"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/persistence/mongodb"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/persistence/postgres"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/queue"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/security"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/session"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/webhook"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = newLogger(cfg.Log)

	ctx := context.Background()
	accounts, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	healthHandler := handlers.NewHealthHandler(accounts, redisClient)

	// Audit delivery: log-only without WEBHOOK_URL; queued through asynq when
	// Redis is up, posted inline otherwise.
	var emitter ports.WebhookEmitter
	var asynqWorker *queue.Worker
	if cfg.Webhook.URL != "" {
		httpEmitter := webhook.NewHTTPEmitter(cfg.Webhook.URL, webhook.WithSigningSecret(cfg.Webhook.Secret))
		emitter = httpEmitter
		if redisClient != nil {
			redisOpt := redisClient.Options()
			asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Password: redisOpt.Password, DB: redisOpt.DB}
			asynqEnq := queue.NewAsynqEnqueuer(asynqOpt, log)
			defer asynqEnq.Close()
			emitter = queue.NewQueuedEmitter(asynqEnq)
			asynqWorker = queue.NewWorker(asynqOpt, httpEmitter, log)
			go func() {
				if err := asynqWorker.Run(); err != nil {
					log.Warn().Err(err).Msg("asynq worker stopped")
				}
			}()
		}
	}

	hasher := newHasher(cfg.Password)
	tracker := lockout.NewMemoryStore(cfg.Lockout.Threshold)

	sessionSecret := []byte(cfg.Session.Secret)
	if len(sessionSecret) == 0 {
		log.Warn().Msg("SESSION_SECRET not set; generating an ephemeral key, sessions will not survive restarts")
		sessionSecret = make([]byte, 32)
		if _, err := rand.Read(sessionSecret); err != nil {
			log.Fatal().Err(err).Msg("generate session key")
		}
	}
	cookieStore := session.NewCookieStore(sessionSecret, cfg.Session.CookieName, !cfg.Secure.Development)

	loginUC := auth.NewLogin(accounts, hasher, tracker)
	registerUC := auth.NewRegisterAccount(accounts, hasher)
	reconcileUC := auth.NewReconcileFederated(accounts)

	authHandler := handlers.NewAuthHandler(loginUC, registerUC, cookieStore, emitter, log)

	var oauthHandler *handlers.OAuthHandler
	if cfg.GoogleEnabled() {
		handlers.InitOAuthProviders(cfg.OAuth.CallbackBaseURL, cookieStore.Store(), cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret)
		oauthHandler = handlers.NewOAuthHandler(reconcileUC, cfg.OAuth.FrontendURL, emitter, log)
	} else {
		log.Info().Msg("GOOGLE_CLIENT_ID/SECRET not set; federated login disabled")
	}

	var adminHandler *handlers.AdminHandler
	if cfg.Admin.Secret != "" {
		adminHandler = handlers.NewAdminHandler(registerUC, tracker, emitter, log)
	}

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:   authHandler,
		HealthHandler: healthHandler,
		OAuthHandler:  oauthHandler,
		AdminHandler:  adminHandler,
		RequireAdmin:  middleware.RequireAdminSecret(cfg.Admin.Secret),
		Log:           log,
		Secure:        middleware.NewSecure(middleware.SecureOptions(cfg.Secure.Development)),
		CORS:          middleware.CORS(cfg.CORS.AllowedOrigins, nil, nil),
		Metrics:       true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("store", cfg.Store.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	log.Info().Msg("server stopped")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if cfg.Format == "json" {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log.Level(level).With().Timestamp().Str("service", "authgate").Logger()
}

// openStore connects the configured credential store and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.AccountRepository, func()) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.Store.PostgresURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to database")
		}
		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("ping database")
		}
		repo := postgres.NewAccountRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("migrate accounts table")
		}
		return repo, pool.Close
	case config.StoreMemory:
		log.Warn().Msg("STORE_DRIVER=memory: accounts are lost on restart")
		return memory.NewAccountRepository(), func() {}
	default:
		dbService, err := mongodb.NewDBService(mongodb.DBConfig{
			URI:      cfg.Store.Mongo.URI,
			Database: cfg.Store.Mongo.Database,
			Timeout:  int(cfg.Store.Mongo.Timeout / time.Second),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("connect to mongodb")
		}
		repo := mongodb.NewAccountRepository(dbService)
		if err := repo.CreateIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("create account indexes")
		}
		return repo, func() {
			if err := dbService.Close(context.Background()); err != nil {
				log.Warn().Err(err).Msg("close mongodb")
			}
		}
	}
}

func newHasher(cfg config.PasswordConfig) ports.PasswordHasher {
	argon := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	})
	bc := security.NewBcryptHasher(cfg.BcryptCost)
	if cfg.Hasher == config.HasherBcrypt {
		return security.NewMultiHasher(bc, argon)
	}
	return security.NewMultiHasher(argon, bc)
}
