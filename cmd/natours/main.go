package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MrEthical07/natours"
	"github.com/MrEthical07/natours/account"
	"github.com/MrEthical07/natours/internal/appconfig"
	"github.com/MrEthical07/natours/internal/httpapi"
	natoursprom "github.com/MrEthical07/natours/metrics/export/prometheus"
	"github.com/MrEthical07/natours/notify"
	"github.com/MrEthical07/natours/store/memory"
	"github.com/MrEthical07/natours/store/mongo"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := appconfig.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := newLogger(cfg.Production())
	slog.SetDefault(logger)
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("natours stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(ctx context.Context, cfg *appconfig.Config, logger *slog.Logger) error {
	store, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var notifier natours.Notifier
	if smtp := smtpConfig(cfg); smtp.Configured() {
		if notifier, err = notify.NewSMTPNotifier(smtp, logger); err != nil {
			return err
		}
	} else {
		logger.Warn("SMTP not configured, mail is written to the log")
		notifier = notify.NewLogNotifier(logger)
	}

	engineCfg := natours.DefaultConfig()
	engineCfg.JWT.PrivateKey = []byte(cfg.JWTSecret)
	engineCfg.JWT.TTL = cfg.JWTExpiresIn
	engineCfg.Security.ProductionMode = cfg.Production()

	builder := natours.New().
		WithConfig(engineCfg).
		WithStore(store).
		WithNotifier(notifier).
		WithAuditSink(natours.NewSlogSink(logger.With(slog.String("component", "audit")))).
		WithLogger(logger)

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		builder.WithRedis(rdb)
	} else {
		logger.Warn("REDIS_URL not set, login and reset throttles are off")
	}

	if cfg.QueueRedisURL != "" {
		queue, err := notify.NewWelcomeQueue(cfg.QueueRedisURL)
		if err != nil {
			return err
		}
		defer queue.Close()
		builder.WithWelcomeSender(queue)

		worker, err := notify.NewWorker(cfg.QueueRedisURL, notifier, cfg.PublicBaseURL, logger)
		if err != nil {
			return err
		}
		if err := worker.Start(); err != nil {
			return err
		}
		defer worker.Shutdown()
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	api := httpapi.New(engine, httpapi.Options{
		Logger:         logger,
		CookieTTL:      cfg.JWTCookieExpireIn,
		SecureCookies:  cfg.Production(),
		PublicBaseURL:  cfg.PublicBaseURL,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        natoursprom.NewCollector(engine).Handler(),
		Health:         health,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("natours listening", slog.String("addr", httpServer.Addr), slog.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openStore connects to MongoDB. MONGO_URI=memory selects the in-process
// store for local runs.
func openStore(ctx context.Context, cfg *appconfig.Config, logger *slog.Logger) (account.Store, httpapi.Pinger, func(), error) {
	if strings.EqualFold(cfg.MongoURI, "memory") {
		if cfg.Production() {
			return nil, nil, nil, errors.New("the memory store is not allowed in production")
		}
		logger.Warn("using the in-memory account store")
		return memory.New(), nil, func() {}, nil
	}
	s, err := mongo.Connect(ctx, mongo.Config{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			logger.Error("mongo disconnect", slog.String("error", err.Error()))
		}
	}
	return s, s, closeFn, nil
}

func smtpConfig(cfg *appconfig.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	}
}
