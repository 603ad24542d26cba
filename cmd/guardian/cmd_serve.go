package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"GuardianAI/internal/advisor"
	"GuardianAI/internal/alert"
	"GuardianAI/internal/chat"
	handlers "GuardianAI/internal/handler"
	"GuardianAI/internal/listeners"
	"GuardianAI/internal/location"
	"GuardianAI/internal/models"
	"GuardianAI/internal/reports"
	"GuardianAI/pkg/cache"
	"GuardianAI/pkg/config"
	"GuardianAI/pkg/llm"
	"GuardianAI/pkg/logger"
	"GuardianAI/pkg/metrics"
	"GuardianAI/pkg/middleware"
	"GuardianAI/pkg/notification"
	"GuardianAI/pkg/scheduler"
	"GuardianAI/pkg/search"
	"GuardianAI/pkg/sse"
	"GuardianAI/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	serveAddr string
	serveMode string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP API",
	Long: `Starts the gin API, the SSE event stream and, when MQTT_BROKER is set, the
MQTT location feed. Settings come from the environment and .env files.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides ADDR")
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "gin mode (debug, release, test), overrides MODE")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveMode != "" {
		cfg.Mode = serveMode
	}

	logWriter, err := logger.Init(cfg.Log, cfg.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	gin.SetMode(cfg.Mode)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	db, err := openAuditDB(logWriter, cfg, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := util.CloseDatabase(db); err != nil {
			logger.Warn("close audit db", zap.Error(err))
		}
	}()

	routeCache, err := cache.NewCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer routeCache.Close()

	client, err := llm.New(llm.Options{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
		Logger:   newLLMLogger(logWriter, cfg),
	})
	if err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("LLM_API_KEY is empty, advisor calls will fall back")
	}

	watcher := location.NewWatcher(location.WithMetrics(m))
	defer watcher.Close()

	contacts := models.DefaultContacts()
	trigger := alert.New(watcher, contacts, alert.WithMetrics(m))
	defer trigger.Close()

	adv := advisor.New(client, advisor.FromConfig(cfg), advisor.WithCache(routeCache), advisor.WithMetrics(m))
	reportIndex, err := search.NewMemory()
	if err != nil {
		return err
	}
	defer reportIndex.Close()
	store := reports.New(adv, reports.WithMetrics(m), reports.WithIndex(reportIndex))
	transcript := chat.New(adv, chat.WithMetrics(m))

	hub := sse.NewHub(cfg.SSEPingInterval)
	hub.OnDrop(m.RecordSSEDrop)
	hub.OnClientCount(m.SetSSEClients)

	listeners.InitAlertListeners(trigger, listeners.AlertDeps{
		DB:      db,
		SMS:     notification.NewSMS(notification.SMSConfig(cfg.SMS), notification.NewLogSMSClient(logger.Named("sms"))),
		Hub:     hub,
		Metrics: m,
	})
	listeners.InitStreamListeners(hub, store, transcript)
	listeners.ForwardLocations(ctx, watcher, hub)

	cron := scheduler.NewCron(time.Local, logger.Named("cron"))
	if cfg.ReportRetention > 0 {
		if _, err := cron.AddWithCtx(cfg.ReportPruneCron, func(context.Context) {
			store.Prune(cfg.ReportRetention)
		}); err != nil {
			return fmt.Errorf("schedule report pruning: %w", err)
		}
	}
	cron.Start()
	defer cron.Stop()

	if cfg.MQTT.Broker != "" {
		src := location.NewMQTTSource(location.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		}, watcher, logger.Named("mqtt"))
		go func() {
			if err := src.Run(ctx); err != nil {
				logger.Error("mqtt location source failed", zap.Error(err))
			}
		}()
	}

	limiterStore, closeStore, err := newLimiterStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.RateLimit,
		Identifier: "ip+route",
		AddHeaders: true,
	}, limiterStore).WithObserver(middleware.NewPrometheusObserver(reg))

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.AccessLog(logger.Named("http"), cfg.APIPrefix+"/system/health", cfg.APIPrefix+"/metrics"), metrics.GinMiddleware(m))

	h := handlers.NewHandlers(handlers.Deps{
		Config:    cfg,
		DB:        db,
		Watcher:   watcher,
		Trigger:   trigger,
		Contacts:  contacts,
		Reports:   store,
		Chat:      transcript,
		Routes:    adv,
		Hub:       hub,
		Metrics:   m,
		Limiter:   rateLimiter,
		IdemStore: middleware.NewCacheIdemStore(routeCache),
	})
	h.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
		// requests, the location websocket included, end with the signal
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	srv.RegisterOnShutdown(hub.Close)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("guardian listening", zap.String("addr", cfg.Addr), zap.String("prefix", cfg.APIPrefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openAuditDB(w io.Writer, cfg config.Config, m *metrics.Metrics) (*gorm.DB, error) {
	db, err := util.InitDatabase(w, cfg.DBDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.Use(metrics.NewGormPlugin(m)); err != nil {
		return nil, fmt.Errorf("register gorm metrics: %w", err)
	}
	if err := models.MigrateAlerts(db); err != nil {
		return nil, fmt.Errorf("migrate alerts: %w", err)
	}
	return db, nil
}

// newLLMLogger builds the logrus logger the provider clients use, on the
// same writer as the zap logger.
func newLLMLogger(w io.Writer, cfg config.Config) *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(w)
	if cfg.Mode == "release" {
		lg.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		lg.SetLevel(level)
	}
	return lg
}

// newLimiterStore shares counters through redis when the cache runs there,
// so every replica enforces one budget.
func newLimiterStore(cfg config.Config) (limiter.Store, func(), error) {
	if cfg.Cache.Type != "redis" && cfg.Cache.Type != "layered" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: cfg.Cache.Redis.KeyPrefix + "limiter",
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("init rate limiter store: %w", err)
	}
	return store, func() { _ = client.Close() }, nil
}
