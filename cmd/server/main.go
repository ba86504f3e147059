package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RuralCare/internal/emergency"
	handlers "RuralCare/internal/handler"
	"RuralCare/internal/models"
	"RuralCare/internal/triage"
	"RuralCare/pkg/backup"
	"RuralCare/pkg/cache"
	"RuralCare/pkg/config"
	"RuralCare/pkg/llm"
	"RuralCare/pkg/logger"
	"RuralCare/pkg/metrics"
	"RuralCare/pkg/middleware"
	"RuralCare/pkg/scheduler"
	"RuralCare/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const (
	jobTimeout      = 10 * time.Minute
	shutdownTimeout = 5 * time.Second
)

func main() {
	seed := flag.Bool("seed", false, "insert demo data when the database is empty")
	flag.Parse()

	// 1) 配置与日志
	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig
	if err := logger.Init(&cfg.Log, cfg.Mode); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2) 数据库
	var sqlLog io.Writer
	if cfg.Mode != "production" {
		sqlLog = os.Stdout
	}
	db, err := util.InitDatabase(sqlLog, cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Lg.Fatal("open database", zap.Error(err))
	}
	if err := models.Migrate(db); err != nil {
		logger.Lg.Fatal("migrate", zap.Error(err))
	}
	if err := middleware.MigrateOperationLog(db); err != nil {
		logger.Lg.Fatal("migrate operation log", zap.Error(err))
	}
	if *seed || cfg.SeedDemo {
		inserted, err := models.SeedDemo(db)
		if err != nil {
			logger.Lg.Fatal("seed demo data", zap.Error(err))
		}
		logger.Info("demo data", zap.Bool("inserted", inserted))
	}

	// 3) 风险评估：未配置 key 时只用规则评分
	var client llm.Client
	if cfg.LLMApiKey != "" {
		lg := logrus.New()
		lg.SetOutput(os.Stdout)
		client = llm.NewOpenAIHandler(cfg.LLMApiKey, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMTimeout, lg)
	} else {
		logger.Warn("LLM_API_KEY not set, using rule-based risk assessment only")
	}
	m := metrics.NewMetrics()
	svc := emergency.NewService(db, triage.NewClassifier(client), m)

	// 4) 缓存与限流，redis 模式下共用一个连接
	store, limiterStore, err := openStores(cfg.Cache)
	if err != nil {
		logger.Lg.Fatal("open cache", zap.Error(err))
	}
	defer store.Close()
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.RateLimit,
		Identifier: "ip+route",
		SkipPaths:  []string{cfg.APIPrefix + "/system/health"},
		AddHeaders: true,
	}, limiterStore).WithObserver(middleware.NewPrometheusObserver(m.Registry()))

	opts := []handlers.Option{
		handlers.WithCache(store),
		handlers.WithMetrics(m),
		handlers.WithRateLimiter(rl),
	}
	if cfg.GeoIPDB != "" {
		geo, err := middleware.OpenGeoIP(cfg.GeoIPDB)
		if err != nil {
			logger.Warn("geoip database unavailable", zap.String("path", cfg.GeoIPDB), zap.Error(err))
		} else {
			defer geo.Close()
			opts = append(opts, handlers.WithGeoLocator(geo))
		}
	}

	// 5) 定时任务
	cr := scheduler.NewCron(time.Local, jobTimeout)
	if _, err := cr.Add("reconcile-ambulances", cfg.ReconcileSchedule, scheduler.FuncJob(func(ctx context.Context) error {
		_, err := svc.Reconcile(ctx, true)
		return err
	})); err != nil {
		logger.Lg.Fatal("schedule reconcile", zap.Error(err))
	}
	if cfg.BackupEnabled {
		bc := backup.Config{Driver: cfg.DBDriver, DSN: cfg.DSN, Dir: cfg.BackupPath}
		if _, err := cr.Add("database-backup", cfg.BackupSchedule, scheduler.FuncJob(func(ctx context.Context) error {
			path, err := backup.Execute(ctx, db, bc)
			if err == nil {
				logger.Info("database backup written", zap.String("path", path))
			}
			return err
		})); err != nil {
			logger.Lg.Fatal("schedule backup", zap.Error(err))
		}
	}
	cr.Start()
	defer cr.Stop()

	// 6) HTTP
	engine := gin.New()
	engine.Use(logger.GinLogger(), logger.GinRecovery(true), metrics.MonitorMiddleware(m))
	handlers.NewHandlers(db, svc, opts...).Register(engine)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr), zap.String("mode", cfg.Mode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Lg.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down ...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}

// openStores 幂等缓存和限流存储。非 redis 时限流退回内存存储（返回 nil）
func openStores(cc cache.Config) (cache.Cache, limiter.Store, error) {
	if cc.Type != "redis" {
		store, err := cache.NewCache(cc)
		return store, nil, err
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cc.Redis.Addr,
		Password: cc.Redis.Password,
		DB:       cc.Redis.DB,
		PoolSize: cc.Redis.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}
	ls, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "ruralcare:limiter"})
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisCacheFromClient(client), ls, nil
}
