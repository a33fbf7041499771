package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "post_market/docs"
	_ "post_market/internal/domain/cart"
	_ "post_market/internal/domain/category"
	_ "post_market/internal/domain/common"
	_ "post_market/internal/domain/menu"
	_ "post_market/internal/domain/photo"
	_ "post_market/internal/domain/post"
	_ "post_market/internal/domain/user"
	"post_market/internal/pkg/config"
	"post_market/internal/pkg/middleware"
	"post_market/internal/pkg/registry"
	"post_market/internal/pkg/uploader"
	"post_market/pkg/cache"
	"post_market/pkg/database"
	"post_market/pkg/logger"
	"post_market/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// @title Post Market API
// @version 1.0
// @description 帖子、分类、购物车与菜单接口
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	config.LoadConfig()
	cfg := config.GlobalConfig

	if err := logger.InitLogger(cfg.Server.Mode); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		logger.Log.Fatal("database unavailable", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Log.Fatal("get sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := metrics.RegisterDBStats(sqlDB, cfg.Database.DBName); err != nil {
		logger.Log.Warn("register db stats collector", zap.Error(err))
	}

	var rdb *redis.Client
	var store cache.CacheService
	if cfg.Cache.Enabled && cfg.Cache.Driver == "redis" {
		rdb, err = database.InitRedis(cfg.Redis)
		if err != nil {
			logger.Log.Fatal("redis unavailable", zap.Error(err))
		}
		defer rdb.Close()
		store = cache.NewRedisCache(rdb, "post_market")
	} else if cfg.Cache.Enabled {
		store = cache.NewMemoryCache()
	}
	responseCache := cache.NewResponseCache(store, cfg.Cache.TTLDuration(), cfg.Cache.Enabled, cfg.Cache.Driver)

	if err := uploader.InitUploader(cfg.OSS); err != nil {
		logger.Log.Warn("object storage disabled, photo upload will fail", zap.Error(err))
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.SecurityHeadersMiddleware(),
		cors.New(cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Trace-ID"},
			ExposeHeaders:    []string{"X-Trace-ID", "X-Cache"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.QPS), cfg.RateLimit.Burst)),
		metrics.Middleware(),
		middleware.GzipMiddleware("/metrics", "/swagger"),
	)

	if err := registry.InitModules(&registry.ModuleContext{
		DB:     db,
		Redis:  rdb,
		Router: r,
		Cache:  responseCache,
		Store:  store,
	}); err != nil {
		logger.Log.Fatal("init modules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Log.Info("server exited")
}
