package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SlpAus/falsifi-backend/api"
	"github.com/SlpAus/falsifi-backend/internal/adjudication"
	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/internal/platform/config"
	"github.com/SlpAus/falsifi-backend/internal/platform/database"
	"github.com/SlpAus/falsifi-backend/internal/platform/health"
	"github.com/SlpAus/falsifi-backend/internal/platform/metrics"
	"github.com/SlpAus/falsifi-backend/internal/platform/shutdown"
	"github.com/SlpAus/falsifi-backend/internal/platform/startup"
	"github.com/SlpAus/falsifi-backend/internal/user"
	"github.com/SlpAus/falsifi-backend/pkg/lifecycle"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/SlpAus/falsifi-backend/pkg/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 加载配置并初始化日志
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("加载配置失败")
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		logger.WithError(err).Fatal("初始化日志失败")
	}

	if cfg.Server.Session.Secret != "" {
		token.SetSecretKey([]byte(cfg.Server.Session.Secret))
	} else {
		logger.Warn("未配置会话密钥，使用随机密钥，重启后所有会话失效")
		token.GenerateSecretKey()
	}

	// 2. 连接数据库和Redis
	database.InitDB(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	ctx := context.Background()
	scorer := adjudication.NewFromConfig(cfg.Adjudication)
	if !scorer.Enabled() {
		logger.Warn("未配置评分模型API密钥，自动评分只使用启发式规则")
	}
	services := api.NewServices(database.DB, database.RDB, database.RedisAvailable, scorer, cfg.Points)

	// 3. 阻塞式获取初始Run ID
	var checker *health.Checker
	if database.RDB != nil {
		checker = health.NewChecker(database.RDB, services.Leaderboard.WarmCache)
		checker.Init(ctx)
	}

	// 4. 执行应用启动初始化流程
	err = startup.InitializeApplication(ctx, database.DB, services.Leaderboard, startup.Options{
		SeedDemoData: cfg.Seed.DemoData,
		BountyTTL:    cfg.Points.BountyTTL,
	})
	if err != nil {
		logger.WithError(err).Fatal("应用初始化失败，无法启动")
	}

	// 5. 启动后台服务
	manager := lifecycle.NewManager()
	if checker != nil {
		mustGo(manager, "redis-health", checker.Run)
	}
	if cfg.Bounty.ExpirySweep != "" {
		sweeper, err := bounty.NewExpirySweeper(database.DB, services.Bounties, cfg.Bounty.ExpirySweep)
		if err != nil {
			logger.WithError(err).Fatal("初始化过期扫描失败")
		}
		mustGo(manager, "bounty-expiry", sweeper.Run)
	}
	if interval := cfg.Leaderboard.RefreshInterval; interval > 0 {
		mustGo(manager, "leaderboard-refresh", func(h *lifecycle.Handle) {
			services.Leaderboard.RunRefresher(h, interval)
		})
	}

	// 6. 配置Gin
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", metrics.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", metrics.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	sessions := user.NewSessions(cfg.Server.Session.CookieName, cfg.Server.Session.TTL)
	api.SetupRoutes(r, api.NewHandlers(services, sessions, cfg.Points), api.Healthz(database.DB, func() string {
		if checker == nil {
			return "disabled"
		}
		return checker.State().String()
	}))

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		logger.Infof("服务器已准备就绪，开始监听 %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("服务器启动失败")
		}
	}()

	// 7. 阻塞直到收到停机信号
	finalizers := []shutdown.Finalizer{{Name: "database", Fn: func() error {
		sqlDB, err := database.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}}}
	if database.RDB != nil {
		finalizers = append([]shutdown.Finalizer{{Name: "redis", Fn: database.RDB.Close}}, finalizers...)
	}
	shutdown.NewCoordinator(manager, finalizers...).ListenForSignalsAndShutdown(server)
}

func mustGo(m *lifecycle.Manager, name string, fn func(h *lifecycle.Handle)) {
	if err := m.Go(name, fn); err != nil {
		logger.WithError(err).Fatal("启动后台服务失败")
	}
}
