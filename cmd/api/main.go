package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-hotel-reservation/internal/api"
	"github.com/sanosuguru/go-hotel-reservation/internal/api/handler"
	custommw "github.com/sanosuguru/go-hotel-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-hotel-reservation/internal/application"
	"github.com/sanosuguru/go-hotel-reservation/internal/config"
	"github.com/sanosuguru/go-hotel-reservation/internal/infrastructure/email"
	"github.com/sanosuguru/go-hotel-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-hotel-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-hotel-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-hotel-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-hotel-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-hotel-reservation/internal/worker"
)

func main() {
	// .env ファイルがあれば読み込む（ローカル開発用）
	_ = godotenv.Load()

	cfg := config.Load()

	env := os.Getenv("APP_ENV")
	logger.Set(logger.NewLogger(env))
	defer logger.Sync()

	m := metrics.Init()

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis（接続できない場合はロック・キャッシュ・レート制限なしで続行）
	var (
		lockManager  redisinfra.LockManagerInterface
		balanceCache redisinfra.BalanceCacheInterface
		rateLimiter  custommw.RateLimiterInterface
	)
	redisClient := redisinfra.NewClient(&cfg.Redis)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisinfra.Ping(pingCtx, redisClient); err != nil {
		logger.Warn("Redis接続に失敗。分散ロックなしで続行します", zap.Error(err))
	} else {
		lockManager = redisinfra.NewLockManager(redisClient)
		balanceCache = redisinfra.NewBalanceCache(redisClient)
		rateLimiter = redisinfra.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer redisClient.Close()
	}
	pingCancel()

	// RabbitMQ（接続できない場合は通知なしで続行）
	var notifier application.Notifier
	publisher, err := rabbitmq.NewPublisher(&cfg.RabbitMQ)
	if err != nil {
		logger.Warn("RabbitMQ接続に失敗。通知なしで続行します", zap.Error(err))
	} else {
		notifier = publisher
		defer publisher.Close()
	}

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	reservationRepo := postgres.NewReservationRepository(db)
	roomRepo := postgres.NewRoomRepository(db)
	loyaltyRepo := postgres.NewLoyaltyRepository(db)

	// サービス
	emailSender := email.NewLogSender()
	reservationService := application.NewReservationService(
		txManager, reservationRepo, roomRepo, loyaltyRepo,
		lockManager, balanceCache, notifier, emailSender,
	)
	loyaltyService := application.NewLoyaltyService(
		txManager, loyaltyRepo, lockManager, balanceCache, notifier,
	)
	roomService := application.NewRoomService(roomRepo)

	// バックグラウンドワーカー
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	cleaner := worker.NewPaymentExpiryCleaner(
		reservationService, cfg.Worker.CleanupInterval, cfg.Worker.PaymentPendingTTL,
	)
	go cleaner.Start(workerCtx)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	custommw.SetupMiddleware(e)
	e.Use(custommw.PrometheusMiddleware(m))

	// ハンドラー
	healthHandler := handler.NewHealthHandler()
	roomHandler := handler.NewRoomHandler(roomService, reservationService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	loyaltyHandler := handler.NewLoyaltyHandler(loyaltyService)

	// ルーティング
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommw.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.Use(custommw.Auth(cfg.Auth.JWTSecret))
	v1.Use(custommw.RateLimit(rateLimiter))

	v1.GET("/rooms", roomHandler.List)
	v1.GET("/rooms/:id", roomHandler.GetByID)
	v1.GET("/rooms/:id/availability", roomHandler.Availability)

	v1.POST("/reservations", reservationHandler.Create)
	v1.GET("/reservations", reservationHandler.GetMine)
	v1.GET("/reservations/:id", reservationHandler.GetByID)
	v1.PATCH("/reservations/:id", reservationHandler.Modify)
	v1.POST("/reservations/:id/cancel", reservationHandler.Cancel)
	v1.POST("/reservations/:id/confirm", reservationHandler.Confirm)
	v1.POST("/reservations/:id/check-in", reservationHandler.CheckIn)
	v1.POST("/reservations/:id/check-out", reservationHandler.CheckOut)

	v1.GET("/loyalty/balance", loyaltyHandler.Balance)
	v1.GET("/loyalty/ledger", loyaltyHandler.Ledger)
	v1.POST("/loyalty/redemptions", loyaltyHandler.Redeem)
	v1.GET("/loyalty/redemptions/:id", loyaltyHandler.GetRedemption)
	v1.POST("/loyalty/adjustments", loyaltyHandler.Adjust)

	// サーバー起動
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// ワーカーを先に止めてからHTTPを閉じる
	cleaner.Stop()
	workerCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
