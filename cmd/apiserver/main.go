package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"movie-social/internal/config"
	"movie-social/internal/events"
	"movie-social/internal/handlers/apiserver"
	appKafka "movie-social/internal/kafka"
	kafkahandlers "movie-social/internal/kafka/handlers"
	"movie-social/internal/logger"
	"movie-social/internal/metrics"
	"movie-social/internal/middleware"
	appRedis "movie-social/internal/redis"
	"movie-social/internal/services"
	"movie-social/internal/storage"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}
	lg := logger.NewLogger(cfg.LogLevel).With(zap.String("app", cfg.AppName), zap.String("component", "apiserver"))
	defer lg.Sync()

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database, lg)
	if err != nil {
		lg.Fatal("无法初始化数据库", zap.Error(err))
	}
	if err := storage.AutoMigrateTables(db, lg); err != nil {
		lg.Warn("数据库表迁移可能失败", zap.Error(err))
	}

	// 3. Redis 令牌黑名单
	redisClient, err := appRedis.NewClient(context.Background(), cfg.Redis)
	if err != nil {
		lg.Fatal("无法连接到 Redis", zap.Error(err))
	}
	defer redisClient.Close()
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	// 4. Kafka 生产者：领域事件 + 推送
	producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka, lg)
	if err != nil {
		lg.Fatal("无法创建 Kafka 生产者", zap.Error(err))
	}
	defer producer.Close()
	dispatcher := appKafka.NewEventDispatcher(producer, cfg.Kafka.EventsTopic, lg)
	pushPublisher := appKafka.NewPushPublisher(producer, cfg.Kafka.PushTopic)

	// 5. Repositories
	userRepo := storage.NewGormUserRepository(db)
	relRepo := storage.NewGormRelationshipRepository(db)
	notifRepo := storage.NewGormNotificationRepository(db)
	followRepo := storage.NewGormFollowRepository(db)
	catalogRepo := storage.NewGormCatalogRepository(db)

	// 6. Services
	relService := services.NewRelationshipService(db, userRepo, relRepo, dispatcher, lg)
	notifService := services.NewNotificationService(notifRepo, pushPublisher, cfg.Notifications, lg)
	fanoutService := services.NewFanoutService(notifRepo, followRepo, relRepo, userRepo, pushPublisher, lg)
	catalogService := services.NewCatalogService(catalogRepo, dispatcher, lg)
	followService := services.NewFollowService(followRepo, catalogRepo)

	eventRouter := events.NewRouter(lg)
	fanoutService.Register(eventRouter)

	// 7. 路由
	r := mux.NewRouter()
	r.Use(metrics.Middleware)
	apiserver.RegisterRoutes(r, apiserver.Handlers{
		Relationships: apiserver.NewRelationshipHandler(relService, lg),
		Notifications: apiserver.NewNotificationHandler(notifService, lg),
		Follows:       apiserver.NewFollowHandler(followService, lg),
		Catalog:       apiserver.NewCatalogHandler(catalogService, lg),
	}, middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, tokenBlacklist))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// 8. fan-out 消费者，所有 API 实例共享一个消费者组
	fanoutConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka, lg)
	if err != nil {
		lg.Fatal("无法创建 fan-out Kafka 消费者", zap.Error(err))
	}
	defer fanoutConsumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	var consumers sync.WaitGroup
	consumers.Add(1)
	go func() {
		defer consumers.Done()
		eventLogic := kafkahandlers.NewEventConsumerLogic(eventRouter, lg)
		err := fanoutConsumer.Consume(consumerCtx, []string{cfg.Kafka.EventsTopic}, cfg.Kafka.ConsumerGroup, eventLogic.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			lg.Error("fan-out 消费者错误", zap.Error(err))
		}
	}()

	// 9. 启动 HTTP 服务器并实现优雅关闭
	cors := cfg.APIServer.CORS
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cors.AllowedOrigins),
		handlers.AllowedMethods(cors.AllowedMethods),
		handlers.AllowedHeaders(cors.AllowedHeaders),
		handlers.ExposedHeaders(cors.ExposedHeaders),
		handlers.MaxAge(cors.MaxAge),
	}
	if cors.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}

	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handlers.CORS(corsOptions...)(r),
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("API 服务器启动", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("API 服务器启动失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		lg.Error("API 服务器强制关闭", zap.Error(err))
	}

	cancelConsumers()
	consumers.Wait()
	lg.Info("API 服务器已成功关闭")
}
