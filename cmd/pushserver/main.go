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

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"movie-social/internal/config"
	"movie-social/internal/handlers/pushserver"
	appKafka "movie-social/internal/kafka"
	kafkahandlers "movie-social/internal/kafka/handlers"
	"movie-social/internal/logger"
	"movie-social/internal/metrics"
	appRedis "movie-social/internal/redis"
	ws "movie-social/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}
	lg := logger.NewLogger(cfg.LogLevel).With(zap.String("app", cfg.AppName), zap.String("component", "pushserver"))
	defer lg.Sync()

	redisClient, err := appRedis.NewClient(context.Background(), cfg.Redis)
	if err != nil {
		lg.Fatal("无法连接到 Redis", zap.Error(err))
	}
	defer redisClient.Close()
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	hub := ws.NewHub(lg)

	// 每个推送实例使用独立的消费者组，才能收到推送主题上的全部消息
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = fmt.Sprintf("pid-%d", os.Getpid())
	}
	groupID := fmt.Sprintf("%s-%s", cfg.Kafka.PushConsumerGroup, hostname)

	pushConsumer, err := appKafka.NewPushConsumer(cfg.Kafka, lg)
	if err != nil {
		lg.Fatal("无法创建推送 Kafka 消费者", zap.Error(err))
	}
	defer pushConsumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	var consumers sync.WaitGroup
	consumers.Add(1)
	go func() {
		defer consumers.Done()
		pushLogic := kafkahandlers.NewPushConsumerLogic(hub, cfg.Kafka.PushMaxAge, lg)
		err := pushConsumer.Consume(consumerCtx, []string{cfg.Kafka.PushTopic}, groupID, pushLogic.HandlePush)
		if err != nil && !errors.Is(err, context.Canceled) {
			lg.Error("推送消费者错误", zap.Error(err))
		}
	}()

	wsHandler := pushserver.NewWebSocketHandler(hub, tokenBlacklist, cfg, lg)
	r := mux.NewRouter()
	r.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWS)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		lg.Info("推送服务器启动", zap.String("addr", serverAddr), zap.String("ws_path", cfg.Server.WebSocketPath), zap.String("group_id", groupID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("推送服务器启动失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("收到关闭信号，正在关闭推送服务器...")

	cancelConsumers()
	consumers.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("推送服务器强制关闭", zap.Error(err))
	}
	lg.Info("推送服务器已成功关闭")
}
