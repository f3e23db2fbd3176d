package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kyungseok/msa-payment-gateway-go/common/logger"
	"github.com/kyungseok/msa-payment-gateway-go/common/messaging"
	"github.com/kyungseok/msa-payment-gateway-go/common/retry"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/auth"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/config"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/gateway"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/handler"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/repository"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/service"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/session"
)

func main() {
	// Config 로드
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// Logger 초기화
	log, err := logger.NewLoggerWithLevel("payment-service", cfg.LogDevelopment, cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	// PostgreSQL 연결 (주문 조회 전용)
	db, err := sql.Open("postgres", cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}
	log.Info("connected to database")

	// Redis 연결
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	log.Info("connected to redis")

	// Kafka Producer 초기화
	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.KafkaEnabled {
		kafkaPublisher, err := messaging.NewKafkaPublisher(cfg.KafkaBrokers, log)
		if err != nil {
			log.Fatal("failed to create kafka publisher", zap.Error(err))
		}
		publisher = kafkaPublisher
		log.Info("kafka publisher initialized")
	}
	defer publisher.Close()

	// Repository / Store / Gateway 초기화
	orderRepo := repository.NewOrderRepository(db)
	sessionStore := session.NewRedisStore(redisClient, cfg.RedisPrefix)
	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:    cfg.Gateway.BaseURL,
		CID:        cfg.Gateway.CID,
		AdminKey:   cfg.Gateway.AdminKey,
		AuthScheme: cfg.Gateway.AuthScheme,
		Timeout:    cfg.Gateway.Timeout,
	}, log)

	// Service 초기화
	paymentService := service.NewPaymentService(
		service.Config{
			PublicBaseURL:     cfg.Payment.PublicBaseURL,
			SessionTTL:        cfg.Payment.SessionTTL,
			ApprovedRetention: cfg.Payment.ApprovedRetention,
			LockTTL:           cfg.Payment.LockTTL,
		},
		service.NewOrderAggregator(orderRepo),
		sessionStore,
		gatewayClient,
		publisher,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka Consumer 초기화 (주문 취소 -> 결제 취소)
	if cfg.KafkaEnabled {
		// 잠금 충돌은 재시도 대상이므로 총 대기 시간(1+2+4+8+16s)이 LOCK_TTL 기본값보다 길게
		retryConfig := retry.DefaultConfig()
		retryConfig.MaxAttempts = 6
		eventHandler := handler.NewEventHandler(paymentService, cfg.OrderCanceledTopic, retryConfig, log)

		consumer, err := messaging.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, log)
		if err != nil {
			log.Fatal("failed to create kafka consumer", zap.Error(err))
		}
		defer consumer.Close()

		topics := []string{cfg.OrderCanceledTopic}
		if err := consumer.Subscribe(ctx, topics, eventHandler.HandleMessage); err != nil {
			log.Fatal("failed to subscribe to topics", zap.Error(err))
		}
		log.Info("subscribed to kafka topics", zap.Strings("topics", topics))
	}

	// HTTP Server 시작
	authenticator := auth.NewAuthenticator(cfg.JWTSecret, log)
	httpHandler := handler.NewHTTPHandler(paymentService, log)

	mux := http.NewServeMux()
	httpHandler.Register(mux, authenticator.Middleware)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.ServicePort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		// 게이트웨이 호출 시간보다 길게 유지
		WriteTimeout: cfg.Gateway.Timeout + 10*time.Second,
	}

	go func() {
		log.Info("http server starting", zap.String("port", cfg.ServicePort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	cancel() // consumer 종료
	log.Info("server stopped")
}
