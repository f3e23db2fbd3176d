package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config 재시도 설정
type Config struct {
	MaxAttempts        int
	InitialInterval    time.Duration
	MaxInterval        time.Duration
	BackoffCoefficient float64
	MaxElapsedTime     time.Duration
	// Retryable nil이면 모든 에러를 재시도
	Retryable func(error) bool
}

// DefaultConfig 기본 재시도 설정
func DefaultConfig() Config {
	return Config{
		MaxAttempts:        5,
		InitialInterval:    time.Second,
		MaxInterval:        time.Minute,
		BackoffCoefficient: 2.0,
		MaxElapsedTime:     time.Minute * 5,
	}
}

// Do 재시도 실행
func Do(ctx context.Context, config Config, logger *zap.Logger, fn func(ctx context.Context) error) error {
	var lastErr error
	interval := config.InitialInterval
	startTime := time.Now()

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if config.MaxElapsedTime > 0 && time.Since(startTime) > config.MaxElapsedTime {
			return fmt.Errorf("max elapsed time exceeded: %w", lastErr)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		// 재시도 불가능한 에러는 즉시 반환
		if config.Retryable != nil && !config.Retryable(err) {
			return err
		}

		logger.Warn("retry attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", config.MaxAttempts),
			zap.Error(err))

		if attempt == config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		// exponential backoff
		interval = time.Duration(float64(interval) * config.BackoffCoefficient)
		if interval > config.MaxInterval {
			interval = config.MaxInterval
		}
	}

	return fmt.Errorf("max attempts reached: %w", lastErr)
}
