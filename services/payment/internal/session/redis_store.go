package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/domain"
)

// ErrLocked 다른 요청이 같은 (회원, 주문) 세션을 처리 중
var ErrLocked = errors.New("payment session is locked")

// UnlockFunc 잠금 해제 함수
type UnlockFunc func(ctx context.Context) error

// Store 결제 세션 저장소 인터페이스
type Store interface {
	// Get 세션 조회 (없으면 nil, nil)
	Get(ctx context.Context, key domain.SessionKey) (*domain.PaymentSession, error)
	// Save 세션 전체를 하나의 레코드로 저장
	Save(ctx context.Context, session *domain.PaymentSession, ttl time.Duration) error
	// Delete 세션 삭제
	Delete(ctx context.Context, key domain.SessionKey) error
	// Lock (회원, 주문) 단위 상호 배제. 이미 잠겨 있으면 ErrLocked
	Lock(ctx context.Context, key domain.SessionKey, ttl time.Duration) (UnlockFunc, error)
}

// unlockScript 자신이 획득한 잠금만 해제
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore Redis 기반 결제 세션 저장소
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore Redis 기반 결제 세션 저장소 생성
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Get 세션 조회
func (s *RedisStore) Get(ctx context.Context, key domain.SessionKey) (*domain.PaymentSession, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment session: %w", err)
	}

	var session domain.PaymentSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode payment session: %w", err)
	}
	return &session, nil
}

// Save 세션 저장 (ttl 0이면 만료 없음)
func (s *RedisStore) Save(ctx context.Context, session *domain.PaymentSession, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode payment session: %w", err)
	}

	if err := s.client.Set(ctx, s.sessionKey(session.Key()), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save payment session: %w", err)
	}
	return nil
}

// Delete 세션 삭제
func (s *RedisStore) Delete(ctx context.Context, key domain.SessionKey) error {
	if err := s.client.Del(ctx, s.sessionKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete payment session: %w", err)
	}
	return nil
}

// Lock SET NX PX 기반 잠금 획득
func (s *RedisStore) Lock(ctx context.Context, key domain.SessionKey, ttl time.Duration) (UnlockFunc, error) {
	lockKey := s.lockKey(key)
	token := uuid.New().String()

	acquired, err := s.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !acquired {
		return nil, ErrLocked
	}

	return func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, s.client, []string{lockKey}, token).Err(); err != nil {
			return fmt.Errorf("failed to release session lock: %w", err)
		}
		return nil
	}, nil
}

func (s *RedisStore) sessionKey(key domain.SessionKey) string {
	return fmt.Sprintf("%s:session:%d:%d", s.prefix, key.MemberID, key.OrderID)
}

func (s *RedisStore) lockKey(key domain.SessionKey) string {
	return fmt.Sprintf("%s:lock:%d:%d", s.prefix, key.MemberID, key.OrderID)
}
