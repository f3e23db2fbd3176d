package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/domain"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "payment-service"), mr
}

func TestRedisStore_GetMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore(t)

	session, err := store.Get(context.Background(), domain.SessionKey{MemberID: 1, OrderID: 1})
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestRedisStore_SaveGetDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	key := domain.SessionKey{MemberID: 1, OrderID: 2}
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, domain.NewReadySession(key, "T123", now), 15*time.Minute))

	assert.True(t, mr.Exists("payment-service:session:1:2"))
	assert.Equal(t, 15*time.Minute, mr.TTL("payment-service:session:1:2"))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.SessionStateReady, got.State)
	assert.Equal(t, "T123", got.TID)
	assert.Equal(t, "2", got.PartnerOrderID)
	assert.Equal(t, "1", got.PartnerUserID)
	assert.True(t, now.Equal(got.CreatedAt))

	require.NoError(t, store.Delete(ctx, key))
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_SessionExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	key := domain.SessionKey{MemberID: 1, OrderID: 2}

	require.NoError(t, store.Save(ctx, domain.NewReadySession(key, "T1", time.Now()), time.Minute))
	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_SaveOverwritesWholeRecord(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	key := domain.SessionKey{MemberID: 5, OrderID: 6}

	session := domain.NewReadySession(key, "T1", time.Now())
	require.NoError(t, store.Save(ctx, session, time.Minute))
	require.True(t, session.MarkApproved(time.Now()))
	require.NoError(t, store.Save(ctx, session, time.Hour))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStateApproved, got.State)
	assert.Equal(t, "T1", got.TID)
	assert.Empty(t, got.PartnerOrderID)
	assert.Empty(t, got.PartnerUserID)
}

func TestRedisStore_GetCorruptRecord(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("payment-service:session:1:1", "not-json"))

	_, err := store.Get(context.Background(), domain.SessionKey{MemberID: 1, OrderID: 1})
	assert.ErrorContains(t, err, "failed to decode payment session")
}

func TestRedisStore_LockIsExclusive(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	key := domain.SessionKey{MemberID: 1, OrderID: 2}

	unlock, err := store.Lock(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("payment-service:lock:1:2"))

	_, err = store.Lock(ctx, key, 10*time.Second)
	assert.ErrorIs(t, err, ErrLocked)

	otherUnlock, err := store.Lock(ctx, domain.SessionKey{MemberID: 1, OrderID: 3}, 10*time.Second)
	require.NoError(t, err, "different order is not blocked")
	require.NoError(t, otherUnlock(ctx))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("payment-service:lock:1:2"))

	again, err := store.Lock(ctx, key, 10*time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisStore_UnlockDoesNotReleaseForeignLock(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	key := domain.SessionKey{MemberID: 1, OrderID: 2}

	unlock, err := store.Lock(ctx, key, time.Second)
	require.NoError(t, err)

	// 잠금이 만료되고 다른 요청이 새로 획득한 상황
	mr.FastForward(2 * time.Second)
	_, err = store.Lock(ctx, key, 10*time.Second)
	require.NoError(t, err)

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("payment-service:lock:1:2"), "stale unlock must not delete the new holder's lock")
}
