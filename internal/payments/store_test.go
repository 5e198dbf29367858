package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

// sessionStores lists every SessionStore implementation; each must pass the
// same behaviour tests.
var sessionStores = []struct {
	name string
	new  func(t *testing.T) SessionStore
}{
	{"memory", func(t *testing.T) SessionStore { return NewMemoryStore() }},
	{"redis", func(t *testing.T) SessionStore {
		store, _ := newRedisStore(t)
		return store
	}},
}

func testSession(reference string) *Session {
	now := time.Now()
	return &Session{
		Reference: reference,
		Token:     "t",
		UserID:    "user-1",
		Currency:  "NGN",
		Metadata:  map[string]string{"k": "v"},
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
	}
}

func TestSessionStores(t *testing.T) {
	for _, impl := range sessionStores {
		t.Run(impl.name, func(t *testing.T) {
			t.Run("CreateRejectsExistingReference", func(t *testing.T) {
				store := impl.new(t)
				ctx := context.Background()
				require.NoError(t, store.Create(ctx, testSession("R1")))
				assert.ErrorIs(t, store.Create(ctx, testSession("R1")), ErrReferenceTaken)
				require.NoError(t, store.Create(ctx, testSession("R2")))
			})

			t.Run("GetReturnsIndependentCopies", func(t *testing.T) {
				store := impl.new(t)
				ctx := context.Background()
				require.NoError(t, store.Create(ctx, testSession("R1")))

				_, err := store.Get(ctx, "missing")
				assert.ErrorIs(t, err, ErrSessionNotFound)

				got, err := store.Get(ctx, "R1")
				require.NoError(t, err)
				assert.Equal(t, "t", got.Token)
				assert.Equal(t, "user-1", got.UserID)
				assert.False(t, got.Resolved())
				got.Metadata["k"] = "changed"

				again, err := store.Get(ctx, "R1")
				require.NoError(t, err)
				assert.Equal(t, "v", again.Metadata["k"])
			})

			t.Run("ResolveLatchesFirstOutcome", func(t *testing.T) {
				store := impl.new(t)
				ctx := context.Background()
				require.NoError(t, store.Create(ctx, testSession("R1")))

				_, err := store.Resolve(ctx, "missing", Cancel(), time.Now())
				assert.ErrorIs(t, err, ErrSessionNotFound)

				resolved, err := store.Resolve(ctx, "R1", Cancel(), time.Now())
				require.NoError(t, err)
				assert.Equal(t, OutcomeCancel, resolved.Outcome.Kind)
				require.NotNil(t, resolved.ResolvedAt)

				current, err := store.Resolve(ctx, "R1", Success(map[string]any{"status": "success"}), time.Now())
				assert.ErrorIs(t, err, ErrSessionResolved)
				require.NotNil(t, current)
				assert.Equal(t, OutcomeCancel, current.Outcome.Kind)

				stored, err := store.Get(ctx, "R1")
				require.NoError(t, err)
				assert.Equal(t, OutcomeCancel, stored.Outcome.Kind)
			})

			t.Run("ConcurrentResolveHasOneWinner", func(t *testing.T) {
				store := impl.new(t)
				ctx := context.Background()
				require.NoError(t, store.Create(ctx, testSession("R1")))

				var (
					wg     sync.WaitGroup
					mu     sync.Mutex
					wins   []OutcomeKind
					others int
				)
				for i := 0; i < 20; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						outcome := Cancel()
						if i%2 == 0 {
							outcome = Success(map[string]any{"status": "success"})
						}
						_, err := store.Resolve(ctx, "R1", outcome, time.Now())
						mu.Lock()
						defer mu.Unlock()
						switch {
						case err == nil:
							wins = append(wins, outcome.Kind)
						case errors.Is(err, ErrSessionResolved):
							others++
						default:
							t.Errorf("unexpected error: %v", err)
						}
					}(i)
				}
				wg.Wait()

				require.Len(t, wins, 1)
				assert.Equal(t, 19, others)
				stored, err := store.Get(ctx, "R1")
				require.NoError(t, err)
				assert.Equal(t, wins[0], stored.Outcome.Kind)
			})
		})
	}
}

func TestRedisStore_KeepsTTLAcrossResolve(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, testSession("R1")))

	ttl := mr.TTL(redisKey("R1"))
	assert.Greater(t, ttl, redisRetention)

	_, err := store.Resolve(ctx, "R1", Failure("declined"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, ttl, mr.TTL(redisKey("R1")))
}

func TestRedisStore_ExpiredSessionStillStored(t *testing.T) {
	store, mr := newRedisStore(t)
	session := testSession("OLD")
	session.ExpiresAt = time.Now().Add(-48 * time.Hour)

	require.NoError(t, store.Create(context.Background(), session))
	assert.Equal(t, redisRetention, mr.TTL(redisKey("OLD")))
}

func TestRedisStore_ReportsCorruptValues(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set(redisKey("BAD"), "not json"))

	_, err := store.Get(context.Background(), "BAD")
	assert.ErrorContains(t, err, "failed to decode payment session")
}

func TestBridge_OverRedisLatchesOnce(t *testing.T) {
	store, _ := newRedisStore(t)
	b, _ := newTestBridgeWith(store, nil, true)
	session := present(t, b, "1000")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome := Cancel()
			if i%2 == 0 {
				outcome = Success(nil)
			}
			_, err := b.Resolve(context.Background(), session.Reference, session.Token, outcome)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrSessionResolved)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
