package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisLockPrefix = "caquick:testutil:db_lock:"
	redisLockTTL    = 30 * time.Minute
	maxRedisDB      = 15
)

// redisCandidates lists addresses to probe: REDIS_ADDR alone when set, otherwise the
// docker-compose test port followed by the usual CI service names.
func redisCandidates() []string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return []string{addr}
	}
	return []string{"localhost:56379", "redis:6379", "localhost:6379"}
}

func pingRedis(addr string) error {
	c := redis.NewClient(&redis.Options{Addr: addr})
	defer c.Close() //nolint:errcheck // probe client

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.Ping(ctx).Err()
}

// SetupTestRedis returns a client on an empty logical DB that no other test package holds.
// It skips the test when no Redis answers.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr := ""
	for _, candidate := range redisCandidates() {
		err := pingRedis(candidate)
		if err == nil {
			addr = candidate
			break
		}
		t.Logf("redis not available at %s: %v", candidate, err)
	}
	if addr == "" {
		unavailable(t, requireRedis(), "redis not available for testing")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, addr)})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("close test redis: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush test redis db: %v", err)
	}
	return client
}

// reserveRedisDB picks a logical DB so parallel test packages do not flush each other.
// TEST_REDIS_DB wins when valid; otherwise the first free slot in 1..15 is claimed with a
// lock key in DB 0, which the flush of the chosen DB cannot remove. Falls back to DB 1.
func reserveRedisDB(t TestingTB, addr string) int {
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
		t.Logf("ignoring invalid TEST_REDIS_DB=%q", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr})
	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())

	for i := 1; i <= maxRedisDB; i++ {
		key := redisLockPrefix + strconv.Itoa(i)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := meta.SetNX(ctx, key, owner, redisLockTTL).Result()
		cancel()
		if err != nil || !ok {
			continue
		}
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := meta.Del(ctx, key).Err(); err != nil {
				t.Logf("release redis db lock %s: %v", key, err)
			}
			_ = meta.Close()
		})
		return i
	}

	_ = meta.Close()
	t.Logf("no free redis db slot at %s, using DB 1", addr)
	return 1
}
