package testing

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// StartMiniredis starts an in-process Redis server for testing.
//
// miniredis runs Lua scripts and pub/sub but never emits keyspace
// notifications and does not let TTLs elapse on its own. Tests advance time
// with FastForward and simulate notifications with Publish on the keyevent
// channels. Whether the store's scripts themselves cause the right
// notifications is only covered against a real server, see ConnectRedis.
//
// Parameters:
//   - t: Testing context for cleanup
//
// Returns:
//   - *miniredis.Miniredis: The server, for FastForward and direct inspection
//   - *redis.Client: Connected client (closed automatically on test completion)
//
// Example:
//
//	mr, client := radtest.StartMiniredis(t)
//	st := store.NewRedis(client, store.WithConfigureNotifications(false))
//	mr.FastForward(time.Second)
func StartMiniredis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
	})

	return mr, client
}

// RedisAddrEnv names the environment variable holding the address of a real
// Redis server for integration tests.
const RedisAddrEnv = "RADICCHIO_REDIS_ADDR"

// RedisTestDB is the logical database integration tests use. It is flushed
// before and after each test.
const RedisTestDB = 15

// ConnectRedis connects to the real Redis server named by RADICCHIO_REDIS_ADDR
// and skips the test when the variable is unset.
//
// Use it for behavior miniredis cannot show, above all the keyspace
// notifications the store's scripts cause. Database 15 is flushed, so never
// point it at a server holding data you care about.
//
// Parameters:
//   - t: Testing context for skipping and cleanup
//
// Returns:
//   - *redis.Client: Client bound to RedisTestDB (closed automatically on test completion)
func ConnectRedis(t testing.TB) *redis.Client {
	t.Helper()

	addr := os.Getenv(RedisAddrEnv)
	if addr == "" {
		t.Skipf("%s not set, skipping real Redis test", RedisAddrEnv)
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: RedisTestDB})
	ctx := context.Background()
	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("Failed to prepare Redis at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}
