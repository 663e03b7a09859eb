//go:build integration

package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"
)

// RedisAddr returns the address of the test Redis instance. Integration
// tests skip when SUBGATE_TEST_REDIS_ADDR is unset.
func RedisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("SUBGATE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SUBGATE_TEST_REDIS_ADDR not set: no test Redis available")
	}
	return addr
}

// FlushRedis wipes the test Redis instance so each test starts clean.
func FlushRedis(t *testing.T, addr string) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flushing test Redis: %v", err)
	}
}
