package rdx

import (
	"log"
	"os"
	"time"

	"vermilion/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

// RdxSet stores a value with an optional TTL (0 means no expiry).
func RdxSet(key, value string, ttl time.Duration) error {
	return Conn.Set(globals.Ctx, key, value, ttl).Err()
}

// RdxGet returns "" when the key is missing.
func RdxGet(key string) (string, error) {
	val, err := Conn.Get(globals.Ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func RdxDel(key string) {
	if err := Conn.Del(globals.Ctx, key).Err(); err != nil {
		log.Println("Redis DEL error for key", key, ":", err)
	}
}
