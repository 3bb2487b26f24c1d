package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"bridgeguard/internal/game"
)

const (
	SEED_KEY_PREFIX  = "seed:used:"
	DEBUG_KEY_PREFIX = "session:debug:"
)

var ErrDebugTraceNotFound = errors.New("debug trace not found")

// Service is the redis-backed store for one-shot seed claims and
// short-lived replay traces.
type Service interface {
	GetClient() *redis.Client
	Health() map[string]string
	Close() error

	// ClaimSeed marks a seed as consumed. It reports false when the seed was
	// already claimed inside ttl.
	ClaimSeed(ctx context.Context, seedHex string, ttl time.Duration) (bool, error)
	StoreDebugTrace(ctx context.Context, sessionID string, payload *game.DebugPayload, ttl time.Duration) error
	GetDebugTrace(ctx context.Context, sessionID string) (*game.DebugPayload, error)
}

type service struct {
	client *redis.Client
}

var (
	redisAddr     = getEnv("REDIS_URL", "localhost:6379")
	redisPassword = getEnv("REDIS_PASSWORD", "")
	redisDB       = getEnvAsInt("REDIS_DB", 0)
	cacheInstance *service
)

// New connects to the configured redis. It returns nil when redis is
// unreachable so the API can run without replay protection or debug traces.
func New() Service {
	if cacheInstance != nil {
		return cacheInstance
	}

	client := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     redisPassword,
		DB:           redisDB,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("[CACHE] Redis connection failed: %v", err)
		log.Println("[CACHE] Running without seed claims or debug traces")
		return nil
	}

	log.Println("[CACHE] Redis connected successfully")

	cacheInstance = &service{
		client: client,
	}

	return cacheInstance
}

// NewWithClient wraps an existing client without pinging it.
func NewWithClient(client *redis.Client) Service {
	return &service{client: client}
}

func (s *service) GetClient() *redis.Client {
	return s.client
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	_, err := s.client.Ping(ctx).Result()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("redis down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "Redis is healthy"

	poolStats := s.client.PoolStats()
	stats["hits"] = strconv.FormatUint(uint64(poolStats.Hits), 10)
	stats["misses"] = strconv.FormatUint(uint64(poolStats.Misses), 10)
	stats["timeouts"] = strconv.FormatUint(uint64(poolStats.Timeouts), 10)
	stats["total_conns"] = strconv.FormatUint(uint64(poolStats.TotalConns), 10)
	stats["idle_conns"] = strconv.FormatUint(uint64(poolStats.IdleConns), 10)

	return stats
}

func (s *service) Close() error {
	log.Println("[CACHE] Disconnecting from Redis")
	return s.client.Close()
}

func (s *service) ClaimSeed(ctx context.Context, seedHex string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, SEED_KEY_PREFIX+seedHex, time.Now().UnixMilli(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim seed: %w", err)
	}
	return ok, nil
}

func (s *service) StoreDebugTrace(ctx context.Context, sessionID string, payload *game.DebugPayload, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal debug trace: %w", err)
	}
	if err := s.client.Set(ctx, DEBUG_KEY_PREFIX+sessionID, data, ttl).Err(); err != nil {
		return fmt.Errorf("store debug trace: %w", err)
	}
	return nil
}

func (s *service) GetDebugTrace(ctx context.Context, sessionID string) (*game.DebugPayload, error) {
	data, err := s.client.Get(ctx, DEBUG_KEY_PREFIX+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDebugTraceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load debug trace: %w", err)
	}

	var payload game.DebugPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode debug trace: %w", err)
	}
	return &payload, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
