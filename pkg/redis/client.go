package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultStreamMaxLen caps the digest history stream.
const DefaultStreamMaxLen = 1000

// Config holds the connection settings.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	// StreamMaxLen caps streams written with XAdd (0 = unlimited).
	StreamMaxLen int64
}

// ConfigFromEnv reads REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB and
// REDIS_STREAM_MAXLEN.
func ConfigFromEnv() Config {
	return Config{
		Host:         utils.Env("REDIS_HOST", "localhost"),
		Port:         utils.Env("REDIS_PORT", "6379"),
		Password:     utils.Env("REDIS_PASSWORD", ""),
		DB:           utils.EnvInt("REDIS_DB", 0),
		StreamMaxLen: int64(utils.EnvInt("REDIS_STREAM_MAXLEN", DefaultStreamMaxLen)),
	}
}

// Addr returns host:port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Client publishes dashboard digests over Pub/Sub and keeps a capped history
// in a stream.
type Client struct {
	client       *redis.Client
	logger       *zap.Logger
	streamMaxLen int64
}

// NewClient connects and pings Redis.
func NewClient(ctx context.Context, logger *zap.Logger, cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     4,
		MinIdleConns: 1,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
		zap.Int64("streamMaxLen", cfg.StreamMaxLen))

	return &Client{client: rdb, logger: logger, streamMaxLen: cfg.StreamMaxLen}, nil
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.client.Close()
}

// Publish sends message on channel and returns the number of subscribers
// that received it.
func (c *Client) Publish(ctx context.Context, channel string, message []byte) (int64, error) {
	n, err := c.client.Publish(ctx, channel, message).Result()
	if err != nil {
		c.logger.Warn("Failed to publish Redis message",
			zap.String("channel", channel),
			zap.Error(err))
		return 0, err
	}
	return n, nil
}

// Append adds message to stream under field "payload", trimming the stream
// to the configured length. It returns the entry id.
func (c *Client) Append(ctx context.Context, stream string, message []byte) (string, error) {
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"payload": message},
	}
	if c.streamMaxLen > 0 {
		args.MaxLen = c.streamMaxLen
		args.Approx = true
	}
	id, err := c.client.XAdd(ctx, args).Result()
	if err != nil {
		c.logger.Warn("Failed to add to Redis stream",
			zap.String("stream", stream),
			zap.Error(err))
		return "", err
	}
	return id, nil
}

// Health pings Redis.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
