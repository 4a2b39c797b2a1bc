package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/isheraz/stroll-test/internal/apperr"
)

// ConnState is the connection state of a RedisClient.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

type RedisOptions struct {
	Addr     string
	Password string
	TLS      bool
}

// RedisClient is the cache capability backed by Redis. Every operation first
// makes sure the client is Connected, reconnecting if an earlier call failed.
type RedisClient struct {
	client *redis.Client
	log    *logrus.Entry

	connMu sync.Mutex
	state  atomic.Int32

	// Metrics
	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisClient(ctx context.Context, opts RedisOptions, log *logrus.Entry) (*RedisClient, error) {
	ro := &redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     100,
		MinIdleConns: 10,
	}
	if opts.TLS {
		ro.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	r := &RedisClient{
		client: redis.NewClient(ro),
		log:    log,
	}

	if err := r.ensureConnected(ctx); err != nil {
		r.client.Close()
		return nil, err
	}
	return r, nil
}

func (r *RedisClient) State() ConnState {
	return ConnState(r.state.Load())
}

// ensureConnected moves Disconnected -> Connecting -> Connected. Concurrent
// callers wait on connMu so only one ping is in flight.
func (r *RedisClient) ensureConnected(ctx context.Context) error {
	if r.State() == Connected {
		return nil
	}

	r.connMu.Lock()
	defer r.connMu.Unlock()

	if r.State() == Connected {
		return nil
	}

	r.state.Store(int32(Connecting))
	r.log.Info("Redis client is not connected. Attempting to connect...")

	if err := r.client.Ping(ctx).Err(); err != nil {
		r.state.Store(int32(Disconnected))
		r.log.WithError(err).Warn("Redis connect failed")
		return apperr.Cache(err, "connect to redis")
	}

	r.state.Store(int32(Connected))
	r.log.Info("Connected to Redis successfully")
	return nil
}

// markDisconnected demotes the connection after a failed command. A failure
// caused by the caller's own context ending says nothing about the server.
func (r *RedisClient) markDisconnected(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	if r.state.CompareAndSwap(int32(Connected), int32(Disconnected)) {
		r.log.WithError(err).Warn("Redis client disconnected")
	}
}

// Get returns the cached value for key. A missing key is (", false, nil).
func (r *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	if err := r.ensureConnected(ctx); err != nil {
		return "", false, err
	}

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return "", false, nil
	}
	if err != nil {
		r.markDisconnected(ctx, err)
		return "", false, apperr.Cache(err, "get "+key)
	}

	r.hits.Add(1)
	return val, true, nil
}

// SetWithExpiry stores value under key for ttl (SET key value EX ttl).
func (r *RedisClient) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.ensureConnected(ctx); err != nil {
		return err
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.markDisconnected(ctx, err)
		return apperr.Cache(err, "set "+key)
	}
	return nil
}

func (r *RedisClient) HitRate() float64 {
	hits, misses := r.hits.Load(), r.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

func (r *RedisClient) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.markDisconnected(ctx, err)
		return apperr.Cache(err, "ping redis")
	}
	return nil
}

func (r *RedisClient) Close() error {
	r.state.Store(int32(Disconnected))
	r.log.Info("Shutting down Redis client")
	return r.client.Close()
}
