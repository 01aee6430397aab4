package ledger

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend names a Store implementation.
type Backend string

const (
	// BackendNone keeps runs in memory for the life of the process.
	BackendNone Backend = "none"

	// BackendRedis records into a Redis server and publishes round events.
	BackendRedis Backend = "redis"

	// BackendBolt records into a local bbolt file.
	BackendBolt Backend = "bolt"
)

// Validate checks if the Backend is a known value.
func (b Backend) Validate() error {
	switch b {
	case BackendNone, BackendRedis, BackendBolt:
		return nil
	default:
		return fmt.Errorf("unknown ledger backend: %q (must be 'none', 'redis' or 'bolt')", b)
	}
}

// Options selects and configures a backend.
type Options struct {
	Backend  Backend
	RedisURL string
	BoltPath string
	Instance string
}

// Open returns the Store described by opts.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendNone, "":
		return NewMemoryStore(), nil
	case BackendRedis:
		redisOpts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return NewRedisStore(redisOpts, opts.Instance)
	case BackendBolt:
		if opts.BoltPath == "" {
			return nil, fmt.Errorf("bolt backend needs a file path")
		}
		return OpenBoltStore(opts.BoltPath)
	default:
		return nil, opts.Backend.Validate()
	}
}
