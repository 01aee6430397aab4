package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisStore provides instance-scoped Redis storage for runs and rounds.
// It is safe for concurrent use.
type RedisStore struct {
	rdb          *redis.Client
	instanceName string
}

// NewRedisStore creates a store for the given instance namespace.
func NewRedisStore(redisOpts *redis.Options, instanceName string) (*RedisStore, error) {
	if err := ValidateInstance(instanceName); err != nil {
		return nil, err
	}
	return &RedisStore{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// SaveRun writes the run hash and indexes it by start time.
func (s *RedisStore) SaveRun(ctx context.Context, r *Run) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, RunKey(s.instanceName, r.ID), RunToHash(r))
		pipe.ZAdd(ctx, RunsKey(s.instanceName), redis.Z{Score: float64(r.StartedAtMs), Member: r.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write run to Redis: %w", err)
	}
	return nil
}

// GetRun returns (nil, redis.Nil) if the run does not exist.
func (s *RedisStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	hash, err := s.rdb.HGetAll(ctx, RunKey(s.instanceName, runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run from Redis: %w", err)
	}
	if len(hash) == 0 {
		return nil, redis.Nil
	}
	run, err := HashToRun(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize run: %w", err)
	}
	return run, nil
}

// AppendRound writes the round, indexes it by day and publishes it on the
// round events channel.
func (s *RedisStore) AppendRound(ctx context.Context, r *Round) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid round: %w", err)
	}
	hash, err := RoundToHash(r)
	if err != nil {
		return fmt.Errorf("failed to serialize round: %w", err)
	}
	event, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal round for event: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, RoundKey(s.instanceName, r.RunID, r.Day), hash)
		pipe.ZAdd(ctx, RoundsKey(s.instanceName, r.RunID), redis.Z{Score: float64(r.Day), Member: strconv.Itoa(r.Day)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write round to Redis: %w", err)
	}

	if err := s.rdb.Publish(ctx, RoundEventsChannel(s.instanceName), event).Err(); err != nil {
		return fmt.Errorf("failed to publish round event: %w", err)
	}
	return nil
}

// Rounds reads the day index and then every round hash in one pipeline.
func (s *RedisStore) Rounds(ctx context.Context, runID string, since, until int) ([]*Round, error) {
	upper := "+inf"
	if until > 0 {
		upper = strconv.Itoa(until)
	}
	days, err := s.rdb.ZRangeByScore(ctx, RoundsKey(s.instanceName, runID), &redis.ZRangeBy{
		Min: strconv.Itoa(since),
		Max: upper,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read rounds index: %w", err)
	}
	if len(days) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(days))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, d := range days {
			day, err := strconv.Atoi(d)
			if err != nil {
				return fmt.Errorf("invalid day %q in rounds index: %w", d, err)
			}
			cmds[i] = pipe.HGetAll(ctx, RoundKey(s.instanceName, runID, day))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read rounds: %w", err)
	}

	rounds := make([]*Round, 0, len(cmds))
	for _, cmd := range cmds {
		hash := cmd.Val()
		if len(hash) == 0 {
			continue
		}
		round, err := HashToRound(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize round: %w", err)
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

// ListRuns returns every indexed run, newest first.
func (s *RedisStore) ListRuns(ctx context.Context) ([]*Run, error) {
	ids, err := s.rdb.ZRevRange(ctx, RunsKey(s.instanceName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read runs index: %w", err)
	}

	runs := make([]*Run, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(ctx, id)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

// Subscription is an active Pub/Sub subscription to round events.
// Caller must call Close() when done.
type Subscription struct {
	events <-chan *Round
	errors <-chan error
	cancel func()
	done   <-chan struct{}
	once   sync.Once
}

// Events returns the channel of recorded rounds. It is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan *Round {
	return s.events
}

// Errors returns non-fatal subscription errors such as undecodable messages.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and waits for its goroutine to exit. Safe
// to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

// SubscribeRounds streams every round recorded in this instance. The
// subscription is confirmed before SubscribeRounds returns, so rounds
// appended afterwards are delivered.
func (s *RedisStore) SubscribeRounds(ctx context.Context) (*Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, RoundEventsChannel(s.instanceName))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to round events: %w", err)
	}

	eventsChan := make(chan *Round, 10)
	errorsChan := make(chan error, 10)
	done := make(chan struct{})
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(done)
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var round Round
				if err := json.Unmarshal([]byte(msg.Payload), &round); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal round event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &round:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
		done:   done,
	}, nil
}

var _ Store = (*RedisStore)(nil)
