package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisStore(t *testing.T) {
	t.Run("creates store successfully", func(t *testing.T) {
		store, _ := setupRedisStore(t)
		assert.Equal(t, "test-instance", store.instanceName)
		assert.NoError(t, store.Ping(context.Background()))
	})

	t.Run("rejects empty instance name", func(t *testing.T) {
		_, err := NewRedisStore(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "instance name cannot be empty")
	})
}

func TestRedisStore_Schema(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	run := newRun(500)
	require.NoError(t, store.SaveRun(ctx, run))
	require.NoError(t, store.AppendRound(ctx, newRound(run.ID, 1)))

	assert.True(t, mr.Exists(RunKey("test-instance", run.ID)))
	assert.True(t, mr.Exists(RoundKey("test-instance", run.ID, 1)))
	assert.Equal(t, "100", mr.HGet(RoundKey("test-instance", run.ID, 1), "signals"))
	assert.Equal(t, "fancy", mr.HGet(RunKey("test-instance", run.ID), "strategy"))

	members, err := mr.ZMembers(RoundsKey("test-instance", run.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, members)

	score, err := mr.ZScore(RunsKey("test-instance"), run.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(500), score)
}

func TestRedisStore_InstanceIsolation(t *testing.T) {
	store, mr := setupRedisStore(t)
	other, err := NewRedisStore(&redis.Options{Addr: mr.Addr()}, "other-instance")
	require.NoError(t, err)
	defer other.Close()
	ctx := context.Background()

	run := newRun(1)
	require.NoError(t, store.SaveRun(ctx, run))

	_, err = other.GetRun(ctx, run.ID)
	assert.True(t, IsNotFound(err))
	runs, err := other.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRedisStore_SubscribeRounds(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	sub, err := store.SubscribeRounds(ctx)
	require.NoError(t, err)
	defer sub.Close()

	runID := uuid.New().String()
	require.NoError(t, store.AppendRound(ctx, newRound(runID, 7)))

	select {
	case round := <-sub.Events():
		require.NotNil(t, round)
		assert.Equal(t, runID, round.RunID)
		assert.Equal(t, 7, round.Day)
		assert.Equal(t, []bool{false, true, false}, round.Lights)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for round event")
	}

	t.Run("bad payload goes to errors", func(t *testing.T) {
		mr.Publish(RoundEventsChannel("test-instance"), "{not json")
		select {
		case err := <-sub.Errors():
			assert.Contains(t, err.Error(), "failed to unmarshal round event")
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for error")
		}
	})
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	store, _ := setupRedisStore(t)
	sub, err := store.SubscribeRounds(context.Background())
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestSubscription_ContextCancel(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := store.SubscribeRounds(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, open := <-sub.Events():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after cancel")
	}
	require.NoError(t, sub.Close())
}
