package repository

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/deppfellow/classroom/internal/server"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterRedis answers INCR, TTL and EXPIRE from memory so commands never
// reach a connection.
type counterRedis struct {
	counts     map[string]int64
	ttls       map[string]time.Duration
	expires    int
	failExpire bool
}

func (f *counterRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("no network in tests")
	}
}

func (f *counterRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		key, _ := cmd.Args()[1].(string)
		if cmd.Name() != "expire" {
			return errors.New("unexpected command " + cmd.Name())
		}

		f.expires++
		if f.failExpire {
			err := errors.New("connection reset")
			cmd.SetErr(err)
			return err
		}
		f.ttls[key] = time.Minute
		cmd.(*redis.BoolCmd).SetVal(true)
		return nil
	}
}

func (f *counterRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			switch cmd.Name() {
			case "incr":
				key := cmd.Args()[1].(string)
				f.counts[key]++
				cmd.(*redis.IntCmd).SetVal(f.counts[key])
			case "ttl":
				key := cmd.Args()[1].(string)
				ttl, ok := f.ttls[key]
				if !ok {
					ttl = -1
				}
				cmd.(*redis.DurationCmd).SetVal(ttl)
			}
		}
		return nil
	}
}

func TestRateLimitIncrementSetsMissingWindow(t *testing.T) {
	ctx := context.Background()
	fake := &counterRedis{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(fake)
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRateLimitRepository(&server.Server{Redis: client})

	fake.failExpire = true
	count, err := repo.Increment(ctx, "auth:ip:10.0.0.1", time.Minute)
	require.Error(t, err)
	assert.Equal(t, int64(1), count)
	assert.NotContains(t, fake.ttls, "rate_limit:auth:ip:10.0.0.1")

	fake.failExpire = false
	count, err = repo.Increment(ctx, "auth:ip:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, time.Minute, fake.ttls["rate_limit:auth:ip:10.0.0.1"], "the next hit repairs the window")

	count, err = repo.Increment(ctx, "auth:ip:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, 2, fake.expires, "a key with a window is not expired again")
}
