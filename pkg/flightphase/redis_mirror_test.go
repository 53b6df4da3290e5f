package flightphase

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisMirror_SetAndGet(t *testing.T) {
	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	mirror := NewRedisMirror(client)
	ctx := context.Background()

	require.NoError(t, mirror.Set(ctx, "eta:1:poi-1:0:1:100", `{"eta_seconds":42}`, time.Minute))

	val, err := mirror.Get(ctx, "eta:1:poi-1:0:1:100")
	require.NoError(t, err)
	require.Equal(t, `{"eta_seconds":42}`, val)
}

func TestRedisMirror_GetMissingKeyReturnsEmpty(t *testing.T) {
	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	mirror := NewRedisMirror(client)
	val, err := mirror.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Equal(t, "", val)
}
