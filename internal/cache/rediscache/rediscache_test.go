package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestTokenCache_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.GetToken(ctx, "UPS:abc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.SetToken(ctx, "UPS:abc", "tok", time.Minute))

	tok, ok, err := c.GetToken(ctx, "UPS:abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "tok", tok)
	require.Equal(t, time.Minute, mr.TTL(keyPrefix+"UPS:abc"))
}

func TestTokenCache_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.SetToken(ctx, "FEDEX:abc", "tok", 30*time.Second))

	mr.FastForward(31 * time.Second)

	_, ok, err := c.GetToken(ctx, "FEDEX:abc")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTokenCache_NonPositiveTTLSkipped(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.SetToken(ctx, "UPS:abc", "tok", 0))
	require.False(t, mr.Exists(keyPrefix+"UPS:abc"))
}

func TestTokenCache_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	mr.Close()

	_, _, err := c.GetToken(context.Background(), "UPS:abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis get")
}
