package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	t.Cleanup(func() { Redis = nil })

	mr := miniredis.RunT(t)
	client := ConnectRedis("redis://" + mr.Addr() + "/0")
	require.NotNil(t, client)
	assert.Same(t, client, Redis)

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConnectRedis_Unavailable(t *testing.T) {
	t.Cleanup(func() { Redis = nil })

	assert.Nil(t, ConnectRedis(""))
	assert.Nil(t, ConnectRedis("not a url"))

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, ConnectRedis("redis://"+addr))
	assert.Nil(t, Redis)
}
