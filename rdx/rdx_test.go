package rdx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cached struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func TestRdxGetJSON(t *testing.T) {
	conn, mock := redismock.NewClientMock()
	c := New(conn)
	ctx := context.Background()

	mock.ExpectGet("event:1").SetVal(`{"name":"Modern Art Gala","capacity":200}`)
	var got cached
	hit, err := c.RdxGetJSON(ctx, "event:1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, cached{Name: "Modern Art Gala", Capacity: 200}, got)

	mock.ExpectGet("event:2").RedisNil()
	hit, err = c.RdxGetJSON(ctx, "event:2", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	mock.ExpectGet("event:3").SetErr(errors.New("connection refused"))
	_, err = c.RdxGetJSON(ctx, "event:3", &got)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRdxSetAndDel(t *testing.T) {
	conn, mock := redismock.NewClientMock()
	c := New(conn)
	ctx := context.Background()

	mock.ExpectSet("event:1", []byte(`{"name":"Gala","capacity":2}`), time.Minute).SetVal("OK")
	require.NoError(t, c.RdxSetJSON(ctx, "event:1", cached{Name: "Gala", Capacity: 2}, time.Minute))

	mock.ExpectDel("event:1").SetVal(1)
	require.NoError(t, c.RdxDel(ctx, "event:1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevocation(t *testing.T) {
	conn, mock := redismock.NewClientMock()
	c := New(conn)
	ctx := context.Background()

	mock.ExpectSet("auth:revoked:abc", 1, time.Hour).SetVal("OK")
	require.NoError(t, c.RevokeToken(ctx, "abc", time.Hour))

	mock.ExpectExists("auth:revoked:abc").SetVal(1)
	revoked, err := c.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectExists("auth:revoked:def").SetVal(0)
	revoked, err = c.IsRevoked(ctx, "def")
	require.NoError(t, err)
	assert.False(t, revoked)

	// Already expired tokens need no entry.
	require.NoError(t, c.RevokeToken(ctx, "old", -time.Minute))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisabledClientIsNoop(t *testing.T) {
	var c *Client
	ctx := context.Background()

	hit, err := c.RdxGetJSON(ctx, "event:1", &cached{})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.RdxSetJSON(ctx, "event:1", cached{}, time.Minute))
	assert.NoError(t, c.RdxDel(ctx, "event:1"))
	assert.NoError(t, c.RevokeToken(ctx, "abc", time.Hour))
	revoked, err := c.IsRevoked(ctx, "abc")
	assert.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, c.Close())
}
