package redissink

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/payload"
)

func newSink(t *testing.T) (*Sink, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, Config{Stream: "events", MaxLen: 100}), client
}

func TestSink_TrackAppendsToStream(t *testing.T) {
	s, client := newSink(t)
	ctx := context.Background()

	p, err := payload.NewTrack(payload.Identity{AnonymousID: "a1"}, "Clicked",
		payload.NewValueMap().Put("button", "buy"), nil)
	require.NoError(t, err)
	require.NoError(t, s.Track(ctx, p))

	entries, err := client.XRange(ctx, "events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "track", entries[0].Values["type"])
	assert.Equal(t, p.MessageID(), entries[0].Values["message_id"])

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["payload"].(string)), &doc))
	assert.Equal(t, "Clicked", doc["event"])
	assert.Equal(t, map[string]any{"button": "buy"}, doc["properties"])
}

func TestSink_IdentifyStoresTraits(t *testing.T) {
	s, client := newSink(t)
	ctx := context.Background()

	p, err := payload.NewIdentify(payload.Identity{UserID: "u1", AnonymousID: "a1"},
		payload.NewValueMap().Put("plan", "pro"), nil)
	require.NoError(t, err)
	require.NoError(t, s.Identify(ctx, p))

	profile, err := client.HGetAll(ctx, "pulse:users:u1").Result()
	require.NoError(t, err)
	assert.Equal(t, "a1", profile["anonymous_id"])
	assert.JSONEq(t, `{"plan":"pro"}`, profile["traits"])

	n, err := client.XLen(ctx, "events").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFactory(t *testing.T) {
	mr := miniredis.RunT(t)

	in, err := Factory().Create(config.New(map[string]any{
		"url":    "redis://" + mr.Addr() + "/0",
		"stream": "custom",
	}), slog.Default())
	require.NoError(t, err)
	s := in.(*Sink)
	defer s.Close()

	p, err := payload.NewAlias(payload.Identity{AnonymousID: "a1"}, "u1", nil)
	require.NoError(t, err)
	require.NoError(t, s.Alias(context.Background(), p))
	assert.True(t, mr.Exists("custom"))

	_, err = Factory().Create(config.New(map[string]any{"url": "://bad"}), slog.Default())
	assert.Error(t, err)
}
