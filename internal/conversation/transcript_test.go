package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseTranscript(t *testing.T, tr Transcript) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, tr.Append(ctx, "s1",
		Message{Role: RoleUser, Body: "hi"},
		Message{Role: RoleAssistant, Body: "hello", Outcome: "name_prompt"},
	))
	require.NoError(t, tr.Append(ctx, "s1", Message{Role: RoleUser, Body: "alice"}))

	all, err := tr.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "hi", all[0].Body)
	assert.Equal(t, "name_prompt", all[1].Outcome)
	assert.NotEmpty(t, all[2].ID)
	assert.False(t, all[2].Timestamp.IsZero())

	tail, err := tr.List(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "hello", tail[0].Body)

	empty, err := tr.List(ctx, "unknown", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.Error(t, tr.Append(ctx, "", Message{Body: "x"}))
	_, err = tr.List(ctx, "", 0)
	assert.Error(t, err)
}

func TestMemoryTranscript(t *testing.T) {
	exerciseTranscript(t, NewMemoryTranscript(0))
}

func TestMemoryTranscriptCaps(t *testing.T) {
	tr := NewMemoryTranscript(2)
	ctx := context.Background()
	require.NoError(t, tr.Append(ctx, "s1", Message{Body: "1"}, Message{Body: "2"}, Message{Body: "3"}))
	got, err := tr.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].Body)
}

func TestRedisTranscript(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	exerciseTranscript(t, NewRedisTranscript(client, time.Hour, 0))
	assert.Equal(t, time.Hour, mr.TTL("transcript:s1"))
}

func TestRedisTranscriptCaps(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tr := NewRedisTranscript(client, 0, 2)
	ctx := context.Background()

	require.NoError(t, tr.Append(ctx, "s1", Message{Body: "1"}, Message{Body: "2"}, Message{Body: "3"}))
	got, err := tr.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[1].Body)
	assert.Equal(t, DefaultTranscriptTTL, mr.TTL("transcript:s1"))
}

func TestRedisTranscriptSkipsCorruptEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tr := NewRedisTranscript(client, 0, 0)

	_, err := mr.Push("transcript:s1", "{broken")
	require.NoError(t, err)
	require.NoError(t, tr.Append(context.Background(), "s1", Message{Body: "ok"}))

	got, err := tr.List(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Body)
}
