package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/model"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func testSession(id string) *model.SurveySession {
	return &model.SurveySession{
		ID:               id,
		Language:         model.LanguageEnglish,
		CatalogVersion:   "abc123",
		MaxPossibleScore: 75,
		Status:           model.SessionInProgress,
		Questions: []model.EffectiveQuestion{
			{ID: "q1_income_stability", Number: 1, MaxPoints: 5},
			{ID: "q2_income_sources", Number: 2, MaxPoints: 5},
		},
	}
}

func TestSessionCacheRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewSessionCache(client)
	ctx := context.Background()

	require.NoError(t, c.Create(ctx, testSession("s1"), time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("session:s1"))

	require.NoError(t, c.SetAnswer(ctx, "s1", "q1_income_stability", 4))
	require.NoError(t, c.SetAnswer(ctx, "s1", "q2_income_sources", 2))
	require.NoError(t, c.SetAnswer(ctx, "s1", "q2_income_sources", 3))
	assert.Equal(t, time.Hour, mr.TTL("session:s1:answers"))

	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.CatalogVersion)
	assert.Len(t, got.Questions, 2)
	assert.Equal(t, map[string]int{"q1_income_stability": 4, "q2_income_sources": 3}, got.Answers)
	assert.Equal(t, model.SessionInProgress, got.Status)
}

func TestSessionCacheMissingAndExpired(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewSessionCache(client)
	ctx := context.Background()

	_, err := c.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, c.SetAnswer(ctx, "nope", "q1_income_stability", 3), ErrSessionNotFound)

	require.NoError(t, c.Create(ctx, testSession("s1"), time.Minute))
	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionCacheSubmitClaim(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewSessionCache(client)
	ctx := context.Background()

	require.NoError(t, c.Create(ctx, testSession("s1"), time.Hour))

	claimed, err := c.MarkSubmitted(ctx, "s1", "resp-1")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, time.Hour, mr.TTL("session:s1:submitted"))

	claimed, err = c.MarkSubmitted(ctx, "s1", "resp-2")
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionSubmitted, got.Status)
	assert.Equal(t, "resp-1", got.ResponseID)

	// only the holder of the claim can release it
	require.NoError(t, c.ReleaseSubmit(ctx, "s1", "resp-2"))
	assert.True(t, mr.Exists("session:s1:submitted"))

	require.NoError(t, c.ReleaseSubmit(ctx, "s1", "resp-1"))
	got, err = c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionInProgress, got.Status)

	claimed, err = c.MarkSubmitted(ctx, "s1", "resp-3")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestSessionCacheCreateResetsState(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewSessionCache(client)
	ctx := context.Background()

	require.NoError(t, c.Create(ctx, testSession("s1"), time.Hour))
	require.NoError(t, c.SetAnswer(ctx, "s1", "q1_income_stability", 5))
	_, err := c.MarkSubmitted(ctx, "s1", "resp-1")
	require.NoError(t, err)

	require.NoError(t, c.Create(ctx, testSession("s1"), time.Hour))
	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Answers)
	assert.Equal(t, model.SessionInProgress, got.Status)

	require.NoError(t, c.Delete(ctx, "s1"))
	_, err = c.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCatalogNotifier(t *testing.T) {
	_, client := newTestRedis(t)
	n := NewCatalogNotifier(client)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- n.Subscribe(ctx, func(version string) { received <- version })
	}()

	require.Eventually(t, func() bool {
		if err := n.Publish(ctx, "v2"); err != nil {
			return false
		}
		select {
		case v := <-received:
			return v == "v2"
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
