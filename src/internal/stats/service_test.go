package stats_test

import (
	"context"
	"errors"
	"testing"

	"ninja-presence-svc/src/internal/afk"
	"ninja-presence-svc/src/internal/config"
	"ninja-presence-svc/src/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounterRepo struct {
	counts map[string]int64
	reads  int
}

func (f *fakeCounterRepo) IncrementBy(context.Context, string, int64) error { return nil }

func (f *fakeCounterRepo) Get(_ context.Context, key string) (int64, error) {
	return f.counts[key], nil
}

func (f *fakeCounterRepo) All(context.Context) (map[string]int64, error) {
	f.reads++
	out := make(map[string]int64, len(f.counts))
	for k, v := range f.counts {
		out[k] = v
	}
	return out, nil
}

type fakeAfkRepo struct {
	afk.Repository
	totals map[string]int64
}

func (f *fakeAfkRepo) GetAccumulatedTotal(_ context.Context, userID string) (int64, error) {
	return f.totals[userID], nil
}

type fakeCache struct {
	snapshot []stats.Entry
	saves    int
	fail     bool
}

func (f *fakeCache) GetLeaderboard(context.Context) ([]stats.Entry, error) {
	if f.fail {
		return nil, errors.New("redis unavailable")
	}
	return f.snapshot, nil
}

func (f *fakeCache) SaveLeaderboard(_ context.Context, entries []stats.Entry) error {
	if f.fail {
		return errors.New("redis unavailable")
	}
	f.snapshot = entries
	f.saves++
	return nil
}

func testConfig(pageSize int) *config.Configuration {
	return &config.Configuration{
		Cache: config.CacheConfig{PageSize: pageSize},
	}
}

func TestMessageLeaderboardSortsAndPaginates(t *testing.T) {
	counters := &fakeCounterRepo{counts: map[string]int64{
		"alice": 5, "bob": 3, "carol": 9, "dave": 7, "erin": 1,
	}}
	svc := stats.NewService(counters, &fakeAfkRepo{}, &fakeCache{}, testConfig(2))

	board, err := svc.MessageLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, board.TotalUsers)
	assert.Equal(t, 3, board.TotalPages)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, stats.Entry{UserID: "carol", Count: 9}, board.Entries[0])
	assert.Equal(t, stats.Entry{UserID: "dave", Count: 7}, board.Entries[1])

	board, err = svc.MessageLeaderboard(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, stats.Entry{UserID: "erin", Count: 1}, board.Entries[0])
}

func TestMessageLeaderboardClampsPage(t *testing.T) {
	counters := &fakeCounterRepo{counts: map[string]int64{"alice": 5, "bob": 3}}
	svc := stats.NewService(counters, &fakeAfkRepo{}, &fakeCache{}, testConfig(10))

	board, err := svc.MessageLeaderboard(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, 1, board.Page)
	assert.Len(t, board.Entries, 2)

	board, err = svc.MessageLeaderboard(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, 1, board.Page)
}

func TestMessageLeaderboardEmpty(t *testing.T) {
	svc := stats.NewService(&fakeCounterRepo{counts: map[string]int64{}}, &fakeAfkRepo{}, &fakeCache{}, testConfig(10))

	board, err := svc.MessageLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, board.Entries)
	assert.Equal(t, 1, board.TotalPages)
}

func TestMessageLeaderboardUsesSnapshot(t *testing.T) {
	counters := &fakeCounterRepo{counts: map[string]int64{"alice": 5}}
	cache := &fakeCache{}
	svc := stats.NewService(counters, &fakeAfkRepo{}, cache, testConfig(10))

	_, err := svc.MessageLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.MessageLeaderboard(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, counters.reads, "second read should come from the snapshot")
	assert.Equal(t, 1, cache.saves)
}

func TestMessageLeaderboardCacheFailureFallsThrough(t *testing.T) {
	counters := &fakeCounterRepo{counts: map[string]int64{"alice": 5}}
	svc := stats.NewService(counters, &fakeAfkRepo{}, &fakeCache{fail: true}, testConfig(10))

	board, err := svc.MessageLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, board.Entries, 1)
}

func TestUserStats(t *testing.T) {
	counters := &fakeCounterRepo{counts: map[string]int64{"alice": 42}}
	afkRepo := &fakeAfkRepo{totals: map[string]int64{"alice": 125000}}
	svc := stats.NewService(counters, afkRepo, nil, testConfig(10))

	userStats, err := svc.UserStats(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(42), userStats.MessageCount)
	assert.Equal(t, int64(125000), userStats.AwayTotalMs)
	assert.Equal(t, "2 minutes, 5 seconds", userStats.AwayTotal)
}
