package stats

import (
	"context"
	"sort"
	"time"

	"ninja-presence-svc/src/internal/afk"
	"ninja-presence-svc/src/internal/config"
	"ninja-presence-svc/src/internal/counter"

	"github.com/sirupsen/logrus"
)

type Service interface {
	MessageLeaderboard(ctx context.Context, page int) (*Leaderboard, error)
	UserStats(ctx context.Context, userID string) (*UserStats, error)
}

type service struct {
	counters counter.Repository
	afkRepo  afk.Repository
	cache    Cache
	pageSize int
}

func NewService(counters counter.Repository, afkRepo afk.Repository, cache Cache, cfg *config.Configuration) Service {
	pageSize := cfg.Cache.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	return &service{
		counters: counters,
		afkRepo:  afkRepo,
		cache:    cache,
		pageSize: pageSize,
	}
}

func (s *service) MessageLeaderboard(ctx context.Context, page int) (*Leaderboard, error) {
	if page <= 0 {
		page = 1
	}

	entries, err := s.loadSorted(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := (len(entries) + s.pageSize - 1) / s.pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * s.pageSize
	end := start + s.pageSize
	if start > len(entries) {
		start = len(entries)
	}
	if end > len(entries) {
		end = len(entries)
	}

	return &Leaderboard{
		Entries:    entries[start:end],
		Page:       page,
		PageSize:   s.pageSize,
		TotalUsers: len(entries),
		TotalPages: totalPages,
	}, nil
}

func (s *service) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	count, err := s.counters.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalMs, err := s.afkRepo.GetAccumulatedTotal(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserStats{
		UserID:       userID,
		MessageCount: count,
		AwayTotalMs:  totalMs,
		AwayTotal:    afk.FormatDuration(time.Duration(totalMs) * time.Millisecond),
	}, nil
}

// loadSorted returns the full leaderboard, preferring the cached snapshot.
// Cache failures fall through to the store.
func (s *service) loadSorted(ctx context.Context) ([]Entry, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetLeaderboard(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	counts, err := s.counters.All(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(counts))
	for userID, count := range counts {
		entries = append(entries, Entry{UserID: userID, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].UserID < entries[j].UserID
	})

	if s.cache != nil {
		if err := s.cache.SaveLeaderboard(ctx, entries); err != nil {
			logrus.WithError(err).Warn("Failed to cache leaderboard snapshot")
		}
	}

	return entries, nil
}
