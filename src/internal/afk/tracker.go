package afk

import (
	"context"
	"time"

	"ninja-presence-svc/src/internal/config"
	"ninja-presence-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// Reconciler records accrued durations that could not be persisted, so they
// can be repaired offline instead of silently dropped.
type Reconciler interface {
	ReportAccrualFailure(userID string, duration time.Duration, reason string)
}

// Tracker maintains who is currently away and the lifetime away ledger.
type Tracker interface {
	// MarkAway opens an active session for the user. Returns
	// models.ErrAlreadyAway when one already exists.
	MarkAway(ctx context.Context, userID, reason string) error

	// CheckReturn is invoked for every inbound message from the user,
	// before any other processing. Closes the active session if one
	// exists, accruing its duration to the total. Returns nil when the
	// user was not away.
	CheckReturn(ctx context.Context, userID string) (*Return, error)

	// QueryStatus is a pure read used for mention lookups.
	QueryStatus(ctx context.Context, userID string) (*ActiveSession, error)

	// WarmUp populates the session cache from the store.
	WarmUp(ctx context.Context) error

	// AwayCount reports how many users are currently cached as away.
	AwayCount() int
}

type tracker struct {
	repo          Repository
	cache         *SessionCache
	locks         *keyedMutex
	reconciler    Reconciler
	defaultReason string
}

func NewTracker(repo Repository, cache *SessionCache, reconciler Reconciler, cfg *config.TrackerConfig) Tracker {
	defaultReason := cfg.DefaultReason
	if defaultReason == "" {
		defaultReason = "No reason provided"
	}

	return &tracker{
		repo:          repo,
		cache:         cache,
		locks:         newKeyedMutex(cfg.LockShards),
		reconciler:    reconciler,
		defaultReason: defaultReason,
	}
}

func (t *tracker) WarmUp(ctx context.Context) error {
	sessions, err := t.repo.GetAllActiveSessions(ctx)
	if err != nil {
		return err
	}
	t.cache.Load(sessions)
	logrus.WithField("count", len(sessions)).Info("Session cache populated from store")
	return nil
}

func (t *tracker) AwayCount() int {
	return t.cache.Len()
}

func (t *tracker) MarkAway(ctx context.Context, userID, reason string) error {
	if userID == "" {
		return models.ErrInvalidUserID
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	existing, err := t.findSession(ctx, userID)
	if err != nil {
		// Cannot verify the precondition; failing the write is safer
		// than overwriting a session's start time.
		logrus.WithError(err).WithField("user_id", userID).Error("MarkAway precondition check failed")
		return err
	}
	if existing != nil {
		return models.ErrAlreadyAway
	}

	if reason == "" {
		reason = t.defaultReason
	}

	session := &ActiveSession{
		UserID: userID,
		Since:  time.Now().UTC(),
		Reason: reason,
	}

	// Store first; the cache entry is only installed once the write is
	// known durable, so cache never claims more than the store holds.
	if err := t.repo.PutActiveSession(ctx, session); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to persist active session")
		return err
	}
	t.cache.Put(session)

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"reason":  reason,
	}).Debug("User marked away")

	return nil
}

func (t *tracker) CheckReturn(ctx context.Context, userID string) (*Return, error) {
	if userID == "" {
		return nil, models.ErrInvalidUserID
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	session := t.cache.Get(userID)
	if session == nil {
		var err error
		session, err = t.repo.GetActiveSession(ctx, userID)
		if err != nil {
			// Fail open: a storage outage must not block ordinary chat.
			logrus.WithError(err).WithField("user_id", userID).Warn("Return check store lookup failed, treating as not away")
			return nil, nil
		}
	}
	if session == nil {
		return nil, nil
	}

	duration := time.Since(session.Since)

	total, err := t.repo.GetAccumulatedTotal(ctx, userID)
	if err != nil {
		t.reportAccrualFailure(userID, duration, err)
		return nil, err
	}

	if err := t.repo.PutAccumulatedTotal(ctx, userID, total+duration.Milliseconds()); err != nil {
		t.reportAccrualFailure(userID, duration, err)
		return nil, err
	}

	// Deletion is sequenced after the total write so a duplicate return
	// event cannot re-read the session before its duration is accrued.
	t.cache.Delete(userID)
	if err := t.repo.DeleteActiveSession(ctx, userID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":     userID,
			"duration_ms": duration.Milliseconds(),
		}).Error("Failed to delete closed session from store")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"duration_ms": duration.Milliseconds(),
	}).Debug("User returned from away")

	return &Return{Duration: duration, Reason: session.Reason}, nil
}

func (t *tracker) QueryStatus(ctx context.Context, userID string) (*ActiveSession, error) {
	if userID == "" {
		return nil, models.ErrInvalidUserID
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	session, err := t.findSession(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Status lookup failed, treating as not away")
		return nil, nil
	}
	return session, nil
}

// findSession checks the cache and falls back to the store on a miss,
// lazily re-populating the cache on a hit.
func (t *tracker) findSession(ctx context.Context, userID string) (*ActiveSession, error) {
	if session := t.cache.Get(userID); session != nil {
		return session, nil
	}

	session, err := t.repo.GetActiveSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		t.cache.Put(session)
	}
	return session, nil
}

func (t *tracker) reportAccrualFailure(userID string, duration time.Duration, err error) {
	// The accrued duration must never be dropped: the session stays in
	// place for a retry on the user's next message, and the failure is
	// recorded for manual reconciliation.
	logrus.WithError(err).WithFields(logrus.Fields{
		"user_id":     userID,
		"duration_ms": duration.Milliseconds(),
	}).Error("Failed to accrue away duration, session retained")

	if t.reconciler != nil {
		t.reconciler.ReportAccrualFailure(userID, duration, err.Error())
	}
}
