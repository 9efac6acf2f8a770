package gateway_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ninja-presence-svc/src/internal/afk"
	"ninja-presence-svc/src/internal/blacklist"
	"ninja-presence-svc/src/internal/counter"
	"ninja-presence-svc/src/internal/gateway"
	"ninja-presence-svc/src/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	mu           sync.Mutex
	away         map[string]*afk.ActiveSession
	returnOnNext map[string]*afk.Return
	markAwayErr  error
	checkCalls   []string
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		away:         make(map[string]*afk.ActiveSession),
		returnOnNext: make(map[string]*afk.Return),
	}
}

func (f *fakeTracker) MarkAway(_ context.Context, userID, reason string) error {
	if f.markAwayErr != nil {
		return f.markAwayErr
	}
	f.away[userID] = &afk.ActiveSession{UserID: userID, Since: time.Now(), Reason: reason}
	return nil
}

func (f *fakeTracker) CheckReturn(_ context.Context, userID string) (*afk.Return, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls = append(f.checkCalls, userID)
	if ret, ok := f.returnOnNext[userID]; ok {
		delete(f.returnOnNext, userID)
		return ret, nil
	}
	return nil, nil
}

func (f *fakeTracker) QueryStatus(_ context.Context, userID string) (*afk.ActiveSession, error) {
	return f.away[userID], nil
}

func (f *fakeTracker) WarmUp(context.Context) error { return nil }
func (f *fakeTracker) AwayCount() int               { return len(f.away) }

type fakeBlacklist struct {
	blocked map[string]bool
	fail    bool
}

func (f *fakeBlacklist) IsBlacklisted(_ context.Context, userID string) (bool, error) {
	if f.fail {
		return false, errors.New("store unavailable")
	}
	return f.blocked[userID], nil
}

func (f *fakeBlacklist) Add(context.Context, string, string) error { return nil }
func (f *fakeBlacklist) Remove(context.Context, string) error      { return nil }
func (f *fakeBlacklist) All(context.Context) ([]blacklist.Entry, error) {
	return nil, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.PresenceEvent
}

func (f *fakePublisher) PublishPresence(event models.PresenceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) ReportAccrualFailure(string, time.Duration, string) {}

func (f *fakePublisher) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]string, len(f.events))
	for i, e := range f.events {
		kinds[i] = e.Kind
	}
	return kinds
}

type nullCounterRepo struct{}

func (nullCounterRepo) IncrementBy(context.Context, string, int64) error { return nil }
func (nullCounterRepo) Get(context.Context, string) (int64, error)       { return 0, nil }
func (nullCounterRepo) All(context.Context) (map[string]int64, error)    { return nil, nil }

func newTestHandler(tracker afk.Tracker, bl *fakeBlacklist, pub *fakePublisher) (*gateway.Handler, *counter.WriteBuffer) {
	buffer := counter.NewWriteBuffer(nullCounterRepo{}, time.Hour)
	return gateway.NewHandler(tracker, bl, buffer, pub), buffer
}

func TestHandleMessageCountsAuthor(t *testing.T) {
	tracker := newFakeTracker()
	pub := &fakePublisher{}
	handler, buffer := newTestHandler(tracker, &fakeBlacklist{blocked: map[string]bool{}}, pub)

	err := handler.HandleMessage(context.Background(), models.InboundMessage{
		MessageID: "m1", UserID: "alice", ChannelID: "general", Content: "hello",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, tracker.checkCalls, "return check runs for every message")
	assert.Equal(t, 1, buffer.Pending())
	assert.Empty(t, pub.kinds())
}

func TestHandleMessageSkipsBlacklistedAuthor(t *testing.T) {
	tracker := newFakeTracker()
	pub := &fakePublisher{}
	handler, buffer := newTestHandler(tracker, &fakeBlacklist{blocked: map[string]bool{"troll": true}}, pub)

	err := handler.HandleMessage(context.Background(), models.InboundMessage{
		MessageID: "m1", UserID: "troll", Content: "spam",
	})
	require.NoError(t, err)

	assert.Empty(t, tracker.checkCalls)
	assert.Equal(t, 0, buffer.Pending())
}

func TestHandleMessageBlacklistFailsOpen(t *testing.T) {
	tracker := newFakeTracker()
	pub := &fakePublisher{}
	handler, buffer := newTestHandler(tracker, &fakeBlacklist{fail: true}, pub)

	err := handler.HandleMessage(context.Background(), models.InboundMessage{
		MessageID: "m1", UserID: "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, tracker.checkCalls)
	assert.Equal(t, 1, buffer.Pending())
}

func TestHandleMessagePublishesReturn(t *testing.T) {
	tracker := newFakeTracker()
	tracker.returnOnNext["alice"] = &afk.Return{Duration: 5 * time.Second, Reason: "lunch"}
	pub := &fakePublisher{}
	handler, _ := newTestHandler(tracker, &fakeBlacklist{}, pub)

	err := handler.HandleMessage(context.Background(), models.InboundMessage{
		MessageID: "m1", UserID: "alice", ChannelID: "general",
	})
	require.NoError(t, err)

	require.Equal(t, []string{models.KindAfkClosed}, pub.kinds())
	event := pub.events[0]
	assert.Equal(t, "alice", event.UserID)
	assert.Equal(t, "lunch", event.Reason)
	assert.Equal(t, int64(5000), event.DurationMs)
	assert.Equal(t, "5 seconds", event.Duration)
}

func TestHandleMessageReportsAwayMentions(t *testing.T) {
	tracker := newFakeTracker()
	tracker.away["bob"] = &afk.ActiveSession{
		UserID: "bob",
		Since:  time.Now().Add(-time.Minute),
		Reason: "gym",
	}
	pub := &fakePublisher{}
	handler, _ := newTestHandler(tracker, &fakeBlacklist{}, pub)

	err := handler.HandleMessage(context.Background(), models.InboundMessage{
		MessageID:  "m1",
		UserID:     "alice",
		ChannelID:  "general",
		MentionIDs: []string{"bob", "carol", "alice"},
	})
	require.NoError(t, err)

	require.Equal(t, []string{models.KindAfkStatus}, pub.kinds())
	event := pub.events[0]
	assert.Equal(t, "bob", event.UserID)
	assert.Equal(t, "gym", event.Reason)
	assert.GreaterOrEqual(t, event.DurationMs, int64(60000))
}

func TestHandleSetAway(t *testing.T) {
	t.Run("success publishes opened", func(t *testing.T) {
		tracker := newFakeTracker()
		pub := &fakePublisher{}
		handler, _ := newTestHandler(tracker, &fakeBlacklist{}, pub)

		err := handler.HandleSetAway(context.Background(), models.SetAwayRequest{
			UserID: "alice", ChannelID: "general", Reason: "lunch",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{models.KindAfkOpened}, pub.kinds())
	})

	t.Run("already away publishes already", func(t *testing.T) {
		tracker := newFakeTracker()
		tracker.markAwayErr = models.ErrAlreadyAway
		pub := &fakePublisher{}
		handler, _ := newTestHandler(tracker, &fakeBlacklist{}, pub)

		err := handler.HandleSetAway(context.Background(), models.SetAwayRequest{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, []string{models.KindAfkAlready}, pub.kinds())
	})

	t.Run("storage failure publishes failed", func(t *testing.T) {
		tracker := newFakeTracker()
		tracker.markAwayErr = models.ErrDatabaseUpdate
		pub := &fakePublisher{}
		handler, _ := newTestHandler(tracker, &fakeBlacklist{}, pub)

		err := handler.HandleSetAway(context.Background(), models.SetAwayRequest{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, []string{models.KindAfkFailed}, pub.kinds())
	})
}
