package afk

import "sync"

// SessionCache is the in-process, non-authoritative mirror of active
// sessions. It keeps the no-session fast path off the store for the
// overwhelming majority of messages. It never holds totals.
type SessionCache struct {
	mu       sync.RWMutex
	sessions map[string]*ActiveSession
}

func NewSessionCache() *SessionCache {
	return &SessionCache{
		sessions: make(map[string]*ActiveSession),
	}
}

func (c *SessionCache) Get(userID string) *ActiveSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessions[userID]
}

func (c *SessionCache) Put(session *ActiveSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.UserID] = session
}

func (c *SessionCache) Delete(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, userID)
}

// Load replaces the cache contents with the given sessions. Called once at
// startup with the store's full active set.
func (c *SessionCache) Load(sessions map[string]*ActiveSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = make(map[string]*ActiveSession, len(sessions))
	for id, s := range sessions {
		c.sessions[id] = s
	}
}

func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
