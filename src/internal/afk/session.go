package afk

import "time"

// ActiveSession marks a user as currently away. At most one exists per user
// across cache and store.
type ActiveSession struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Since     time.Time `bson:"since" json:"since"`
	Reason    string    `bson:"reason" json:"reason"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}

func (s *ActiveSession) Elapsed() time.Duration {
	return time.Since(s.Since)
}

// AwayTotal is the lifetime sum of closed-session durations for a user.
// Only ever incremented, by exactly the duration of a just-closed session.
type AwayTotal struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	TotalMs   int64     `bson:"total_ms" json:"total_ms"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}

// Return describes a just-closed session, handed to the caller for
// presentation.
type Return struct {
	Duration time.Duration `json:"duration"`
	Reason   string        `json:"reason"`
}
