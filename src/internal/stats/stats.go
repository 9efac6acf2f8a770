package stats

// Entry is one leaderboard row.
type Entry struct {
	UserID string `json:"user_id"`
	Count  int64  `json:"count"`
}

type Leaderboard struct {
	Entries    []Entry `json:"entries"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalUsers int     `json:"totalUsers"`
	TotalPages int     `json:"totalPages"`
}

// UserStats combines a user's message count and lifetime away duration.
type UserStats struct {
	UserID       string `json:"user_id"`
	MessageCount int64  `json:"messageCount"`
	AwayTotalMs  int64  `json:"awayTotalMs"`
	AwayTotal    string `json:"awayTotal"`
}
