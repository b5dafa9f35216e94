package models

import "time"

type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	UserID     int     `json:"user_id"`
	Nickname   string  `json:"nickname"`
	AvatarKey  *string `json:"-"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
	TeamID     *int    `json:"team_id,omitempty"`
	Total      int64   `json:"total"`
	PoolMember bool    `json:"pool_member"`
}

// TeamStanding - строка командного зачёта: сумма результатов участников команды.
type TeamStanding struct {
	Rank    int    `json:"rank"`
	TeamID  int    `json:"team_id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Emoji   string `json:"emoji"`
	Total   int64  `json:"total"`
	Members int    `json:"members"`
}

type Leaderboard struct {
	CompetitionID int                `json:"competition_id"`
	GeneratedAt   time.Time          `json:"generated_at"`
	Entries       []LeaderboardEntry `json:"entries"`
	Teams         []TeamStanding     `json:"teams,omitempty"`
}
