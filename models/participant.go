package models

import "time"

type Participant struct {
	ID            int       `json:"id" db:"id"`
	CompetitionID int       `json:"competition_id" db:"competition_id"`
	UserID        int       `json:"user_id" db:"user_id"`
	TeamID        *int      `json:"team_id,omitempty" db:"team_id"`
	PoolMember    bool      `json:"pool_member" db:"pool_member"`
	JoinedAt      time.Time `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}
