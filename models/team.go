package models

import "time"

type Team struct {
	ID            int       `json:"id" db:"id"`
	CompetitionID int       `json:"competition_id" db:"competition_id"`
	Name          string    `json:"name" db:"name"`
	Color         string    `json:"color" db:"color"`
	Emoji         string    `json:"emoji" db:"emoji"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	MemberCount int    `json:"member_count,omitempty" db:"-"`
	Members     []User `json:"members,omitempty" db:"-"`
}

const (
	MinTeamsPerCompetition = 2
	MaxTeamsPerCompetition = 4
)
