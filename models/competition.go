package models

import "time"

// CompetitionStatus представляет статусы соревнования, соответствующие ENUM в БД.
type CompetitionStatus string

const (
	StatusDraft     CompetitionStatus = "draft"
	StatusActive    CompetitionStatus = "active"
	StatusCompleted CompetitionStatus = "completed"
)

// Cadence задаёт ритм повторения зачёта: разовое соревнование, ежедневный
// или еженедельный цикл.
type Cadence string

const (
	CadenceNone   Cadence = "none"
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

func (c Cadence) Valid() bool {
	switch c {
	case CadenceNone, CadenceDaily, CadenceWeekly:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Competition представляет соревнование.
type Competition struct {
	ID            int               `json:"id" db:"id"`
	CreatorID     int               `json:"creator_id" db:"creator_id"`
	Name          string            `json:"name" db:"name"`
	Description   *string           `json:"description,omitempty" db:"description"`
	Slug          *string           `json:"slug,omitempty" db:"slug"`
	Status        CompetitionStatus `json:"status" db:"status"`
	Cadence       Cadence           `json:"cadence" db:"cadence"`
	Visibility    Visibility        `json:"visibility" db:"visibility"`
	ScoringType   ScoringType       `json:"scoring_type" db:"scoring_type"`
	ScoringGoal   *int64            `json:"scoring_goal,omitempty" db:"scoring_goal"`
	TeamMode      bool              `json:"team_mode" db:"team_mode"`
	StartDate     time.Time         `json:"start_date" db:"start_date"`
	EndDate       time.Time         `json:"end_date" db:"end_date"`
	FinalizedAt   *time.Time        `json:"finalized_at,omitempty" db:"finalized_at"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	CoverKey      *string           `json:"-" db:"cover_key"`
	CoverURL      *string           `json:"cover_url,omitempty" db:"-"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Creator      *User         `json:"creator,omitempty" db:"-"`
	Teams        []Team        `json:"teams,omitempty" db:"-"`
	Pool         *PrizePool    `json:"pool,omitempty" db:"-"`
	Participants []Participant `json:"participants,omitempty" db:"-"`
}
