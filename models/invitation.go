package models

import "time"

// InvitationStatus представляет статусы приглашения, соответствующие ENUM в БД.
type InvitationStatus string

const (
	InvitationPending             InvitationStatus = "pending"
	InvitationDeclined            InvitationStatus = "declined"
	InvitationAcceptedFull        InvitationStatus = "accepted_full"
	InvitationAcceptedWithoutPool InvitationStatus = "accepted_without_pool"
)

type Invitation struct {
	ID            int              `json:"id" db:"id"`
	CompetitionID int              `json:"competition_id" db:"competition_id"`
	InviterID     int              `json:"inviter_id" db:"inviter_id"`
	InviteeID     int              `json:"invitee_id" db:"invitee_id"`
	Status        InvitationStatus `json:"status" db:"status"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	RespondedAt   *time.Time       `json:"responded_at,omitempty" db:"responded_at"`

	Competition *Competition `json:"competition,omitempty" db:"-"`
	Inviter     *User        `json:"inviter,omitempty" db:"-"`
}
