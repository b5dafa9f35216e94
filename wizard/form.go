package wizard

import (
	"errors"
	"strings"

	"github.com/Dosada05/fitarena-system/models"
)

var (
	ErrNameRequired     = errors.New("competition name is required")
	ErrDatesRequired    = errors.New("start and end dates are required")
	ErrInvalidDateRange = errors.New("end date must be after start date")
	ErrInvalidScoring   = errors.New("unknown scoring type")
	ErrTeamCount        = errors.New("team competitions need between 2 and 4 teams")
	ErrTeamNameRequired = errors.New("every team needs a name")
	ErrWizardAbandoned  = errors.New("wizard has been abandoned")
	ErrWizardBusy       = errors.New("confirmation already in progress")
	ErrNotAtStep        = errors.New("operation is not available at this step")
)

// Form - всё, что пользователь настроил в мастере. До финализации на
// сервере существует только черновик из Basics; команды, фонд и
// приглашённые живут здесь.
type Form struct {
	Basics   Basics
	Teams    []TeamDraft
	Pool     *PoolDraft
	Invitees []int
}

func validateBasics(b Basics) error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrNameRequired
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return ErrDatesRequired
	}
	if !b.EndDate.After(b.StartDate) {
		return ErrInvalidDateRange
	}
	if !b.ScoringType.Valid() {
		return ErrInvalidScoring
	}
	return nil
}

func validateTeams(teams []TeamDraft) error {
	if len(teams) < models.MinTeamsPerCompetition || len(teams) > models.MaxTeamsPerCompetition {
		return ErrTeamCount
	}
	for _, team := range teams {
		if strings.TrimSpace(team.Name) == "" {
			return ErrTeamNameRequired
		}
	}
	return nil
}

func validatePool(pool *PoolDraft) error {
	if pool == nil {
		return nil
	}
	if err := models.ValidateAmount(pool.Mode, pool.Amount); err != nil {
		return err
	}
	return pool.PayoutStructure.Validate()
}
