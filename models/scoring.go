package models

// ScoringType определяет метрику, по которой считаются очки участников.
type ScoringType string

const (
	ScoringSteps         ScoringType = "steps"
	ScoringActiveMinutes ScoringType = "active_minutes"
	ScoringWorkouts      ScoringType = "workouts"
	ScoringDistance      ScoringType = "distance"
)

func (s ScoringType) Valid() bool {
	switch s {
	case ScoringSteps, ScoringActiveMinutes, ScoringWorkouts, ScoringDistance:
		return true
	}
	return false
}
