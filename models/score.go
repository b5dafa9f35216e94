package models

import "time"

// Score хранит дневной результат участника. На пару (участник, день)
// приходится не более одной записи, повторная отправка перезаписывает значение.
type Score struct {
	ID            int       `json:"id" db:"id"`
	CompetitionID int       `json:"competition_id" db:"competition_id"`
	UserID        int       `json:"user_id" db:"user_id"`
	Day           time.Time `json:"day" db:"day"`
	Value         int64     `json:"value" db:"value"`
	RecordedAt    time.Time `json:"recorded_at" db:"recorded_at"`
}
