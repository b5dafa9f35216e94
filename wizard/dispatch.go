package wizard

import (
	"context"
	"log/slog"

	"github.com/Dosada05/fitarena-system/models"
)

// Dispatcher выполняет действия после финализации: рассылает приглашения,
// обновляет локальный список и открывает экран соревнования. Соревнование
// к этому моменту уже создано, поэтому любая ошибка здесь логируется и
// не повторяется.
type Dispatcher struct {
	backend Backend
	cache   ListCache
	nav     Navigator
	logger  *slog.Logger
}

func NewDispatcher(backend Backend, cache ListCache, nav Navigator, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		backend: backend,
		cache:   cache,
		nav:     nav,
		logger:  logger,
	}
}

// Dispatch возвращает загруженную карточку соревнования, если её удалось
// получить. present=false означает, что пользователь уже ушёл с экрана:
// приглашения всё равно отправляются, но список и навигация не трогаются.
func (d *Dispatcher) Dispatch(ctx context.Context, competitionID int, inviteeIDs []int, present bool) *models.Competition {
	if len(inviteeIDs) > 0 {
		if err := d.backend.CreateInvitations(ctx, competitionID, inviteeIDs); err != nil {
			d.logger.Warn("failed to send invitations after finalize",
				slog.Int("competition_id", competitionID),
				slog.Any("error", err))
		}
	}

	competition, err := d.backend.FetchCompetition(ctx, competitionID)
	if err != nil {
		d.logger.Warn("failed to fetch finalized competition",
			slog.Int("competition_id", competitionID),
			slog.Any("error", err))
	}

	if !present {
		return competition
	}
	if competition != nil && d.cache != nil {
		d.cache.Prepend(competition)
	}
	if d.nav != nil {
		d.nav.ShowCompetition(competitionID)
	}
	return competition
}
