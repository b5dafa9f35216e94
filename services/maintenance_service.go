package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/fitarena-system/live"
	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/repositories"
)

// MaintenanceService выполняет фоновые задачи: закрывает истёкшие
// соревнования с расчётом выплат и подчищает брошенные черновики.
type MaintenanceService interface {
	RollForwardStatuses(ctx context.Context) error
	SweepStaleDrafts(ctx context.Context) error
}

// LeaderboardInvalidator сбрасывает кэшированную таблицу лидеров соревнования.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context, competitionID int) error
}

type maintenanceService struct {
	competitionRepo repositories.CompetitionRepository
	settlement      SettlementService
	hub             *live.Hub
	boardCache      LeaderboardInvalidator
	draftTTL        time.Duration
	logger          *slog.Logger
}

// NewMaintenanceService собирает фоновый сервис. boardCache может быть nil,
// тогда завершение соревнования не трогает кэш таблицы лидеров.
func NewMaintenanceService(
	competitionRepo repositories.CompetitionRepository,
	settlement SettlementService,
	hub *live.Hub,
	boardCache LeaderboardInvalidator,
	draftTTL time.Duration,
	logger *slog.Logger,
) MaintenanceService {
	return &maintenanceService{
		competitionRepo: competitionRepo,
		settlement:      settlement,
		hub:             hub,
		boardCache:      boardCache,
		draftTTL:        draftTTL,
		logger:          logger,
	}
}

// RollForwardStatuses завершает активные соревнования с прошедшей датой
// окончания. Ошибка по одному соревнованию не прерывает обход остальных.
func (s *maintenanceService) RollForwardStatuses(ctx context.Context) error {
	ended, err := s.competitionRepo.ListEndedActive(ctx, nil, time.Now().UTC())
	if err != nil {
		return err
	}

	for _, competition := range ended {
		if !isValidStatusTransition(competition.Status, models.StatusCompleted) {
			continue
		}
		if err := s.competitionRepo.UpdateStatus(ctx, nil, competition.ID, models.StatusCompleted); err != nil {
			s.logger.ErrorContext(ctx, "failed to complete competition",
				slog.Int("competition_id", competition.ID), slog.Any("error", err))
			continue
		}
		s.logger.InfoContext(ctx, "competition completed", slog.Int("competition_id", competition.ID))

		// Сброшенный кэш пересоберётся из SQL уже с финальными суммами.
		if s.boardCache != nil {
			if err := s.boardCache.Invalidate(ctx, competition.ID); err != nil {
				s.logger.WarnContext(ctx, "failed to invalidate leaderboard cache",
					slog.Int("competition_id", competition.ID), slog.Any("error", err))
			}
		}

		s.hub.BroadcastToRoom(live.CompetitionRoom(competition.ID), live.WebSocketMessage{
			Type:   live.EventCompetitionCompleted,
			RoomID: live.CompetitionRoom(competition.ID),
			Payload: map[string]interface{}{
				"competition_id": competition.ID,
				"name":           competition.Name,
			},
		})

		if err := s.settlement.Settle(ctx, competition.ID); err != nil && !errors.Is(err, ErrAlreadySettled) {
			s.logger.ErrorContext(ctx, "failed to settle competition payouts",
				slog.Int("competition_id", competition.ID), slog.Any("error", err))
		}
	}
	return nil
}

// SweepStaleDrafts удаляет черновики, которые никто не финализировал.
// Обычно клиент убирает их сам при выходе из мастера, это страховка
// на случай умершего приложения или потери сети.
func (s *maintenanceService) SweepStaleDrafts(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.draftTTL)
	drafts, err := s.competitionRepo.ListStaleDrafts(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, draft := range drafts {
		if err := s.competitionRepo.DeleteDraft(ctx, draft.ID, draft.CreatorID); err != nil {
			if errors.Is(err, repositories.ErrCompetitionNotFound) {
				continue
			}
			s.logger.ErrorContext(ctx, "failed to sweep stale draft",
				slog.Int("competition_id", draft.ID), slog.Any("error", err))
			continue
		}
		s.logger.InfoContext(ctx, "stale draft removed",
			slog.Int("competition_id", draft.ID),
			slog.Time("created_at", draft.CreatedAt))
	}
	return nil
}
