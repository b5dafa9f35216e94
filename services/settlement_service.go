package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/fitarena-system/live"
	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/repositories"
	"github.com/Dosada05/fitarena-system/storage"
	"github.com/shopspring/decimal"
)

type SettlementService interface {
	Settle(ctx context.Context, competitionID int) error
	GetPayouts(ctx context.Context, competitionID, requesterID int) ([]models.Payout, error)
}

type settlementService struct {
	db              *sql.DB
	competitionRepo repositories.CompetitionRepository
	poolRepo        repositories.PrizePoolRepository
	scoreRepo       repositories.ScoreRepository
	payoutRepo      repositories.PayoutRepository
	userRepo        repositories.UserRepository
	emailService    *EmailService
	hub             *live.Hub
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewSettlementService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	poolRepo repositories.PrizePoolRepository,
	scoreRepo repositories.ScoreRepository,
	payoutRepo repositories.PayoutRepository,
	userRepo repositories.UserRepository,
	emailService *EmailService,
	hub *live.Hub,
	uploader storage.FileUploader,
	logger *slog.Logger,
) SettlementService {
	return &settlementService{
		db:              db,
		competitionRepo: competitionRepo,
		poolRepo:        poolRepo,
		scoreRepo:       scoreRepo,
		payoutRepo:      payoutRepo,
		userRepo:        userRepo,
		emailService:    emailService,
		hub:             hub,
		uploader:        uploader,
		logger:          logger,
	}
}

// Settle распределяет собранный фонд по итоговым местам. Повторный вызов
// для уже рассчитанного соревнования возвращает ErrAlreadySettled.
func (s *settlementService) Settle(ctx context.Context, competitionID int) error {
	competition, err := s.competitionRepo.GetByID(ctx, nil, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return err
	}
	if competition.Status != models.StatusCompleted {
		return fmt.Errorf("%w: competition %d is %s", ErrCompetitionInvalidStatus, competitionID, competition.Status)
	}

	settled, err := s.payoutRepo.ExistsForCompetition(ctx, nil, competitionID)
	if err != nil {
		return err
	}
	if settled {
		return ErrAlreadySettled
	}

	pool, err := s.poolRepo.GetByCompetitionID(ctx, nil, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			// Соревнование без фонда: рассчитывать нечего.
			return nil
		}
		return err
	}

	total, err := s.poolRepo.TotalCollected(ctx, nil, pool.ID)
	if err != nil {
		return err
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	entries, err := s.scoreRepo.TotalsByCompetition(ctx, nil, competitionID)
	if err != nil {
		return err
	}
	standings := make([]models.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		// За фонд борются только его вкладчики.
		if e.PoolMember {
			standings = append(standings, e)
		}
	}
	if len(standings) == 0 {
		s.logger.WarnContext(ctx, "pool collected but no pool members to pay", slog.Int("competition_id", competitionID))
		return nil
	}

	payouts := splitPool(competitionID, total, pool.PayoutStructure, standings)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.payoutRepo.CreateBatch(ctx, tx, payouts); err != nil {
		if errors.Is(err, repositories.ErrPayoutDuplicate) {
			// Параллельный расчёт успел раньше.
			return ErrAlreadySettled
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	s.notifyWinners(ctx, competition, payouts)

	s.hub.BroadcastToRoom(live.CompetitionRoom(competitionID), live.WebSocketMessage{
		Type:    live.EventPayoutsSettled,
		RoomID:  live.CompetitionRoom(competitionID),
		Payload: payouts,
	})

	return nil
}

// splitPool делит фонд по процентам структуры выплат. Платим не больше мест,
// чем есть претендентов; копеечный остаток от округления и доли невостребованных
// мест достаются первому месту.
func splitPool(competitionID int, total decimal.Decimal, structure models.PayoutStructure, standings []models.LeaderboardEntry) []models.Payout {
	places := len(structure)
	if places > len(standings) {
		places = len(standings)
	}

	hundred := decimal.NewFromInt(100)
	payouts := make([]models.Payout, places)
	distributed := decimal.Zero
	for i := 0; i < places; i++ {
		amount := total.Mul(structure[i]).Div(hundred).Round(2)
		payouts[i] = models.Payout{
			CompetitionID: competitionID,
			UserID:        standings[i].UserID,
			Place:         i + 1,
			Amount:        amount,
		}
		distributed = distributed.Add(amount)
	}

	remainder := total.Sub(distributed)
	if !remainder.IsZero() {
		payouts[0].Amount = payouts[0].Amount.Add(remainder)
	}
	return payouts
}

func (s *settlementService) notifyWinners(ctx context.Context, competition *models.Competition, payouts []models.Payout) {
	if s.emailService == nil {
		return
	}
	ids := make([]int, len(payouts))
	for i, p := range payouts {
		ids[i] = p.UserID
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load winners for payout emails", slog.Any("error", err))
		return
	}
	byID := make(map[int]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, p := range payouts {
		user, ok := byID[p.UserID]
		if !ok {
			continue
		}
		if err := s.emailService.SendPayoutSettledEmail(user.Email, competition.Name, p.Place, p.Amount.StringFixed(2)); err != nil {
			s.logger.WarnContext(ctx, "failed to send payout email",
				slog.String("email", user.Email),
				slog.Int("competition_id", competition.ID),
				slog.Any("error", err))
		}
	}
}

func (s *settlementService) GetPayouts(ctx context.Context, competitionID, requesterID int) ([]models.Payout, error) {
	competition, err := s.competitionRepo.GetByID(ctx, nil, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if competition.Status == models.StatusDraft && competition.CreatorID != requesterID {
		return nil, ErrCompetitionNotFound
	}

	payouts, err := s.payoutRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	for i := range payouts {
		populateUserDetailsFunc(payouts[i].User, s.uploader)
	}
	return payouts, nil
}
