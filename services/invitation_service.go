package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/payments"
	"github.com/Dosada05/fitarena-system/repositories"
	"github.com/Dosada05/fitarena-system/storage"
	"github.com/shopspring/decimal"
)

// AcceptResult описывает исход принятия приглашения. Для buy_in фонда без
// подтверждённого платежа приглашение остаётся pending, а в ответе
// возвращается требуемая сумма взноса.
type AcceptResult struct {
	Joined        bool            `json:"joined"`
	RequiresBuyIn bool            `json:"requires_buy_in"`
	BuyInAmount   decimal.Decimal `json:"buy_in_amount,omitempty"`
}

type InvitationService interface {
	Invite(ctx context.Context, competitionID, inviterID int, inviteeIDs []int) (int, error)
	ListPending(ctx context.Context, inviteeID int) ([]models.Invitation, error)
	Accept(ctx context.Context, invitationID, inviteeID int, chargeRef *string) (*AcceptResult, error)
	JoinWithoutPool(ctx context.Context, invitationID, inviteeID int) error
	Decline(ctx context.Context, invitationID, inviteeID int) error
}

type invitationService struct {
	db              *sql.DB
	invitationRepo  repositories.InvitationRepository
	competitionRepo repositories.CompetitionRepository
	poolRepo        repositories.PrizePoolRepository
	participantRepo repositories.ParticipantRepository
	teamRepo        repositories.TeamRepository
	userRepo        repositories.UserRepository
	gateway         payments.Gateway
	emailService    *EmailService
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewInvitationService(
	db *sql.DB,
	invitationRepo repositories.InvitationRepository,
	competitionRepo repositories.CompetitionRepository,
	poolRepo repositories.PrizePoolRepository,
	participantRepo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	gateway payments.Gateway,
	emailService *EmailService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) InvitationService {
	return &invitationService{
		db:              db,
		invitationRepo:  invitationRepo,
		competitionRepo: competitionRepo,
		poolRepo:        poolRepo,
		participantRepo: participantRepo,
		teamRepo:        teamRepo,
		userRepo:        userRepo,
		gateway:         gateway,
		emailService:    emailService,
		uploader:        uploader,
		logger:          logger,
	}
}

// Invite создаёт приглашения пачкой. Повторные приглашения молча
// пропускаются, письма отправляются по принципу "получилось - хорошо".
func (s *invitationService) Invite(ctx context.Context, competitionID, inviterID int, inviteeIDs []int) (int, error) {
	if len(inviteeIDs) == 0 {
		return 0, nil
	}

	competition, err := s.competitionRepo.GetByID(ctx, nil, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return 0, ErrCompetitionNotFound
		}
		return 0, err
	}
	if competition.CreatorID != inviterID {
		return 0, ErrCreatorOnly
	}
	if competition.Status != models.StatusActive {
		return 0, ErrCompetitionNotActive
	}

	filtered := make([]int, 0, len(inviteeIDs))
	for _, id := range inviteeIDs {
		if id != inviterID {
			filtered = append(filtered, id)
		}
	}

	created, err := s.invitationRepo.CreateBatch(ctx, nil, competitionID, inviterID, filtered)
	if err != nil {
		if errors.Is(err, repositories.ErrInvitationInvalidInvitee) {
			return created, fmt.Errorf("%w: one of the invitees does not exist", ErrValidationFailed)
		}
		return created, err
	}

	s.sendInviteEmails(ctx, competition, inviterID, filtered)

	return created, nil
}

func (s *invitationService) sendInviteEmails(ctx context.Context, competition *models.Competition, inviterID int, inviteeIDs []int) {
	if s.emailService == nil {
		return
	}
	inviter, err := s.userRepo.GetByID(ctx, inviterID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load inviter for invite emails", slog.Any("error", err))
		return
	}
	invitees, err := s.userRepo.GetByIDs(ctx, inviteeIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load invitees for invite emails", slog.Any("error", err))
		return
	}
	for _, invitee := range invitees {
		if err := s.emailService.SendCompetitionInviteEmail(invitee.Email, competition.Name, inviter.Nickname); err != nil {
			s.logger.WarnContext(ctx, "failed to send invite email",
				slog.String("email", invitee.Email),
				slog.Int("competition_id", competition.ID),
				slog.Any("error", err))
		}
	}
}

func (s *invitationService) ListPending(ctx context.Context, inviteeID int) ([]models.Invitation, error) {
	invitations, err := s.invitationRepo.ListPendingByInvitee(ctx, inviteeID)
	if err != nil {
		return nil, err
	}
	for i := range invitations {
		populateUserDetailsFunc(invitations[i].Inviter, s.uploader)
	}
	return invitations, nil
}

func (s *invitationService) Accept(ctx context.Context, invitationID, inviteeID int, chargeRef *string) (*AcceptResult, error) {
	invitation, competition, err := s.loadPendingInvitation(ctx, invitationID, inviteeID)
	if err != nil {
		return nil, err
	}

	pool, err := s.poolRepo.GetByCompetitionID(ctx, nil, competition.ID)
	if err != nil && !errors.Is(err, repositories.ErrPoolNotFound) {
		return nil, err
	}

	poolMember := pool != nil
	var contribution *models.Contribution

	if pool != nil && pool.Mode == models.PoolBuyIn {
		ref := derefString(chargeRef)
		if ref == "" {
			// Приглашение остаётся pending: клиент должен выбрать,
			// платить взнос или присоединяться вне фонда.
			return &AcceptResult{RequiresBuyIn: true, BuyInAmount: pool.Amount}, nil
		}
		charge, chargeErr := s.gateway.GetCharge(ctx, ref)
		if chargeErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrChargeNotVerified, chargeErr)
		}
		if charge.Status != payments.ChargeSucceeded ||
			charge.CompetitionID != competition.ID ||
			!charge.Amount.Equal(pool.Amount) {
			return nil, ErrChargeNotVerified
		}
		contribution = &models.Contribution{
			PoolID:    pool.ID,
			UserID:    inviteeID,
			Amount:    pool.Amount,
			ChargeRef: ref,
		}
	} else if chargeRef != nil {
		return nil, fmt.Errorf("%w: charge reference is only expected for buy-in pools", ErrValidationFailed)
	}

	if err := s.join(ctx, invitation, competition, models.InvitationAcceptedFull, poolMember, contribution); err != nil {
		return nil, err
	}
	return &AcceptResult{Joined: true}, nil
}

// JoinWithoutPool присоединяет приглашённого вне призового фонда. Он
// участвует в соревновании, но не платит взнос и не претендует на выплаты.
func (s *invitationService) JoinWithoutPool(ctx context.Context, invitationID, inviteeID int) error {
	invitation, competition, err := s.loadPendingInvitation(ctx, invitationID, inviteeID)
	if err != nil {
		return err
	}

	pool, err := s.poolRepo.GetByCompetitionID(ctx, nil, competition.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return ErrPoolRequired
		}
		return err
	}
	if pool.Mode != models.PoolBuyIn {
		return ErrPoolNotBuyIn
	}

	return s.join(ctx, invitation, competition, models.InvitationAcceptedWithoutPool, false, nil)
}

func (s *invitationService) Decline(ctx context.Context, invitationID, inviteeID int) error {
	if _, _, err := s.loadPendingInvitation(ctx, invitationID, inviteeID); err != nil {
		return err
	}
	err := s.invitationRepo.Resolve(ctx, nil, invitationID, inviteeID, models.InvitationDeclined, time.Now().UTC())
	if err != nil {
		return s.mapResolveError(err)
	}
	return nil
}

func (s *invitationService) loadPendingInvitation(ctx context.Context, invitationID, inviteeID int) (*models.Invitation, *models.Competition, error) {
	invitation, err := s.invitationRepo.GetByID(ctx, nil, invitationID)
	if err != nil {
		if errors.Is(err, repositories.ErrInvitationNotFound) {
			return nil, nil, ErrInvitationNotFound
		}
		return nil, nil, err
	}
	if invitation.InviteeID != inviteeID {
		return nil, nil, ErrForbiddenOperation
	}
	if invitation.Status != models.InvitationPending {
		return nil, nil, ErrInvitationResolved
	}

	competition, err := s.competitionRepo.GetByID(ctx, nil, invitation.CompetitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, nil, ErrCompetitionNotFound
		}
		return nil, nil, err
	}
	if competition.Status != models.StatusActive {
		return nil, nil, ErrCompetitionNotActive
	}
	return invitation, competition, nil
}

// join разрешает приглашение и записывает участие одной транзакцией.
func (s *invitationService) join(
	ctx context.Context,
	invitation *models.Invitation,
	competition *models.Competition,
	status models.InvitationStatus,
	poolMember bool,
	contribution *models.Contribution,
) error {
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
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed after join error", slog.Any("error", rbErr))
			}
		}
	}()

	if err := s.invitationRepo.Resolve(ctx, tx, invitation.ID, invitation.InviteeID, status, time.Now().UTC()); err != nil {
		return s.mapResolveError(err)
	}

	if contribution != nil {
		if err := s.poolRepo.AddContribution(ctx, tx, contribution); err != nil {
			switch {
			case errors.Is(err, repositories.ErrContributionDuplicate):
				return ErrChargeAlreadyUsed
			case errors.Is(err, repositories.ErrContributorAlreadyInPool):
				return ErrAlreadyJoined
			}
			return err
		}
	}

	participant := &models.Participant{
		CompetitionID: competition.ID,
		UserID:        invitation.InviteeID,
		PoolMember:    poolMember,
	}
	if competition.TeamMode {
		team, teamErr := s.teamRepo.GetSmallest(ctx, tx, competition.ID)
		if teamErr != nil {
			return teamErr
		}
		participant.TeamID = &team.ID
	}
	if err := s.participantRepo.Create(ctx, tx, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantAlreadyJoined) {
			return ErrAlreadyJoined
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (s *invitationService) mapResolveError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrInvitationNotFound):
		return ErrInvitationNotFound
	case errors.Is(err, repositories.ErrInvitationAlreadyResolved):
		return ErrInvitationResolved
	}
	return err
}
