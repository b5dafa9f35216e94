package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/payments"
	"github.com/Dosada05/fitarena-system/repositories"
	"github.com/Dosada05/fitarena-system/storage"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type CreateDraftInput struct {
	Name        string             `json:"name"`
	Description *string            `json:"description"`
	Cadence     models.Cadence     `json:"cadence"`
	Visibility  models.Visibility  `json:"visibility"`
	ScoringType models.ScoringType `json:"scoring_type"`
	ScoringGoal *int64             `json:"scoring_goal"`
	TeamMode    bool               `json:"team_mode"`
	StartDate   time.Time          `json:"start_date"`
	EndDate     time.Time          `json:"end_date"`
}

type TeamInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Emoji string `json:"emoji"`
}

type PoolInput struct {
	Mode            models.PoolMode        `json:"mode"`
	Amount          decimal.Decimal        `json:"amount"`
	PayoutStructure models.PayoutStructure `json:"payout_structure"`
}

// FinalizeInput несёт полную конфигурацию, накопленную клиентом между шагами.
// До финализации на сервере существует только голый черновик.
type FinalizeInput struct {
	Teams     []TeamInput `json:"teams"`
	Pool      *PoolInput  `json:"pool"`
	ChargeRef *string     `json:"charge_ref"`
}

type ListCompetitionsInput struct {
	Filter string
	Status *models.CompetitionStatus
	Limit  int
	Offset int
}

type CompetitionService interface {
	CreateDraft(ctx context.Context, creatorID int, input CreateDraftInput) (*models.Competition, error)
	Finalize(ctx context.Context, competitionID, requesterID int, input FinalizeInput) (*models.Competition, error)
	DeleteDraft(ctx context.Context, competitionID, requesterID int) error
	GetByID(ctx context.Context, competitionID, requesterID int) (*models.Competition, error)
	List(ctx context.Context, requesterID int, input ListCompetitionsInput) ([]models.Competition, error)
	UploadCover(ctx context.Context, competitionID, requesterID int, contentType string, file io.Reader) (*models.Competition, error)
}

type competitionService struct {
	db              *sql.DB
	competitionRepo repositories.CompetitionRepository
	teamRepo        repositories.TeamRepository
	poolRepo        repositories.PrizePoolRepository
	participantRepo repositories.ParticipantRepository
	gateway         payments.Gateway
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewCompetitionService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	teamRepo repositories.TeamRepository,
	poolRepo repositories.PrizePoolRepository,
	participantRepo repositories.ParticipantRepository,
	gateway payments.Gateway,
	uploader storage.FileUploader,
	logger *slog.Logger,
) CompetitionService {
	return &competitionService{
		db:              db,
		competitionRepo: competitionRepo,
		teamRepo:        teamRepo,
		poolRepo:        poolRepo,
		participantRepo: participantRepo,
		gateway:         gateway,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *competitionService) CreateDraft(ctx context.Context, creatorID int, input CreateDraftInput) (*models.Competition, error) {
	if input.Name == "" {
		return nil, ErrCompetitionNameRequired
	}
	if err := validateCompetitionDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if !input.ScoringType.Valid() {
		return nil, ErrCompetitionInvalidScoring
	}
	if input.Cadence == "" {
		input.Cadence = models.CadenceDaily
	}
	if !input.Cadence.Valid() {
		return nil, fmt.Errorf("%w: unknown cadence %q", ErrValidationFailed, input.Cadence)
	}
	if input.Visibility == "" {
		input.Visibility = models.VisibilityPrivate
	}

	competition := &models.Competition{
		CreatorID:   creatorID,
		Name:        input.Name,
		Description: input.Description,
		Status:      models.StatusDraft,
		Cadence:     input.Cadence,
		Visibility:  input.Visibility,
		ScoringType: input.ScoringType,
		ScoringGoal: input.ScoringGoal,
		TeamMode:    input.TeamMode,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}

	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		return nil, fmt.Errorf("failed to create draft competition: %w", err)
	}
	return competition, nil
}

// Finalize переводит черновик в активное соревнование одной транзакцией:
// команды, призовой фонд, взнос создателя и его участие либо записываются
// все вместе, либо не записываются вовсе.
func (s *competitionService) Finalize(ctx context.Context, competitionID, requesterID int, input FinalizeInput) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, nil, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if competition.CreatorID != requesterID {
		return nil, ErrCreatorOnly
	}
	if competition.Status != models.StatusDraft {
		return nil, ErrCompetitionNotDraft
	}

	if competition.TeamMode {
		if len(input.Teams) < models.MinTeamsPerCompetition || len(input.Teams) > models.MaxTeamsPerCompetition {
			return nil, ErrTeamCountOutOfRange
		}
	} else if len(input.Teams) > 0 {
		return nil, fmt.Errorf("%w: teams provided for an individual competition", ErrValidationFailed)
	}

	var creatorContribution decimal.Decimal
	if input.Pool != nil {
		if err := models.ValidateAmount(input.Pool.Mode, input.Pool.Amount); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPoolAmountOutOfRange, err)
		}
		if err := input.Pool.PayoutStructure.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		// Независимо от режима создатель вносит ровно сумму фонда:
		// при creator_funded это весь фонд, при buy_in его собственное место.
		creatorContribution = input.Pool.Amount

		chargeRef := derefString(input.ChargeRef)
		if chargeRef == "" {
			return nil, fmt.Errorf("%w: charge reference is required for a prize pool", ErrValidationFailed)
		}
		charge, chargeErr := s.gateway.GetCharge(ctx, chargeRef)
		if chargeErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrChargeNotVerified, chargeErr)
		}
		if charge.Status != payments.ChargeSucceeded ||
			charge.CompetitionID != competitionID ||
			!charge.Amount.Equal(creatorContribution) {
			return nil, ErrChargeNotVerified
		}
	} else if input.ChargeRef != nil {
		return nil, fmt.Errorf("%w: charge reference provided without a prize pool", ErrValidationFailed)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed after finalize error", slog.Any("error", rbErr))
			}
		}
	}()

	competitionSlug := fmt.Sprintf("%s-%d", slug.Make(competition.Name), competition.ID)
	now := time.Now().UTC()

	if err := s.competitionRepo.Finalize(ctx, tx, competitionID, competitionSlug, now); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotDraft) {
			return nil, ErrCompetitionNotDraft
		}
		return nil, err
	}

	teams := make([]models.Team, len(input.Teams))
	for i, t := range input.Teams {
		teams[i] = models.Team{Name: t.Name, Color: t.Color, Emoji: t.Emoji}
	}
	if len(teams) > 0 {
		if err := s.teamRepo.CreateBatch(ctx, tx, competitionID, teams); err != nil {
			return nil, err
		}
	}

	if input.Pool != nil {
		pool := &models.PrizePool{
			CompetitionID:   competitionID,
			Mode:            input.Pool.Mode,
			Amount:          input.Pool.Amount,
			PayoutStructure: input.Pool.PayoutStructure,
		}
		if err := s.poolRepo.Create(ctx, tx, pool); err != nil {
			return nil, err
		}
		contribution := &models.Contribution{
			PoolID:    pool.ID,
			UserID:    requesterID,
			Amount:    creatorContribution,
			ChargeRef: *input.ChargeRef,
		}
		if err := s.poolRepo.AddContribution(ctx, tx, contribution); err != nil {
			if errors.Is(err, repositories.ErrContributionDuplicate) {
				return nil, ErrChargeAlreadyUsed
			}
			return nil, err
		}
	}

	participant := &models.Participant{
		CompetitionID: competitionID,
		UserID:        requesterID,
		PoolMember:    input.Pool != nil,
	}
	if len(teams) > 0 {
		participant.TeamID = &teams[0].ID
	}
	if err := s.participantRepo.Create(ctx, tx, participant); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return s.GetByID(ctx, competitionID, requesterID)
}

func (s *competitionService) DeleteDraft(ctx context.Context, competitionID, requesterID int) error {
	err := s.competitionRepo.DeleteDraft(ctx, competitionID, requesterID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return err
	}
	return nil
}

// GetByID отдаёт соревнование со всеми деталями. Черновик виден только
// своему создателю, для остальных его не существует.
func (s *competitionService) GetByID(ctx context.Context, competitionID, requesterID int) (*models.Competition, error) {
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

	g, gctx := errgroup.WithContext(ctx)

	if competition.TeamMode {
		g.Go(func() error {
			teams, teamErr := s.teamRepo.ListByCompetition(gctx, nil, competitionID)
			if teamErr != nil {
				return teamErr
			}
			competition.Teams = teams
			return nil
		})
	}

	g.Go(func() error {
		pool, poolErr := s.poolRepo.GetByCompetitionID(gctx, nil, competitionID)
		if poolErr != nil {
			if errors.Is(poolErr, repositories.ErrPoolNotFound) {
				return nil
			}
			return poolErr
		}
		total, totalErr := s.poolRepo.TotalCollected(gctx, nil, pool.ID)
		if totalErr != nil {
			return totalErr
		}
		pool.TotalCollected = total
		competition.Pool = pool
		return nil
	})

	g.Go(func() error {
		participants, pErr := s.participantRepo.ListByCompetition(gctx, nil, competitionID)
		if pErr != nil {
			return pErr
		}
		competition.Participants = participants
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range competition.Participants {
		populateUserDetailsFunc(competition.Participants[i].User, s.uploader)
	}
	populateCompetitionCoverURLFunc(competition, s.uploader)
	return competition, nil
}

func (s *competitionService) List(ctx context.Context, requesterID int, input ListCompetitionsInput) ([]models.Competition, error) {
	filter := repositories.ListCompetitionsFilter{
		Status: input.Status,
		Limit:  input.Limit,
		Offset: input.Offset,
	}

	switch input.Filter {
	case "created":
		filter.CreatorID = &requesterID
	case "joined", "":
		filter.ParticipantID = &requesterID
	case "public":
		visibility := models.VisibilityPublic
		filter.Visibility = &visibility
	default:
		return nil, fmt.Errorf("%w: unknown list filter %q", ErrValidationFailed, input.Filter)
	}

	competitions, err := s.competitionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range competitions {
		populateCompetitionCoverURLFunc(&competitions[i], s.uploader)
	}
	return competitions, nil
}

func (s *competitionService) UploadCover(ctx context.Context, competitionID, requesterID int, contentType string, file io.Reader) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, nil, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if competition.CreatorID != requesterID {
		return nil, ErrCreatorOnly
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	oldKey := competition.CoverKey
	newKey := fmt.Sprintf("covers/%d/%d%s", competitionID, time.Now().UnixNano(), ext)

	if _, err := s.uploader.Upload(ctx, newKey, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload cover: %w", err)
	}

	if err := s.competitionRepo.UpdateCoverKey(ctx, competitionID, &newKey); err != nil {
		if delErr := s.uploader.Delete(ctx, newKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete orphaned cover", slog.String("key", newKey), slog.Any("error", delErr))
		}
		return nil, err
	}

	if oldKey != nil && *oldKey != "" && *oldKey != newKey {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete previous cover", slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	competition.CoverKey = &newKey
	populateCompetitionCoverURLFunc(competition, s.uploader)
	return competition, nil
}
