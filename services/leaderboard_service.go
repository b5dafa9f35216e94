package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/fitarena-system/cache"
	"github.com/Dosada05/fitarena-system/live"
	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/repositories"
	"github.com/Dosada05/fitarena-system/storage"
	"golang.org/x/sync/errgroup"
)

type SubmitScoreInput struct {
	Day   time.Time `json:"day"`
	Value int64     `json:"value"`
}

type LeaderboardService interface {
	SubmitScore(ctx context.Context, competitionID, userID int, input SubmitScoreInput) error
	GetLeaderboard(ctx context.Context, competitionID, requesterID int) (*models.Leaderboard, error)
}

type leaderboardService struct {
	competitionRepo  repositories.CompetitionRepository
	participantRepo  repositories.ParticipantRepository
	teamRepo         repositories.TeamRepository
	scoreRepo        repositories.ScoreRepository
	leaderboardCache *cache.LeaderboardCache
	hub              *live.Hub
	uploader         storage.FileUploader
	logger           *slog.Logger
}

// NewLeaderboardService собирает сервис таблицы лидеров. leaderboardCache
// может быть nil, тогда агрегация всегда идёт через SQL.
func NewLeaderboardService(
	competitionRepo repositories.CompetitionRepository,
	participantRepo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	scoreRepo repositories.ScoreRepository,
	leaderboardCache *cache.LeaderboardCache,
	hub *live.Hub,
	uploader storage.FileUploader,
	logger *slog.Logger,
) LeaderboardService {
	return &leaderboardService{
		competitionRepo:  competitionRepo,
		participantRepo:  participantRepo,
		teamRepo:         teamRepo,
		scoreRepo:        scoreRepo,
		leaderboardCache: leaderboardCache,
		hub:              hub,
		uploader:         uploader,
		logger:           logger,
	}
}

func (s *leaderboardService) SubmitScore(ctx context.Context, competitionID, userID int, input SubmitScoreInput) error {
	competition, err := s.competitionRepo.GetByID(ctx, nil, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return err
	}
	if competition.Status != models.StatusActive {
		return ErrCompetitionNotActive
	}

	day := input.Day.UTC().Truncate(24 * time.Hour)
	startDay := competition.StartDate.UTC().Truncate(24 * time.Hour)
	endDay := competition.EndDate.UTC().Truncate(24 * time.Hour)
	if day.Before(startDay) || day.After(endDay) {
		return ErrScoreOutsideWindow
	}
	if input.Value < 0 {
		return ErrValidationFailed
	}

	if _, err := s.participantRepo.GetByCompetitionAndUser(ctx, nil, competitionID, userID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}

	score := &models.Score{
		CompetitionID: competitionID,
		UserID:        userID,
		Day:           day,
		Value:         input.Value,
	}
	if err := s.scoreRepo.Upsert(ctx, score); err != nil {
		return err
	}

	s.refreshCachedTotal(ctx, competitionID, userID)

	s.hub.BroadcastToRoom(live.CompetitionRoom(competitionID), live.WebSocketMessage{
		Type:   live.EventLeaderboardUpdated,
		RoomID: live.CompetitionRoom(competitionID),
		Payload: map[string]interface{}{
			"competition_id": competitionID,
			"user_id":        userID,
			"day":            day.Format("2006-01-02"),
			"value":          input.Value,
		},
	})

	return nil
}

// refreshCachedTotal обновляет сумму одного участника в Redis. Ошибки кэша
// не влияют на результат записи, таблица пересчитается из SQL при чтении.
func (s *leaderboardService) refreshCachedTotal(ctx context.Context, competitionID, userID int) {
	if s.leaderboardCache == nil {
		return
	}
	total, err := s.scoreRepo.UserTotal(ctx, competitionID, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to compute user total for cache", slog.Int("competition_id", competitionID), slog.Any("error", err))
		return
	}
	if err := s.leaderboardCache.SetMemberTotal(ctx, competitionID, userID, total); err != nil {
		s.logger.WarnContext(ctx, "failed to update leaderboard cache", slog.Int("competition_id", competitionID), slog.Any("error", err))
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, competitionID, requesterID int) (*models.Leaderboard, error) {
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

	var (
		entries []models.LeaderboardEntry
		teams   []models.Team
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		loaded, loadErr := s.loadEntries(groupCtx, competitionID)
		if loadErr != nil {
			return loadErr
		}
		entries = loaded
		return nil
	})
	if competition.TeamMode {
		group.Go(func() error {
			list, listErr := s.teamRepo.ListByCompetition(groupCtx, nil, competitionID)
			if listErr != nil {
				return listErr
			}
			teams = list
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	populateLeaderboardAvatarsFunc(entries, s.uploader)

	board := &models.Leaderboard{
		CompetitionID: competitionID,
		GeneratedAt:   time.Now().UTC(),
		Entries:       entries,
	}
	if competition.TeamMode {
		board.Teams = teamStandings(teams, entries)
	}
	return board, nil
}

// teamStandings сворачивает личные суммы в командный зачёт. Команда без
// единого результата остаётся в таблице с нулём.
func teamStandings(teams []models.Team, entries []models.LeaderboardEntry) []models.TeamStanding {
	if len(teams) == 0 {
		return nil
	}
	index := make(map[int]int, len(teams))
	standings := make([]models.TeamStanding, len(teams))
	for i, team := range teams {
		standings[i] = models.TeamStanding{
			TeamID: team.ID,
			Name:   team.Name,
			Color:  team.Color,
			Emoji:  team.Emoji,
		}
		index[team.ID] = i
	}
	for _, entry := range entries {
		if entry.TeamID == nil {
			continue
		}
		i, ok := index[*entry.TeamID]
		if !ok {
			continue
		}
		standings[i].Total += entry.Total
		standings[i].Members++
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Total > standings[j].Total
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

func (s *leaderboardService) loadEntries(ctx context.Context, competitionID int) ([]models.LeaderboardEntry, error) {
	if s.leaderboardCache != nil {
		scores, cacheErr := s.leaderboardCache.Top(ctx, competitionID)
		if cacheErr != nil {
			s.logger.WarnContext(ctx, "leaderboard cache read failed, falling back to SQL", slog.Int("competition_id", competitionID), slog.Any("error", cacheErr))
		} else if len(scores) > 0 {
			entries, mergeErr := s.entriesFromCache(ctx, competitionID, scores)
			if mergeErr == nil {
				return entries, nil
			}
			s.logger.WarnContext(ctx, "failed to merge cached leaderboard, falling back to SQL", slog.Int("competition_id", competitionID), slog.Any("error", mergeErr))
		}
	}

	entries, err := s.scoreRepo.TotalsByCompetition(ctx, nil, competitionID)
	if err != nil {
		return nil, err
	}

	if s.leaderboardCache != nil {
		scores := make([]cache.MemberScore, len(entries))
		for i, e := range entries {
			scores[i] = cache.MemberScore{UserID: e.UserID, Total: e.Total}
		}
		if cacheErr := s.leaderboardCache.Rebuild(ctx, competitionID, scores); cacheErr != nil {
			s.logger.WarnContext(ctx, "failed to rebuild leaderboard cache", slog.Int("competition_id", competitionID), slog.Any("error", cacheErr))
		}
	}

	return entries, nil
}

// entriesFromCache дополняет кэшированные суммы данными участников.
func (s *leaderboardService) entriesFromCache(ctx context.Context, competitionID int, scores []cache.MemberScore) ([]models.LeaderboardEntry, error) {
	participants, err := s.participantRepo.ListByCompetition(ctx, nil, competitionID)
	if err != nil {
		return nil, err
	}
	byUser := make(map[int]models.Participant, len(participants))
	for _, p := range participants {
		byUser[p.UserID] = p
	}

	entries := make([]models.LeaderboardEntry, 0, len(scores))
	rank := 0
	for _, score := range scores {
		p, ok := byUser[score.UserID]
		if !ok {
			// Участник из кэша уже не числится в соревновании, пропускаем.
			continue
		}
		rank++
		entry := models.LeaderboardEntry{
			Rank:       rank,
			UserID:     score.UserID,
			Total:      score.Total,
			TeamID:     p.TeamID,
			PoolMember: p.PoolMember,
		}
		if p.User != nil {
			entry.Nickname = p.User.Nickname
			entry.AvatarKey = p.User.AvatarKey
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
