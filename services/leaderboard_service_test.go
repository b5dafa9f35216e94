package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/fitarena-system/live"
	"github.com/Dosada05/fitarena-system/models"
)

type leaderboardEnv struct {
	comps    *fakeCompetitionRepo
	parts    *fakeParticipantRepo
	teams    *fakeTeamRepo
	scores   *fakeScoreRepo
	uploader *fakeUploader
	service  LeaderboardService
}

// Без Redis сервис считает таблицу напрямую из SQL, эти тесты покрывают
// именно такой режим.
func newLeaderboardEnv(t *testing.T) *leaderboardEnv {
	t.Helper()
	env := &leaderboardEnv{
		comps:    newFakeCompetitionRepo(),
		parts:    newFakeParticipantRepo(),
		teams:    newFakeTeamRepo(),
		scores:   newFakeScoreRepo(),
		uploader: newFakeUploader(),
	}
	env.service = NewLeaderboardService(env.comps, env.parts, env.teams, env.scores, nil, live.NewHub(testLogger()), env.uploader, testLogger())
	return env
}

func (e *leaderboardEnv) joinParticipant(competitionID, userID int) {
	e.parts.addParticipant(models.Participant{ID: userID, CompetitionID: competitionID, UserID: userID})
}

func TestSubmitScoreRecordsTruncatedDay(t *testing.T) {
	env := newLeaderboardEnv(t)
	env.comps.add(activeCompetition(7, 1))
	env.joinParticipant(7, 9)

	afternoon := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	if err := env.service.SubmitScore(context.Background(), 7, 9, SubmitScoreInput{Day: afternoon, Value: 8000}); err != nil {
		t.Fatalf("expected score to be recorded, got %v", err)
	}

	scores := env.scores.list()
	if len(scores) != 1 {
		t.Fatalf("expected 1 score, got %d", len(scores))
	}
	wantDay := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	if !scores[0].Day.Equal(wantDay) {
		t.Fatalf("expected day truncated to %v, got %v", wantDay, scores[0].Day)
	}
	if scores[0].Value != 8000 {
		t.Fatalf("expected value 8000, got %d", scores[0].Value)
	}
}

func TestSubmitScoreOverwritesSameDay(t *testing.T) {
	env := newLeaderboardEnv(t)
	env.comps.add(activeCompetition(7, 1))
	env.joinParticipant(7, 9)

	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	if err := env.service.SubmitScore(context.Background(), 7, 9, SubmitScoreInput{Day: day, Value: 8000}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if err := env.service.SubmitScore(context.Background(), 7, 9, SubmitScoreInput{Day: day, Value: 9500}); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	scores := env.scores.list()
	if len(scores) != 1 {
		t.Fatalf("expected upsert to keep a single row, got %d", len(scores))
	}
	if scores[0].Value != 9500 {
		t.Fatalf("expected value overwritten to 9500, got %d", scores[0].Value)
	}
}

func TestSubmitScoreAcceptsWindowEdges(t *testing.T) {
	env := newLeaderboardEnv(t)
	env.comps.add(activeCompetition(7, 1))
	env.joinParticipant(7, 9)

	first := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	last := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	if err := env.service.SubmitScore(context.Background(), 7, 9, SubmitScoreInput{Day: first, Value: 100}); err != nil {
		t.Fatalf("expected first day to be accepted, got %v", err)
	}
	if err := env.service.SubmitScore(context.Background(), 7, 9, SubmitScoreInput{Day: last, Value: 200}); err != nil {
		t.Fatalf("expected last day to be accepted, got %v", err)
	}
	if len(env.scores.list()) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(env.scores.list()))
	}
}

func TestSubmitScoreRejectsOutsideWindow(t *testing.T) {
	env := newLeaderboardEnv(t)
	env.comps.add(activeCompetition(7, 1))
	env.joinParticipant(7, 9)

	before := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	after := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	if err := env.service.SubmitScore(context.Background(), 7, 9, SubmitScoreInput{Day: before, Value: 100}); !errors.Is(err, ErrScoreOutsideWindow) {
		t.Fatalf("expected ErrScoreOutsideWindow before start, got %v", err)
	}
	if err := env.service.SubmitScore(context.Background(), 7, 9, SubmitScoreInput{Day: after, Value: 100}); !errors.Is(err, ErrScoreOutsideWindow) {
		t.Fatalf("expected ErrScoreOutsideWindow after end, got %v", err)
	}
	if len(env.scores.list()) != 0 {
		t.Fatal("expected no scores recorded outside the window")
	}
}

func TestSubmitScoreGuards(t *testing.T) {
	env := newLeaderboardEnv(t)
	env.comps.add(draftCompetition(8, 1))
	env.comps.add(activeCompetition(7, 1))
	env.joinParticipant(7, 9)
	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	if err := env.service.SubmitScore(context.Background(), 99, 9, SubmitScoreInput{Day: day, Value: 1}); !errors.Is(err, ErrCompetitionNotFound) {
		t.Fatalf("expected ErrCompetitionNotFound, got %v", err)
	}
	if err := env.service.SubmitScore(context.Background(), 8, 9, SubmitScoreInput{Day: day, Value: 1}); !errors.Is(err, ErrCompetitionNotActive) {
		t.Fatalf("expected ErrCompetitionNotActive for draft, got %v", err)
	}
	if err := env.service.SubmitScore(context.Background(), 7, 9, SubmitScoreInput{Day: day, Value: -5}); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed for negative value, got %v", err)
	}
	if err := env.service.SubmitScore(context.Background(), 7, 4, SubmitScoreInput{Day: day, Value: 1}); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound for outsider, got %v", err)
	}

	env.scores.upsertErr = errors.New("insert failed")
	if err := env.service.SubmitScore(context.Background(), 7, 9, SubmitScoreInput{Day: day, Value: 1}); err == nil {
		t.Fatal("expected upsert failure to propagate")
	}
}

func TestGetLeaderboardRanksFromSQL(t *testing.T) {
	env := newLeaderboardEnv(t)
	env.comps.add(activeCompetition(7, 1))
	avatarKey := "avatars/9/1.png"
	env.scores.totals = []models.LeaderboardEntry{
		{Rank: 1, UserID: 9, Nickname: "runner", AvatarKey: &avatarKey, Total: 90000, PoolMember: true},
		{Rank: 2, UserID: 4, Nickname: "walker", Total: 70000},
	}

	leaderboard, err := env.service.GetLeaderboard(context.Background(), 7, 4)
	if err != nil {
		t.Fatalf("expected leaderboard, got %v", err)
	}
	if leaderboard.CompetitionID != 7 {
		t.Fatalf("expected competition 7, got %d", leaderboard.CompetitionID)
	}
	if leaderboard.GeneratedAt.IsZero() {
		t.Fatal("expected generated_at to be set")
	}
	if len(leaderboard.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(leaderboard.Entries))
	}
	if leaderboard.Entries[0].UserID != 9 || leaderboard.Entries[0].Rank != 1 {
		t.Fatalf("unexpected first entry: %+v", leaderboard.Entries[0])
	}
	if leaderboard.Entries[0].AvatarURL == nil || !strings.Contains(*leaderboard.Entries[0].AvatarURL, avatarKey) {
		t.Fatalf("expected avatar url for %s, got %v", avatarKey, leaderboard.Entries[0].AvatarURL)
	}
	if leaderboard.Teams != nil {
		t.Fatalf("expected no team standings for an individual competition, got %+v", leaderboard.Teams)
	}
}

func TestGetLeaderboardAggregatesTeams(t *testing.T) {
	env := newLeaderboardEnv(t)
	comp := activeCompetition(7, 1)
	comp.TeamMode = true
	env.comps.add(comp)
	env.teams.teams[7] = []models.Team{
		{ID: 31, CompetitionID: 7, Name: "Reds", Color: "#FF5733", Emoji: "🔥"},
		{ID: 32, CompetitionID: 7, Name: "Blues", Color: "#3357FF", Emoji: "🌊"},
	}
	red, blue := 31, 32
	env.scores.totals = []models.LeaderboardEntry{
		{Rank: 1, UserID: 9, Total: 50000, TeamID: &red},
		{Rank: 2, UserID: 4, Total: 40000, TeamID: &blue},
		{Rank: 3, UserID: 5, Total: 30000, TeamID: &blue},
	}

	leaderboard, err := env.service.GetLeaderboard(context.Background(), 7, 4)
	if err != nil {
		t.Fatalf("expected leaderboard, got %v", err)
	}
	if len(leaderboard.Teams) != 2 {
		t.Fatalf("expected 2 team standings, got %d", len(leaderboard.Teams))
	}
	first := leaderboard.Teams[0]
	if first.TeamID != 32 || first.Rank != 1 || first.Total != 70000 || first.Members != 2 {
		t.Fatalf("unexpected leading team: %+v", first)
	}
	if first.Name != "Blues" || first.Emoji != "🌊" {
		t.Fatalf("expected team details on standings, got %+v", first)
	}
	second := leaderboard.Teams[1]
	if second.TeamID != 31 || second.Rank != 2 || second.Total != 50000 || second.Members != 1 {
		t.Fatalf("unexpected runner-up team: %+v", second)
	}
}

func TestGetLeaderboardHidesDraftsFromOthers(t *testing.T) {
	env := newLeaderboardEnv(t)
	env.comps.add(draftCompetition(8, 1))

	if _, err := env.service.GetLeaderboard(context.Background(), 8, 1); err != nil {
		t.Fatalf("expected creator to see draft leaderboard, got %v", err)
	}
	if _, err := env.service.GetLeaderboard(context.Background(), 8, 2); !errors.Is(err, ErrCompetitionNotFound) {
		t.Fatalf("expected ErrCompetitionNotFound for non-creator, got %v", err)
	}
}

func TestGetLeaderboardPropagatesAggregationError(t *testing.T) {
	env := newLeaderboardEnv(t)
	env.comps.add(activeCompetition(7, 1))
	env.scores.totalsErr = errors.New("aggregation failed")

	if _, err := env.service.GetLeaderboard(context.Background(), 7, 1); err == nil {
		t.Fatal("expected aggregation failure to propagate")
	}
}
