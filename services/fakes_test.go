package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/payments"
	"github.com/Dosada05/fitarena-system/repositories"
	"github.com/Dosada05/fitarena-system/storage"
	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockDB поднимает *sql.DB на sqlmock. Репозитории в тестах сервисов
// фиктивные, от мока нужны только Begin, Commit и Rollback.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

type draftDeletion struct {
	ID        int
	CreatorID int
}

type fakeCompetitionRepo struct {
	mu           sync.Mutex
	nextID       int
	competitions map[int]*models.Competition

	coverKeyErr    error
	endedActiveErr error
	staleDraftsErr error

	listResult []models.Competition
	lastFilter repositories.ListCompetitionsFilter

	endedActive []*models.Competition
	staleDrafts []models.Competition
	staleCutoff time.Time

	statusUpdates map[int]models.CompetitionStatus
	updateErrs    map[int]error
	deletions     []draftDeletion
}

func newFakeCompetitionRepo() *fakeCompetitionRepo {
	return &fakeCompetitionRepo{
		competitions:  make(map[int]*models.Competition),
		statusUpdates: make(map[int]models.CompetitionStatus),
		updateErrs:    make(map[int]error),
	}
}

func (f *fakeCompetitionRepo) add(competition models.Competition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.competitions[competition.ID] = &competition
	if competition.ID > f.nextID {
		f.nextID = competition.ID
	}
}

func (f *fakeCompetitionRepo) get(id int) models.Competition {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.competitions[id]
}

func (f *fakeCompetitionRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.competitions)
}

func (f *fakeCompetitionRepo) Create(ctx context.Context, competition *models.Competition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	competition.ID = f.nextID
	competition.CreatedAt = time.Now().UTC()
	stored := *competition
	f.competitions[stored.ID] = &stored
	return nil
}

func (f *fakeCompetitionRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.competitions[id]
	if !ok {
		return nil, repositories.ErrCompetitionNotFound
	}
	competition := *stored
	return &competition, nil
}

func (f *fakeCompetitionRepo) List(ctx context.Context, filter repositories.ListCompetitionsFilter) ([]models.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	return f.listResult, nil
}

func (f *fakeCompetitionRepo) Finalize(ctx context.Context, exec repositories.SQLExecutor, id int, slug string, finalizedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.competitions[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	if stored.Status != models.StatusDraft {
		return repositories.ErrCompetitionNotDraft
	}
	stored.Status = models.StatusActive
	stored.Slug = &slug
	at := finalizedAt
	stored.FinalizedAt = &at
	return nil
}

func (f *fakeCompetitionRepo) DeleteDraft(ctx context.Context, id, creatorID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletions = append(f.deletions, draftDeletion{ID: id, CreatorID: creatorID})
	stored, ok := f.competitions[id]
	if !ok || stored.CreatorID != creatorID || stored.Status != models.StatusDraft {
		return repositories.ErrCompetitionNotFound
	}
	delete(f.competitions, id)
	return nil
}

func (f *fakeCompetitionRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.CompetitionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErrs[id]; err != nil {
		return err
	}
	f.statusUpdates[id] = status
	if stored, ok := f.competitions[id]; ok {
		stored.Status = status
	}
	return nil
}

func (f *fakeCompetitionRepo) UpdateCoverKey(ctx context.Context, competitionID int, coverKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.coverKeyErr != nil {
		return f.coverKeyErr
	}
	if stored, ok := f.competitions[competitionID]; ok {
		stored.CoverKey = coverKey
	}
	return nil
}

func (f *fakeCompetitionRepo) ListEndedActive(ctx context.Context, exec repositories.SQLExecutor, currentTime time.Time) ([]*models.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.endedActiveErr != nil {
		return nil, f.endedActiveErr
	}
	return f.endedActive, nil
}

func (f *fakeCompetitionRepo) ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]models.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staleCutoff = cutoff
	if f.staleDraftsErr != nil {
		return nil, f.staleDraftsErr
	}
	return f.staleDrafts, nil
}

type fakeTeamRepo struct {
	mu       sync.Mutex
	nextID   int
	teams    map[int][]models.Team
	smallest *models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int][]models.Team)}
}

func (f *fakeTeamRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, competitionID int, teams []models.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range teams {
		f.nextID++
		teams[i].ID = f.nextID
		teams[i].CompetitionID = competitionID
	}
	f.teams[competitionID] = append(f.teams[competitionID], teams...)
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, teams := range f.teams {
		for _, team := range teams {
			if team.ID == id {
				found := team
				return &found, nil
			}
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) ListByCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID int) ([]models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Team(nil), f.teams[competitionID]...), nil
}

func (f *fakeTeamRepo) GetSmallest(ctx context.Context, exec repositories.SQLExecutor, competitionID int) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.smallest != nil {
		team := *f.smallest
		return &team, nil
	}
	teams := f.teams[competitionID]
	if len(teams) == 0 {
		return nil, repositories.ErrTeamNotFound
	}
	team := teams[0]
	return &team, nil
}

type fakePoolRepo struct {
	mu            sync.Mutex
	nextID        int
	pools         map[int]*models.PrizePool
	contributions []models.Contribution
	addErr        error
}

func newFakePoolRepo() *fakePoolRepo {
	return &fakePoolRepo{pools: make(map[int]*models.PrizePool)}
}

func (f *fakePoolRepo) addPool(pool models.PrizePool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pools[pool.CompetitionID] = &pool
	if pool.ID > f.nextID {
		f.nextID = pool.ID
	}
}

func (f *fakePoolRepo) contributionList() []models.Contribution {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Contribution(nil), f.contributions...)
}

func (f *fakePoolRepo) Create(ctx context.Context, exec repositories.SQLExecutor, pool *models.PrizePool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pools[pool.CompetitionID]; ok {
		return repositories.ErrPoolAlreadyExists
	}
	f.nextID++
	pool.ID = f.nextID
	stored := *pool
	f.pools[stored.CompetitionID] = &stored
	return nil
}

func (f *fakePoolRepo) GetByCompetitionID(ctx context.Context, exec repositories.SQLExecutor, competitionID int) (*models.PrizePool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.pools[competitionID]
	if !ok {
		return nil, repositories.ErrPoolNotFound
	}
	pool := *stored
	return &pool, nil
}

func (f *fakePoolRepo) AddContribution(ctx context.Context, exec repositories.SQLExecutor, contribution *models.Contribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	for _, existing := range f.contributions {
		if existing.ChargeRef == contribution.ChargeRef {
			return repositories.ErrContributionDuplicate
		}
		if existing.PoolID == contribution.PoolID && existing.UserID == contribution.UserID {
			return repositories.ErrContributorAlreadyInPool
		}
	}
	contribution.ID = len(f.contributions) + 1
	contribution.CreatedAt = time.Now().UTC()
	f.contributions = append(f.contributions, *contribution)
	return nil
}

func (f *fakePoolRepo) TotalCollected(ctx context.Context, exec repositories.SQLExecutor, poolID int) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := decimal.Zero
	for _, c := range f.contributions {
		if c.PoolID == poolID {
			total = total.Add(c.Amount)
		}
	}
	return total, nil
}

func (f *fakePoolRepo) ListContributions(ctx context.Context, exec repositories.SQLExecutor, poolID int) ([]models.Contribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Contribution
	for _, c := range f.contributions {
		if c.PoolID == poolID {
			list = append(list, c)
		}
	}
	return list, nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	nextID       int
	participants []models.Participant
	createErr    error
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{}
}

func (f *fakeParticipantRepo) addParticipant(participant models.Participant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants = append(f.participants, participant)
	if participant.ID > f.nextID {
		f.nextID = participant.ID
	}
}

func (f *fakeParticipantRepo) list() []models.Participant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Participant(nil), f.participants...)
}

func (f *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, participant *models.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.participants {
		if existing.CompetitionID == participant.CompetitionID && existing.UserID == participant.UserID {
			return repositories.ErrParticipantAlreadyJoined
		}
	}
	f.nextID++
	participant.ID = f.nextID
	participant.JoinedAt = time.Now().UTC()
	f.participants = append(f.participants, *participant)
	return nil
}

func (f *fakeParticipantRepo) GetByCompetitionAndUser(ctx context.Context, exec repositories.SQLExecutor, competitionID, userID int) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.participants {
		if existing.CompetitionID == competitionID && existing.UserID == userID {
			participant := existing
			return &participant, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (f *fakeParticipantRepo) ListByCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID int) ([]models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Participant
	for _, existing := range f.participants {
		if existing.CompetitionID == competitionID {
			list = append(list, existing)
		}
	}
	return list, nil
}

func (f *fakeParticipantRepo) CountByCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, existing := range f.participants {
		if existing.CompetitionID == competitionID {
			count++
		}
	}
	return count, nil
}

type invitationBatch struct {
	CompetitionID int
	InviterID     int
	InviteeIDs    []int
}

type fakeInvitationRepo struct {
	mu          sync.Mutex
	invitations map[int]*models.Invitation
	batches     []invitationBatch
	createErr   error
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[int]*models.Invitation)}
}

func (f *fakeInvitationRepo) add(invitation models.Invitation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invitations[invitation.ID] = &invitation
}

func (f *fakeInvitationRepo) get(id int) models.Invitation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.invitations[id]
}

func (f *fakeInvitationRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, competitionID, inviterID int, inviteeIDs []int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.batches = append(f.batches, invitationBatch{
		CompetitionID: competitionID,
		InviterID:     inviterID,
		InviteeIDs:    append([]int(nil), inviteeIDs...),
	})
	return len(inviteeIDs), nil
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.invitations[id]
	if !ok {
		return nil, repositories.ErrInvitationNotFound
	}
	invitation := *stored
	return &invitation, nil
}

func (f *fakeInvitationRepo) ListPendingByInvitee(ctx context.Context, inviteeID int) ([]models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Invitation
	for _, stored := range f.invitations {
		if stored.InviteeID == inviteeID && stored.Status == models.InvitationPending {
			list = append(list, *stored)
		}
	}
	return list, nil
}

func (f *fakeInvitationRepo) Resolve(ctx context.Context, exec repositories.SQLExecutor, id, inviteeID int, status models.InvitationStatus, respondedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.invitations[id]
	if !ok || stored.InviteeID != inviteeID {
		return repositories.ErrInvitationNotFound
	}
	if stored.Status != models.InvitationPending {
		return repositories.ErrInvitationAlreadyResolved
	}
	stored.Status = status
	at := respondedAt
	stored.RespondedAt = &at
	return nil
}

type fakeUserRepo struct {
	mu         sync.Mutex
	nextID     int
	users      map[int]*models.User
	fairPlayAt map[int]time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:      make(map[int]*models.User),
		fairPlayAt: make(map[int]time.Time),
	}
}

func (f *fakeUserRepo) add(user models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = &user
	if user.ID > f.nextID {
		f.nextID = user.ID
	}
}

func (f *fakeUserRepo) get(id int) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[id]
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Nickname == user.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now().UTC()
	stored := *user
	f.users[stored.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	user := *stored
	return &user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.users {
		if stored.Email == email {
			user := *stored
			return &user, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.User
	for _, id := range ids {
		if stored, ok := f.users[id]; ok {
			list = append(list, *stored)
		}
	}
	return list, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	for _, other := range f.users {
		if other.ID != user.ID && other.Nickname == user.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	*stored = *user
	return nil
}

func (f *fakeUserRepo) UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	stored.AvatarKey = avatarKey
	return nil
}

func (f *fakeUserRepo) SetFairPlayAccepted(ctx context.Context, userID int, acceptedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	at := acceptedAt
	stored.FairPlayAcceptedAt = &at
	f.fairPlayAt[userID] = acceptedAt
	return nil
}

type fakeScoreRepo struct {
	mu        sync.Mutex
	scores    []models.Score
	upsertErr error
	totals    []models.LeaderboardEntry
	totalsErr error
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{}
}

func (f *fakeScoreRepo) list() []models.Score {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Score(nil), f.scores...)
}

func (f *fakeScoreRepo) Upsert(ctx context.Context, score *models.Score) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for i, existing := range f.scores {
		if existing.CompetitionID == score.CompetitionID && existing.UserID == score.UserID && existing.Day.Equal(score.Day) {
			f.scores[i].Value = score.Value
			f.scores[i].RecordedAt = time.Now().UTC()
			return nil
		}
	}
	score.ID = len(f.scores) + 1
	score.RecordedAt = time.Now().UTC()
	f.scores = append(f.scores, *score)
	return nil
}

func (f *fakeScoreRepo) UserTotal(ctx context.Context, competitionID, userID int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, existing := range f.scores {
		if existing.CompetitionID == competitionID && existing.UserID == userID {
			total += existing.Value
		}
	}
	return total, nil
}

func (f *fakeScoreRepo) TotalsByCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID int) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.totalsErr != nil {
		return nil, f.totalsErr
	}
	return f.totals, nil
}

type fakePayoutRepo struct {
	mu        sync.Mutex
	payouts   []models.Payout
	exists    bool
	createErr error
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{}
}

func (f *fakePayoutRepo) list() []models.Payout {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Payout(nil), f.payouts...)
}

func (f *fakePayoutRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, payouts []models.Payout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.payouts = append(f.payouts, payouts...)
	f.exists = true
	return nil
}

func (f *fakePayoutRepo) ExistsForCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists, nil
}

func (f *fakePayoutRepo) ListByCompetition(ctx context.Context, competitionID int) ([]models.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Payout
	for _, p := range f.payouts {
		if p.CompetitionID == competitionID {
			list = append(list, p)
		}
	}
	return list, nil
}

type fakeChargeGateway struct {
	mu      sync.Mutex
	charges map[string]payments.ChargeRecord
	getErr  error
	gets    []string
}

func newFakeChargeGateway() *fakeChargeGateway {
	return &fakeChargeGateway{charges: make(map[string]payments.ChargeRecord)}
}

func (f *fakeChargeGateway) addCharge(record payments.ChargeRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charges[record.ID] = record
}

func (f *fakeChargeGateway) CreateCharge(ctx context.Context, input payments.CreateChargeInput) (*payments.ChargeRecord, error) {
	return nil, errors.New("unexpected CreateCharge call")
}

func (f *fakeChargeGateway) GetCharge(ctx context.Context, chargeID string) (*payments.ChargeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, chargeID)
	if f.getErr != nil {
		return nil, f.getErr
	}
	record, ok := f.charges[chargeID]
	if !ok {
		return nil, payments.ErrChargeNotFound
	}
	return &record, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []string
	deletes []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{}
}

func (f *fakeUploader) uploadedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

func (f *fakeUploader) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

func (f *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeSettlement struct {
	mu      sync.Mutex
	settled []int
	err     error
}

func (f *fakeSettlement) Settle(ctx context.Context, competitionID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settled = append(f.settled, competitionID)
	return f.err
}

func (f *fakeSettlement) GetPayouts(ctx context.Context, competitionID, requesterID int) ([]models.Payout, error) {
	return nil, nil
}

func (f *fakeSettlement) settledIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.settled...)
}

type fakeBoardInvalidator struct {
	mu  sync.Mutex
	ids []int
	err error
}

func (f *fakeBoardInvalidator) Invalidate(ctx context.Context, competitionID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, competitionID)
	return f.err
}

func (f *fakeBoardInvalidator) invalidatedIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.ids...)
}

// draftCompetition и activeCompetition задают минимально валидные
// соревнования для сценариев сервисных тестов.
func draftCompetition(id, creatorID int) models.Competition {
	return models.Competition{
		ID:          id,
		CreatorID:   creatorID,
		Name:        "March Step Challenge",
		Status:      models.StatusDraft,
		Cadence:     models.CadenceDaily,
		Visibility:  models.VisibilityPrivate,
		ScoringType: models.ScoringSteps,
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Now().UTC(),
	}
}

func activeCompetition(id, creatorID int) models.Competition {
	competition := draftCompetition(id, creatorID)
	competition.Status = models.StatusActive
	slugValue := "march-step-challenge"
	competition.Slug = &slugValue
	return competition
}
