package wizard

import (
	"context"
	"time"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/payments"
	"github.com/shopspring/decimal"
)

// Basics - данные шага info. Черновик на сервере создаётся из них.
type Basics struct {
	Name        string
	Description string
	Cadence     models.Cadence
	Visibility  models.Visibility
	ScoringType models.ScoringType
	ScoringGoal *int64
	TeamMode    bool
	StartDate   time.Time
	EndDate     time.Time
}

// TeamDraft - команда, настроенная локально до финализации.
type TeamDraft struct {
	Name  string
	Color string
	Emoji string
}

// PoolDraft - призовой фонд, настроенный локально до финализации.
type PoolDraft struct {
	Mode            models.PoolMode
	Amount          decimal.Decimal
	PayoutStructure models.PayoutStructure
}

// FinalizeConfig собирает всё, что мастер накопил после создания черновика.
type FinalizeConfig struct {
	Teams     []TeamDraft
	Pool      *PoolDraft
	ChargeRef string
}

// AcceptReply - ответ сервера на принятие приглашения.
type AcceptReply struct {
	Joined        bool
	RequiresBuyIn bool
	BuyInAmount   decimal.Decimal
}

// Backend - серверные операции, которые нужны мастеру и входящим
// приглашениям. Реализуется HTTP-клиентом приложения.
type Backend interface {
	CreateDraftCompetition(ctx context.Context, basics Basics) (int, error)
	DeleteDraftCompetition(ctx context.Context, draftID int) error
	FinalizeDraftCompetition(ctx context.Context, draftID int, cfg FinalizeConfig) error
	FetchCompetition(ctx context.Context, competitionID int) (*models.Competition, error)
	CreateInvitations(ctx context.Context, competitionID int, inviteeIDs []int) error
	PendingInvitations(ctx context.Context) ([]models.Invitation, error)
	AcceptInvitation(ctx context.Context, invitationID int, chargeRef string) (AcceptReply, error)
	JoinWithoutPool(ctx context.Context, invitationID int) error
	DeclineInvitation(ctx context.Context, invitationID int) error
}

// Charger запускает оплату и возвращает размеченный исход.
// Реализуется payments.Orchestrator.
type Charger interface {
	Charge(ctx context.Context, req payments.ChargeRequest) payments.ChargeResult
}

// FairPlayGate хранит серверный признак "пользователь принял правила
// честной игры". Принимается один раз на аккаунт.
type FairPlayGate interface {
	FairPlayAccepted(ctx context.Context) (bool, error)
	AcknowledgeFairPlay(ctx context.Context) error
}

// FairPlayPrompt показывает экран правил и возвращает решение пользователя.
type FairPlayPrompt interface {
	PromptFairPlay(ctx context.Context) bool
}

// ListCache - локальный список соревнований на главном экране.
type ListCache interface {
	Prepend(competition *models.Competition)
}

// Navigator переводит пользователя на экран созданного соревнования.
type Navigator interface {
	ShowCompetition(competitionID int)
}
