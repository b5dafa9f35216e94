package wizard

import (
	"github.com/Dosada05/fitarena-system/models"
	"github.com/shopspring/decimal"
)

// Step - шаг мастера создания соревнования.
type Step string

const (
	StepInfo   Step = "info"
	StepTeams  Step = "teams"
	StepPrize  Step = "prize"
	StepInvite Step = "invite"
	StepReview Step = "review"
)

// ReviewAction определяет, какой кнопкой завершается мастер.
type ReviewAction int

const (
	// ActionCreate: фонда нет, соревнование создаётся без оплаты.
	ActionCreate ReviewAction = iota
	// ActionPay: настроен призовой фонд, подтверждение запускает списание.
	ActionPay
)

type ConfirmStatus int

const (
	// ConfirmFinalized: соревнование создано и активно.
	ConfirmFinalized ConfirmStatus = iota
	// ConfirmCancelled: пользователь закрыл платёжную шторку, мастер
	// молча остаётся на экране подтверждения.
	ConfirmCancelled
	// ConfirmFailed: списание или финализация не прошли, причина в Reason.
	// Черновик не тронут, подтверждение можно повторить.
	ConfirmFailed
	// ConfirmBusy: предыдущее подтверждение ещё выполняется.
	ConfirmBusy
	// ConfirmAbandoned: мастер был закрыт, черновик снесён.
	ConfirmAbandoned
)

// ConfirmResult - размеченный исход подтверждения. Наружу мастера ошибки
// не вылетают, все исходы выражены статусом.
type ConfirmResult struct {
	Status      ConfirmStatus
	Reason      string
	Competition *models.Competition
}

type AcceptStatus int

const (
	// AcceptJoined: приглашение принято, участие записано.
	AcceptJoined AcceptStatus = iota
	// AcceptRequiresBuyIn: соревнование с buy_in фондом, нужен выбор:
	// заплатить взнос или присоединиться вне фонда.
	AcceptRequiresBuyIn
	AcceptFailed
)

type AcceptOutcome struct {
	Status      AcceptStatus
	BuyInAmount decimal.Decimal
	Reason      string
}

type JoinStatus int

const (
	JoinCompleted JoinStatus = iota
	JoinCancelled
	JoinFailed
)

type JoinOutcome struct {
	Status JoinStatus
	Reason string
}
