package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/payments"
	"github.com/shopspring/decimal"
)

// InviteResolver ведёт экран входящих приглашений. Принятие приглашения
// в соревнование с buy_in фондом разворачивается в выбор: оплатить взнос
// или войти вне фонда. Пока выбор не сделан, приглашение остаётся
// в ожидании и переживает перезапуск приложения.
type InviteResolver struct {
	backend Backend
	charger Charger
	cache   ListCache
	logger  *slog.Logger

	mu         sync.Mutex
	pending    []models.Invitation
	buyIns     map[int]decimal.Decimal
	chargeRefs map[int]string
	busy       bool
}

func NewInviteResolver(backend Backend, charger Charger, cache ListCache, logger *slog.Logger) *InviteResolver {
	return &InviteResolver{
		backend:    backend,
		charger:    charger,
		cache:      cache,
		logger:     logger,
		buyIns:     make(map[int]decimal.Decimal),
		chargeRefs: make(map[int]string),
	}
}

// Load обновляет список ожидающих приглашений с сервера.
func (r *InviteResolver) Load(ctx context.Context) error {
	invitations, err := r.backend.PendingInvitations(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = invitations
	return nil
}

func (r *InviteResolver) Pending() []models.Invitation {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := make([]models.Invitation, len(r.pending))
	copy(pending, r.pending)
	return pending
}

// BuyInAmount возвращает запомненный взнос для приглашения, о котором
// сервер ответил RequiresBuyIn.
func (r *InviteResolver) BuyInAmount(invitationID int) (decimal.Decimal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	amount, ok := r.buyIns[invitationID]
	return amount, ok
}

// Accept пробует принять приглашение. Для соревнований без фонда и с
// фондом от создателя участие записывается сразу; buy_in возвращает
// сумму взноса и оставляет приглашение в ожидании выбора.
func (r *InviteResolver) Accept(ctx context.Context, invitationID int) AcceptOutcome {
	if !r.tryAcquire() {
		return AcceptOutcome{Status: AcceptFailed, Reason: ErrWizardBusy.Error()}
	}
	defer r.release()

	reply, err := r.backend.AcceptInvitation(ctx, invitationID, "")
	if err != nil {
		return AcceptOutcome{Status: AcceptFailed, Reason: err.Error()}
	}
	if reply.RequiresBuyIn {
		r.mu.Lock()
		r.buyIns[invitationID] = reply.BuyInAmount
		r.mu.Unlock()
		return AcceptOutcome{Status: AcceptRequiresBuyIn, BuyInAmount: reply.BuyInAmount}
	}
	r.settle(ctx, invitationID)
	return AcceptOutcome{Status: AcceptJoined}
}

// PayAndJoin списывает взнос и присоединяет к фонду. Отказ от оплаты
// ничего не меняет: приглашение остаётся в ожидании.
func (r *InviteResolver) PayAndJoin(ctx context.Context, invitationID int) JoinOutcome {
	if !r.tryAcquire() {
		return JoinOutcome{Status: JoinFailed, Reason: ErrWizardBusy.Error()}
	}
	defer r.release()

	invitation, ok := r.lookup(invitationID)
	if !ok {
		return JoinOutcome{Status: JoinFailed, Reason: "invitation is no longer pending"}
	}
	r.mu.Lock()
	amount, known := r.buyIns[invitationID]
	chargeRef := r.chargeRefs[invitationID]
	r.mu.Unlock()
	if !known {
		return JoinOutcome{Status: JoinFailed, Reason: "buy-in amount is not known yet, accept the invitation first"}
	}

	// Взнос уже списан, если прошлая попытка упала на записи участия.
	// Второй раз не списываем, отдаём серверу тот же платёж.
	if chargeRef == "" {
		label := fmt.Sprintf("buy-in #%d", invitation.CompetitionID)
		if invitation.Competition != nil {
			label = invitation.Competition.Name
		}
		res := r.charger.Charge(ctx, payments.ChargeRequest{
			CompetitionID: invitation.CompetitionID,
			Amount:        amount,
			PoolMode:      string(models.PoolBuyIn),
			Label:         label,
		})
		switch res.Outcome {
		case payments.ChargeOutcomeCancelled:
			return JoinOutcome{Status: JoinCancelled}
		case payments.ChargeOutcomeFailed:
			return JoinOutcome{Status: JoinFailed, Reason: res.Reason}
		}
		chargeRef = res.ChargeRef
		r.mu.Lock()
		r.chargeRefs[invitationID] = chargeRef
		r.mu.Unlock()
	}

	reply, err := r.backend.AcceptInvitation(ctx, invitationID, chargeRef)
	if err != nil {
		return JoinOutcome{Status: JoinFailed, Reason: err.Error()}
	}
	if !reply.Joined {
		return JoinOutcome{Status: JoinFailed, Reason: "server did not record the join"}
	}
	r.settle(ctx, invitationID)
	return JoinOutcome{Status: JoinCompleted}
}

// JoinWithoutPool записывает участие вне фонда: без взноса и без права
// на выплаты.
func (r *InviteResolver) JoinWithoutPool(ctx context.Context, invitationID int) error {
	if !r.tryAcquire() {
		return ErrWizardBusy
	}
	defer r.release()

	if err := r.backend.JoinWithoutPool(ctx, invitationID); err != nil {
		return err
	}
	r.settle(ctx, invitationID)
	return nil
}

func (r *InviteResolver) Decline(ctx context.Context, invitationID int) error {
	if !r.tryAcquire() {
		return ErrWizardBusy
	}
	defer r.release()

	if err := r.backend.DeclineInvitation(ctx, invitationID); err != nil {
		return err
	}
	r.drop(invitationID)
	return nil
}

func (r *InviteResolver) tryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return false
	}
	r.busy = true
	return true
}

func (r *InviteResolver) release() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

func (r *InviteResolver) lookup(invitationID int) (models.Invitation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, invitation := range r.pending {
		if invitation.ID == invitationID {
			return invitation, true
		}
	}
	return models.Invitation{}, false
}

func (r *InviteResolver) drop(invitationID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buyIns, invitationID)
	delete(r.chargeRefs, invitationID)
	for i, invitation := range r.pending {
		if invitation.ID == invitationID {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

// settle убирает разрешённое приглашение и добавляет соревнование в
// локальный список. Загрузка карточки - лучшая попытка: участие уже
// записано на сервере.
func (r *InviteResolver) settle(ctx context.Context, invitationID int) {
	invitation, ok := r.lookup(invitationID)
	r.drop(invitationID)
	if !ok || r.cache == nil {
		return
	}
	competition, err := r.backend.FetchCompetition(ctx, invitation.CompetitionID)
	if err != nil {
		r.logger.Warn("failed to fetch joined competition",
			slog.Int("competition_id", invitation.CompetitionID),
			slog.Any("error", err))
		return
	}
	r.cache.Prepend(competition)
}
