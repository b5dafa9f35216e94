package wizard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/fitarena-system/payments"
	"github.com/shopspring/decimal"
)

const teardownTimeout = 10 * time.Second

// Wizard - пошаговый мастер создания соревнования. Черновик на сервере
// появляется только при уходе с шага info; команды, фонд и приглашённые
// копятся локально и отправляются одним вызовом финализации.
//
// Мастер живёт на одном экране, но Abandon может прийти из колбэка
// жизненного цикла в любой момент, поэтому состояние закрыто мьютексом.
type Wizard struct {
	backend    Backend
	charger    Charger
	gate       FairPlayGate
	prompt     FairPlayPrompt
	dispatcher *Dispatcher
	logger     *slog.Logger

	mu        sync.Mutex
	step      Step
	form      Form
	draftID   int
	chargeRef string
	finalized bool
	busy      bool
	abandoned bool
}

func NewWizard(backend Backend, charger Charger, gate FairPlayGate, prompt FairPlayPrompt, dispatcher *Dispatcher, logger *slog.Logger) *Wizard {
	return &Wizard{
		backend:    backend,
		charger:    charger,
		gate:       gate,
		prompt:     prompt,
		dispatcher: dispatcher,
		logger:     logger,
		step:       StepInfo,
	}
}

// order - последовательность шагов. Командный режим добавляет шаг teams
// сразу после info.
func (w *Wizard) order() []Step {
	if w.form.Basics.TeamMode {
		return []Step{StepInfo, StepTeams, StepPrize, StepInvite, StepReview}
	}
	return []Step{StepInfo, StepPrize, StepInvite, StepReview}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) DraftID() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draftID
}

func (w *Wizard) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

func (w *Wizard) Finalized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finalized
}

func (w *Wizard) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

func (w *Wizard) SetBasics(basics Basics) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepInfo {
		return ErrNotAtStep
	}
	w.form.Basics = basics
	if !basics.TeamMode {
		w.form.Teams = nil
	}
	return nil
}

func (w *Wizard) SetTeams(teams []TeamDraft) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepTeams {
		return ErrNotAtStep
	}
	w.form.Teams = teams
	return nil
}

// SetPool настраивает призовой фонд; nil убирает его.
func (w *Wizard) SetPool(pool *PoolDraft) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepPrize {
		return ErrNotAtStep
	}
	w.form.Pool = pool
	return nil
}

func (w *Wizard) SetInvitees(inviteeIDs []int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepInvite {
		return ErrNotAtStep
	}
	w.form.Invitees = inviteeIDs
	return nil
}

// ReviewAction сообщает экрану подтверждения, что произойдёт по кнопке:
// создание без оплаты или списание в призовой фонд.
func (w *Wizard) ReviewAction() ReviewAction {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form.Pool != nil {
		return ActionPay
	}
	return ActionCreate
}

// ChargeTotal - сумма к списанию с учётом комиссии платёжной системы.
func (w *Wizard) ChargeTotal() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form.Pool == nil {
		return decimal.Zero
	}
	return payments.TotalWithFee(w.form.Pool.Amount)
}

// Next валидирует текущий шаг и переходит к следующему. Уход с info
// создаёт черновик на сервере; пока пользователь не вернулся на info,
// повторные проходы черновик не пересоздают.
func (w *Wizard) Next(ctx context.Context) (Step, error) {
	w.mu.Lock()
	step := w.step
	if w.busy {
		w.mu.Unlock()
		return step, ErrWizardBusy
	}
	if w.abandoned {
		w.mu.Unlock()
		return step, ErrWizardAbandoned
	}
	form := w.form
	draftID := w.draftID
	w.mu.Unlock()

	switch step {
	case StepInfo:
		if err := validateBasics(form.Basics); err != nil {
			return step, err
		}
		if draftID == 0 {
			id, err := w.backend.CreateDraftCompetition(ctx, form.Basics)
			if err != nil {
				return step, err
			}
			w.mu.Lock()
			if w.abandoned {
				w.mu.Unlock()
				w.deleteDraftAsync(id)
				return step, ErrWizardAbandoned
			}
			w.draftID = id
			w.mu.Unlock()
		}
	case StepTeams:
		if err := validateTeams(form.Teams); err != nil {
			return step, err
		}
	case StepPrize:
		if err := validatePool(form.Pool); err != nil {
			return step, err
		}
	case StepInvite:
		// приглашённые не обязательны
	case StepReview:
		return step, ErrNotAtStep
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	order := w.order()
	for i, s := range order {
		if s == w.step {
			if i+1 < len(order) {
				w.step = order[i+1]
			}
			break
		}
	}
	return w.step, nil
}

// Back возвращает на предыдущий шаг. Возврат на info сносит черновик:
// данные снова редактируемы, и следующий Next создаст новый.
func (w *Wizard) Back(ctx context.Context) Step {
	w.mu.Lock()
	order := w.order()
	idx := -1
	for i, s := range order {
		if s == w.step {
			idx = i
			break
		}
	}
	if idx <= 0 {
		step := w.step
		w.mu.Unlock()
		return step
	}
	prev := order[idx-1]
	w.step = prev
	var deleteID int
	if prev == StepInfo && w.draftID != 0 && !w.finalized {
		deleteID = w.draftID
		w.draftID = 0
		w.chargeRef = ""
	}
	w.mu.Unlock()

	if deleteID != 0 {
		if err := w.backend.DeleteDraftCompetition(ctx, deleteID); err != nil {
			w.logger.Warn("failed to delete draft on back navigation",
				slog.Int("draft_id", deleteID),
				slog.Any("error", err))
		}
	}
	return prev
}

// Confirm выполняет финальную последовательность: проверка fair-play,
// оплата, финализация, приглашения, переход к соревнованию. Успешное
// списание всегда доводится до финализации, даже если экран уже закрыт:
// деньги пользователя не должны повиснуть на удалённом черновике.
func (w *Wizard) Confirm(ctx context.Context) ConfirmResult {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ConfirmResult{Status: ConfirmBusy}
	}
	if w.step != StepReview {
		w.mu.Unlock()
		return ConfirmResult{Status: ConfirmFailed, Reason: ErrNotAtStep.Error()}
	}
	if w.abandoned {
		deleteID := w.draftID
		w.draftID = 0
		w.mu.Unlock()
		w.deleteDraftAsync(deleteID)
		return ConfirmResult{Status: ConfirmAbandoned}
	}
	w.busy = true
	form := w.form
	draftID := w.draftID
	chargeRef := w.chargeRef
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()

	if form.Pool != nil {
		if proceed, result := w.ensureFairPlay(ctx); !proceed {
			return result
		}
		// chargeRef уже установлен, если прошлая попытка списала деньги,
		// но упала на финализации. Второй раз не списываем.
		if chargeRef == "" {
			res := w.charger.Charge(ctx, payments.ChargeRequest{
				CompetitionID:   draftID,
				Amount:          form.Pool.Amount,
				PoolMode:        string(form.Pool.Mode),
				PayoutStructure: form.Pool.PayoutStructure,
				Label:           form.Basics.Name,
			})
			switch res.Outcome {
			case payments.ChargeOutcomeCancelled:
				if w.consumeAbandon() {
					return ConfirmResult{Status: ConfirmAbandoned}
				}
				return ConfirmResult{Status: ConfirmCancelled}
			case payments.ChargeOutcomeFailed:
				if w.consumeAbandon() {
					return ConfirmResult{Status: ConfirmAbandoned}
				}
				return ConfirmResult{Status: ConfirmFailed, Reason: res.Reason}
			}
			chargeRef = res.ChargeRef
			w.mu.Lock()
			w.chargeRef = chargeRef
			w.mu.Unlock()
		}
	}

	if err := w.backend.FinalizeDraftCompetition(ctx, draftID, FinalizeConfig{
		Teams:     form.Teams,
		Pool:      form.Pool,
		ChargeRef: chargeRef,
	}); err != nil {
		return ConfirmResult{Status: ConfirmFailed, Reason: err.Error()}
	}

	w.mu.Lock()
	w.finalized = true
	present := !w.abandoned
	w.mu.Unlock()

	competition := w.dispatcher.Dispatch(ctx, draftID, form.Invitees, present)
	return ConfirmResult{Status: ConfirmFinalized, Competition: competition}
}

// ensureFairPlay применяет разовую проверку правил честной игры перед
// списанием. Отказ от правил - молчаливый выход без оплаты.
func (w *Wizard) ensureFairPlay(ctx context.Context) (bool, ConfirmResult) {
	accepted, err := w.gate.FairPlayAccepted(ctx)
	if err != nil {
		return false, ConfirmResult{Status: ConfirmFailed, Reason: err.Error()}
	}
	if accepted {
		return true, ConfirmResult{}
	}
	if !w.prompt.PromptFairPlay(ctx) {
		return false, ConfirmResult{Status: ConfirmCancelled}
	}
	if err := w.gate.AcknowledgeFairPlay(ctx); err != nil {
		return false, ConfirmResult{Status: ConfirmFailed, Reason: err.Error()}
	}
	return true, ConfirmResult{}
}

// consumeAbandon проверяет, не закрыли ли мастер во время оплаты.
// Если закрыли - черновик сносится здесь же.
func (w *Wizard) consumeAbandon() bool {
	w.mu.Lock()
	if !w.abandoned {
		w.mu.Unlock()
		return false
	}
	deleteID := w.draftID
	w.draftID = 0
	w.mu.Unlock()
	w.deleteDraftAsync(deleteID)
	return true
}

// Abandon вызывается при закрытии мастера. Удержанный черновик сносится
// в фоне, результата никто не ждёт. Если подтверждение ещё выполняется,
// развязку выбирает оно само: успешное списание доводится до
// финализации, отменённое или неудачное - до удаления черновика.
func (w *Wizard) Abandon() {
	w.mu.Lock()
	w.abandoned = true
	if w.busy || w.finalized || w.draftID == 0 {
		w.mu.Unlock()
		return
	}
	deleteID := w.draftID
	w.draftID = 0
	w.mu.Unlock()
	w.deleteDraftAsync(deleteID)
}

func (w *Wizard) deleteDraftAsync(draftID int) {
	if draftID == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		if err := w.backend.DeleteDraftCompetition(ctx, draftID); err != nil {
			w.logger.Warn("failed to delete abandoned draft",
				slog.Int("draft_id", draftID),
				slog.Any("error", err))
		}
	}()
}
