package payments

import "context"

// Orchestrator выбирает стратегию оплаты один раз, при открытии экрана:
// системная платёжная шторка, если устройство её поддерживает, иначе
// форма ввода карты. Дальше все списания идут через выбранную стратегию.
type Orchestrator struct {
	processor Processor
}

func NewOrchestrator(ctx context.Context, platform, card Processor, platformPayAvailable func(ctx context.Context) bool) *Orchestrator {
	if platformPayAvailable != nil && platformPayAvailable(ctx) {
		return &Orchestrator{processor: platform}
	}
	return &Orchestrator{processor: card}
}

func (o *Orchestrator) Charge(ctx context.Context, req ChargeRequest) ChargeResult {
	return o.processor.Charge(ctx, req)
}

func (o *Orchestrator) StrategyName() string {
	return o.processor.Name()
}
