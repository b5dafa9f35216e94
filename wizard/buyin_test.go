package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/payments"
	"github.com/shopspring/decimal"
)

func newResolverEnv(pending ...models.Invitation) (*InviteResolver, *fakeBackend, *fakeCharger, *CompetitionList) {
	backend := newFakeBackend()
	backend.pending = pending
	charger := &fakeCharger{}
	cache := NewCompetitionList()
	resolver := NewInviteResolver(backend, charger, cache, testLogger())
	return resolver, backend, charger, cache
}

func pendingInvitation(id, competitionID int) models.Invitation {
	return models.Invitation{
		ID:            id,
		CompetitionID: competitionID,
		Status:        models.InvitationPending,
		Competition:   &models.Competition{ID: competitionID, Name: "Office 10K"},
	}
}

func TestAcceptWithoutBuyInJoinsImmediately(t *testing.T) {
	resolver, backend, charger, cache := newResolverEnv(pendingInvitation(7, 31))
	if err := resolver.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	backend.replies = []AcceptReply{{Joined: true}}

	outcome := resolver.Accept(context.Background(), 7)
	if outcome.Status != AcceptJoined {
		t.Fatalf("expected joined, got %v (%s)", outcome.Status, outcome.Reason)
	}
	if len(backend.accepts) != 1 || backend.accepts[0] != "" {
		t.Fatalf("expected accept without charge ref, got %v", backend.accepts)
	}
	if got := resolver.Pending(); len(got) != 0 {
		t.Fatalf("expected invitation resolved, still pending: %v", got)
	}
	if charger.chargeCount() != 0 {
		t.Fatal("expected no charge for a pool-free acceptance")
	}
	if items := cache.Items(); len(items) != 1 || items[0].ID != 31 {
		t.Fatalf("expected joined competition in the list, got %+v", items)
	}
}

func TestAcceptBuyInLeavesInvitationPending(t *testing.T) {
	resolver, backend, charger, _ := newResolverEnv(pendingInvitation(7, 31))
	if err := resolver.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	buyIn := decimal.RequireFromString("12.50")
	backend.replies = []AcceptReply{{RequiresBuyIn: true, BuyInAmount: buyIn}}

	outcome := resolver.Accept(context.Background(), 7)
	if outcome.Status != AcceptRequiresBuyIn {
		t.Fatalf("expected requires-buy-in, got %v (%s)", outcome.Status, outcome.Reason)
	}
	if !outcome.BuyInAmount.Equal(buyIn) {
		t.Fatalf("expected buy-in %s, got %s", buyIn, outcome.BuyInAmount)
	}
	if got := resolver.Pending(); len(got) != 1 {
		t.Fatalf("expected invitation still pending, got %v", got)
	}
	cached, ok := resolver.BuyInAmount(7)
	if !ok || !cached.Equal(buyIn) {
		t.Fatalf("expected cached buy-in %s, got %s (%v)", buyIn, cached, ok)
	}
	if charger.chargeCount() != 0 {
		t.Fatal("expected no charge before the user chooses to pay")
	}
}

func TestPayAndJoinRequiresPriorAccept(t *testing.T) {
	resolver, _, charger, _ := newResolverEnv(pendingInvitation(7, 31))
	if err := resolver.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	outcome := resolver.PayAndJoin(context.Background(), 7)
	if outcome.Status != JoinFailed {
		t.Fatalf("expected failed without a known buy-in, got %v", outcome.Status)
	}
	if charger.chargeCount() != 0 {
		t.Fatal("expected no charge without a known buy-in")
	}
}

func TestPayAndJoinCancelledKeepsInvitation(t *testing.T) {
	resolver, backend, charger, cache := newResolverEnv(pendingInvitation(7, 31))
	if err := resolver.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	buyIn := decimal.NewFromInt(10)
	backend.replies = []AcceptReply{{RequiresBuyIn: true, BuyInAmount: buyIn}}
	if outcome := resolver.Accept(context.Background(), 7); outcome.Status != AcceptRequiresBuyIn {
		t.Fatalf("expected requires-buy-in, got %v", outcome.Status)
	}

	charger.results = []payments.ChargeResult{{Outcome: payments.ChargeOutcomeCancelled}}
	outcome := resolver.PayAndJoin(context.Background(), 7)
	if outcome.Status != JoinCancelled {
		t.Fatalf("expected cancelled, got %v (%s)", outcome.Status, outcome.Reason)
	}
	if got := resolver.Pending(); len(got) != 1 {
		t.Fatalf("expected invitation kept after cancelled payment, got %v", got)
	}
	// Only the initial probing accept went to the server.
	if len(backend.accepts) != 1 {
		t.Fatalf("expected no accept after cancelled payment, got %v", backend.accepts)
	}
	if items := cache.Items(); len(items) != 0 {
		t.Fatalf("expected list untouched, got %+v", items)
	}
}

func TestPayAndJoinChargesAndAccepts(t *testing.T) {
	resolver, backend, charger, cache := newResolverEnv(pendingInvitation(7, 31))
	if err := resolver.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	buyIn := decimal.NewFromInt(10)
	backend.replies = []AcceptReply{
		{RequiresBuyIn: true, BuyInAmount: buyIn},
		{Joined: true},
	}
	if outcome := resolver.Accept(context.Background(), 7); outcome.Status != AcceptRequiresBuyIn {
		t.Fatalf("expected requires-buy-in, got %v", outcome.Status)
	}

	charger.results = []payments.ChargeResult{{Outcome: payments.ChargeOutcomeSucceeded, ChargeRef: "ch_buyin"}}
	outcome := resolver.PayAndJoin(context.Background(), 7)
	if outcome.Status != JoinCompleted {
		t.Fatalf("expected completed, got %v (%s)", outcome.Status, outcome.Reason)
	}

	req := charger.lastRequest()
	if !req.Amount.Equal(buyIn) {
		t.Fatalf("expected charge of %s, got %s", buyIn, req.Amount)
	}
	if req.PoolMode != string(models.PoolBuyIn) {
		t.Fatalf("expected buy_in mode, got %s", req.PoolMode)
	}
	if req.Label != "Office 10K" {
		t.Fatalf("expected competition name as label, got %q", req.Label)
	}
	if len(backend.accepts) != 2 || backend.accepts[1] != "ch_buyin" {
		t.Fatalf("expected second accept with charge ref, got %v", backend.accepts)
	}
	if got := resolver.Pending(); len(got) != 0 {
		t.Fatalf("expected invitation resolved, got %v", got)
	}
	if items := cache.Items(); len(items) != 1 || items[0].ID != 31 {
		t.Fatalf("expected joined competition in the list, got %+v", items)
	}
}

func TestPayAndJoinFailedChargeReportsReason(t *testing.T) {
	resolver, backend, charger, _ := newResolverEnv(pendingInvitation(7, 31))
	if err := resolver.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	backend.replies = []AcceptReply{{RequiresBuyIn: true, BuyInAmount: decimal.NewFromInt(10)}}
	if outcome := resolver.Accept(context.Background(), 7); outcome.Status != AcceptRequiresBuyIn {
		t.Fatalf("expected requires-buy-in, got %v", outcome.Status)
	}

	charger.results = []payments.ChargeResult{{Outcome: payments.ChargeOutcomeFailed, Reason: "insufficient funds"}}
	outcome := resolver.PayAndJoin(context.Background(), 7)
	if outcome.Status != JoinFailed {
		t.Fatalf("expected failed, got %v", outcome.Status)
	}
	if outcome.Reason != "insufficient funds" {
		t.Fatalf("expected charge failure reason, got %q", outcome.Reason)
	}
	if got := resolver.Pending(); len(got) != 1 {
		t.Fatalf("expected invitation kept after failed payment, got %v", got)
	}
}

func TestPayAndJoinDoesNotChargeTwiceAfterAcceptFailure(t *testing.T) {
	resolver, backend, charger, _ := newResolverEnv(pendingInvitation(7, 31))
	if err := resolver.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	backend.replies = []AcceptReply{{RequiresBuyIn: true, BuyInAmount: decimal.NewFromInt(10)}}
	if outcome := resolver.Accept(context.Background(), 7); outcome.Status != AcceptRequiresBuyIn {
		t.Fatalf("expected requires-buy-in, got %v", outcome.Status)
	}

	charger.results = []payments.ChargeResult{{Outcome: payments.ChargeOutcomeSucceeded, ChargeRef: "ch_first"}}
	backend.mu.Lock()
	backend.acceptErr = errors.New("temporarily down")
	backend.mu.Unlock()

	if outcome := resolver.PayAndJoin(context.Background(), 7); outcome.Status != JoinFailed {
		t.Fatalf("expected failed join, got %v", outcome.Status)
	}
	if got := resolver.Pending(); len(got) != 1 {
		t.Fatalf("expected invitation kept for a retry, got %v", got)
	}

	backend.mu.Lock()
	backend.acceptErr = nil
	backend.mu.Unlock()

	// Повтор доводит место до конца тем же платежом.
	if outcome := resolver.PayAndJoin(context.Background(), 7); outcome.Status != JoinCompleted {
		t.Fatalf("expected join on retry, got %v (%s)", outcome.Status, outcome.Reason)
	}
	if charger.chargeCount() != 1 {
		t.Fatalf("expected a single charge for one seat, got %d", charger.chargeCount())
	}
	if len(backend.accepts) != 3 || backend.accepts[1] != "ch_first" || backend.accepts[2] != "ch_first" {
		t.Fatalf("expected the captured charge reused on retry, got refs %v", backend.accepts)
	}
	if got := resolver.Pending(); len(got) != 0 {
		t.Fatalf("expected invitation resolved, got %v", got)
	}
}

func TestJoinWithoutPoolResolvesInvitation(t *testing.T) {
	resolver, backend, charger, cache := newResolverEnv(pendingInvitation(7, 31))
	if err := resolver.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	backend.replies = []AcceptReply{{RequiresBuyIn: true, BuyInAmount: decimal.NewFromInt(10)}}
	if outcome := resolver.Accept(context.Background(), 7); outcome.Status != AcceptRequiresBuyIn {
		t.Fatalf("expected requires-buy-in, got %v", outcome.Status)
	}

	if err := resolver.JoinWithoutPool(context.Background(), 7); err != nil {
		t.Fatalf("join without pool: %v", err)
	}
	if len(backend.joins) != 1 || backend.joins[0] != 7 {
		t.Fatalf("expected join-without-pool call, got %v", backend.joins)
	}
	if charger.chargeCount() != 0 {
		t.Fatal("expected no charge when joining outside the pool")
	}
	if got := resolver.Pending(); len(got) != 0 {
		t.Fatalf("expected invitation resolved, got %v", got)
	}
	if items := cache.Items(); len(items) != 1 {
		t.Fatalf("expected joined competition in the list, got %+v", items)
	}
}

func TestDeclineDropsInvitation(t *testing.T) {
	resolver, backend, _, cache := newResolverEnv(pendingInvitation(7, 31), pendingInvitation(8, 32))
	if err := resolver.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := resolver.Decline(context.Background(), 7); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if len(backend.declines) != 1 || backend.declines[0] != 7 {
		t.Fatalf("expected decline call, got %v", backend.declines)
	}
	got := resolver.Pending()
	if len(got) != 1 || got[0].ID != 8 {
		t.Fatalf("expected only invitation 8 pending, got %v", got)
	}
	if items := cache.Items(); len(items) != 0 {
		t.Fatalf("declined invitation must not touch the list, got %+v", items)
	}
}
