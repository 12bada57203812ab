// Package purchase executes paywall purchase attempts against the store
// bridge, normalizing every outcome into a single Result.
package purchase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spillflow/internal/analytics"
	"spillflow/internal/catalog"
	"spillflow/internal/platform"
	"spillflow/internal/storebridge"
)

// Status of a finished purchase attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is produced exactly once per purchase attempt and is never
// partially populated: success carries Data, error carries Err.
type Result struct {
	Status Status
	PlanID string
	Data   *storebridge.Receipt
	Err    error
}

// StoreClient is the slice of the store bridge the orchestrator consumes.
type StoreClient interface {
	RequestPurchase(ctx context.Context, req storebridge.PurchaseRequest) (storebridge.Receipt, error)
	RequestSubscription(ctx context.Context, req storebridge.SubscriptionRequest) (storebridge.Receipt, error)
}

// Hooks carries the caller-supplied callbacks around one attempt. All are
// optional.
type Hooks struct {
	// OnResult receives the attempt's Result, before OnContinue.
	OnResult func(Result)

	// OnContinue advances the flow past the paywall. It runs only on
	// success (or on the free path); a failed purchase leaves the user on
	// the paywall to retry.
	OnContinue func(planID string)

	// OnClose dismisses the paywall.
	OnClose func()
}

// Orchestrator runs purchase attempts. It supports at most one attempt at
// a time; the hosting panel is responsible for not issuing another while
// one is in flight.
type Orchestrator struct {
	store    StoreClient
	sink     analytics.Sink
	log      *zap.Logger
	platform platform.ID
}

// New builds an orchestrator. sink and log may be nil.
func New(store StoreClient, p platform.ID, sink analytics.Sink, log *zap.Logger) *Orchestrator {
	if sink == nil {
		sink = analytics.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{store: store, sink: sink, log: log, platform: p}
}

// Execute runs one purchase attempt for planID against the given catalog.
// hasIAP reports whether a purchase configuration is active; when false
// the attempt is skipped entirely and the flow continues for free.
//
// Ordering guarantees: the success/failure analytics event fires strictly
// after the store call settles; OnResult fires exactly once before
// OnContinue; OnContinue never fires on failure.
func (o *Orchestrator) Execute(ctx context.Context, planID string, entries []catalog.Entry, hasIAP bool, hooks Hooks) Result {
	if !hasIAP {
		o.log.Debug("no purchase configuration, continuing for free",
			zap.String("plan_id", planID))
		if hooks.OnContinue != nil {
			hooks.OnContinue(planID)
		}
		return Result{Status: StatusSuccess, PlanID: planID}
	}

	attemptID := uuid.NewString()
	receipt, err := o.request(ctx, planID, entries)

	if err != nil {
		res := Result{Status: StatusError, PlanID: planID, Err: err}
		o.sink.Record("purchase_error", map[string]any{
			"plan_id":    planID,
			"attempt_id": attemptID,
			"error":      err.Error(),
		})
		o.log.Warn("purchase failed", zap.String("plan_id", planID), zap.Error(err))
		if hooks.OnResult != nil {
			hooks.OnResult(res)
		}
		return res
	}

	res := Result{Status: StatusSuccess, PlanID: planID, Data: &receipt}
	o.sink.Record("purchase_success", map[string]any{
		"plan_id":        planID,
		"attempt_id":     attemptID,
		"transaction_id": receipt.TransactionID,
	})
	if hooks.OnResult != nil {
		hooks.OnResult(res)
	}
	if hooks.OnContinue != nil {
		hooks.OnContinue(planID)
	}
	return res
}

// request issues the store call for planID, choosing the API from the
// entry's classification. Unresolved ids try a subscription first and fall
// back to a one-time purchase; the second failure wins.
func (o *Orchestrator) request(ctx context.Context, planID string, entries []catalog.Entry) (storebridge.Receipt, error) {
	entry, found := catalog.Find(entries, planID)
	if !found {
		// The id may be a one-time-only SKU and still get a subscription
		// request first; the ordering is kept from the original flow
		// pending product-owner confirmation.
		o.log.Warn("plan id not in catalog, falling back to blind purchase",
			zap.String("plan_id", planID))
		receipt, err := o.store.RequestSubscription(ctx, storebridge.SubscriptionRequest{SKU: planID})
		if err == nil {
			return receipt, nil
		}
		o.log.Debug("blind subscription request failed, trying one-time purchase",
			zap.String("plan_id", planID), zap.Error(err))
		return o.store.RequestPurchase(ctx, storebridge.PurchaseRequest{SKU: planID})
	}

	if catalog.Classify(entry) == catalog.KindSubscription {
		req := storebridge.SubscriptionRequest{SKU: entry.ID}
		if o.platform == platform.Android && len(entry.Offers) > 0 && entry.Offers[0].OfferToken != "" {
			req.OfferTokens = []string{entry.Offers[0].OfferToken}
		}
		return o.store.RequestSubscription(ctx, req)
	}
	return o.store.RequestPurchase(ctx, storebridge.PurchaseRequest{SKU: entry.ID})
}

// Close handles the paywall's close affordance: it fires the dedicated
// analytics event, then defers to the caller's handler. A missing handler
// is logged, since the affordance was shown with nowhere to go.
func (o *Orchestrator) Close(hooks Hooks) {
	o.sink.Record("paywall_close", nil)
	if hooks.OnClose == nil {
		o.log.Warn("paywall close pressed but no close handler was configured")
		return
	}
	hooks.OnClose()
}
