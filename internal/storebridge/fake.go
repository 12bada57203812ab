package storebridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"spillflow/internal/catalog"
)

// Fake is an in-memory store bridge used by the demo CLI and by tests. It
// honors the real bridge's contract: queries and purchases fail with
// ErrNotConnected outside a connect/disconnect pair, and purchases for
// unknown SKUs fail with ErrSKUNotFound.
type Fake struct {
	mu        sync.Mutex
	connected bool
	entries   map[string]catalog.Entry
	latency   time.Duration

	connects    int
	disconnects int
}

// NewFake seeds a fake bridge with the given catalog.
func NewFake(entries ...catalog.Entry) *Fake {
	f := &Fake{entries: make(map[string]catalog.Entry, len(entries))}
	for _, e := range entries {
		f.entries[e.ID] = e
	}
	return f
}

// SetLatency makes every operation sleep, for demoing loading states.
func (f *Fake) SetLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = d
}

func (f *Fake) sleep(ctx context.Context) error {
	f.mu.Lock()
	d := f.latency
	f.mu.Unlock()
	if d == 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connect opens the fake connection.
func (f *Fake) Connect(ctx context.Context) error {
	if err := f.sleep(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	f.connects++
	return nil
}

// Disconnect closes the fake connection.
func (f *Fake) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
	return nil
}

func (f *Fake) query(ctx context.Context, skus []string, kind catalog.Kind) ([]catalog.Entry, error) {
	if err := f.sleep(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return nil, ErrNotConnected
	}
	var out []catalog.Entry
	for _, sku := range skus {
		e, ok := f.entries[sku]
		if !ok || catalog.Classify(e) != kind {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// QueryProducts returns the seeded one-time products matching skus.
func (f *Fake) QueryProducts(ctx context.Context, skus []string) ([]catalog.Entry, error) {
	return f.query(ctx, skus, catalog.KindOneTime)
}

// QuerySubscriptions returns the seeded subscriptions matching skus.
func (f *Fake) QuerySubscriptions(ctx context.Context, skus []string) ([]catalog.Entry, error) {
	return f.query(ctx, skus, catalog.KindSubscription)
}

func (f *Fake) purchase(ctx context.Context, sku string, kind catalog.Kind) (Receipt, error) {
	if err := f.sleep(ctx); err != nil {
		return Receipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return Receipt{}, ErrNotConnected
	}
	e, ok := f.entries[sku]
	if !ok || catalog.Classify(e) != kind {
		return Receipt{}, fmt.Errorf("%w: %s", ErrSKUNotFound, sku)
	}
	return Receipt{
		ProductID:       sku,
		TransactionID:   uuid.NewString(),
		PurchaseToken:   uuid.NewString(),
		TransactionDate: time.Now(),
	}, nil
}

// RequestPurchase performs a one-time purchase for req.SKU.
func (f *Fake) RequestPurchase(ctx context.Context, req PurchaseRequest) (Receipt, error) {
	return f.purchase(ctx, req.SKU, catalog.KindOneTime)
}

// RequestSubscription performs a subscription purchase for req.SKU.
func (f *Fake) RequestSubscription(ctx context.Context, req SubscriptionRequest) (Receipt, error) {
	return f.purchase(ctx, req.SKU, catalog.KindSubscription)
}

// Counts reports how many connects and disconnects the fake has seen.
func (f *Fake) Counts() (connects, disconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects, f.disconnects
}
