package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// testBridge is a controllable StoreBridge for exercising the fetcher's
// lifecycle. Queries block until release is closed when gate is set.
type testBridge struct {
	mu          sync.Mutex
	connects    atomic.Int32
	disconnects atomic.Int32

	products      []Entry
	subscriptions []Entry
	productErr    error
	subErr        error
	connectErr    error

	echo      bool          // synthesize one product entry per requested SKU
	ignoreCtx bool          // simulate a native call that cannot be cancelled
	gate      chan struct{} // when non-nil, queries wait for it (or ctx)

	// tracked makes queries fail unless issued inside a connect/disconnect
	// pair, like the native bridge; disconnectDelay makes the teardown of a
	// superseded cycle slow enough to race a successor's connect.
	tracked         bool
	connected       atomic.Bool
	disconnectDelay time.Duration
}

func (b *testBridge) Connect(ctx context.Context) error {
	if b.connectErr != nil {
		return b.connectErr
	}
	b.connects.Add(1)
	b.connected.Store(true)
	return nil
}

func (b *testBridge) Disconnect() error {
	if b.disconnectDelay > 0 {
		time.Sleep(b.disconnectDelay)
	}
	b.connected.Store(false)
	b.disconnects.Add(1)
	return nil
}

func (b *testBridge) checkConnected() error {
	if b.tracked && !b.connected.Load() {
		return errors.New("bridge not connected")
	}
	return nil
}

func (b *testBridge) wait(ctx context.Context) error {
	if b.gate == nil {
		return nil
	}
	if b.ignoreCtx {
		<-b.gate
		return nil
	}
	select {
	case <-b.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *testBridge) QueryProducts(ctx context.Context, skus []string) ([]Entry, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	if err := b.checkConnected(); err != nil {
		return nil, err
	}
	if b.productErr != nil {
		return nil, b.productErr
	}
	if b.echo {
		out := make([]Entry, 0, len(skus))
		for _, sku := range skus {
			out = append(out, Entry{ID: sku, LocalizedPrice: "$1.00"})
		}
		return out, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.products, nil
}

func (b *testBridge) QuerySubscriptions(ctx context.Context, skus []string) ([]Entry, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	if err := b.checkConnected(); err != nil {
		return nil, err
	}
	if b.subErr != nil {
		return nil, b.subErr
	}
	if b.echo {
		return nil, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subscriptions, nil
}

// collector gathers snapshots delivered by the fetcher.
type collector struct {
	mu    sync.Mutex
	snaps []Snapshot
	ch    chan Snapshot
}

func newCollector() *collector {
	return &collector{ch: make(chan Snapshot, 16)}
}

func (c *collector) onUpdate(s Snapshot) {
	c.mu.Lock()
	c.snaps = append(c.snaps, s)
	c.mu.Unlock()
	c.ch <- s
}

func (c *collector) waitFor(t *testing.T, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-c.ch:
			if pred(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestFetcher_NoSKUs(t *testing.T) {
	defer goleak.VerifyNone(t)

	bridge := &testBridge{}
	f := NewFetcher(bridge, nil)
	f.Arm(nil)

	snap := f.Snapshot()
	if snap.Loading {
		t.Error("loading should be false with no SKUs configured")
	}
	if bridge.connects.Load() != 0 {
		t.Error("no connection should be attempted with no SKUs")
	}
	f.Teardown()
}

func TestFetcher_MergesAndDedupes(t *testing.T) {
	defer goleak.VerifyNone(t)

	bridge := &testBridge{
		products: []Entry{
			{ID: "lifetime_access", LocalizedPrice: "$49.99"},
			{ID: "monthly_subscription", LocalizedPrice: "$8.99"},
		},
		subscriptions: []Entry{
			// Same id as the product batch: subscription result wins.
			{ID: "monthly_subscription", LocalizedPrice: "$9.99", SubscriptionPeriod: "P1M"},
		},
	}
	col := newCollector()
	f := NewFetcher(bridge, col.onUpdate)
	defer f.Teardown()

	f.Arm([]string{"lifetime_access", "monthly_subscription"})
	snap := col.waitFor(t, func(s Snapshot) bool { return !s.Loading })

	if len(snap.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap.Entries))
	}
	got, ok := Find(snap.Entries, "monthly_subscription")
	if !ok || got.SubscriptionPeriod != "P1M" {
		t.Errorf("subscription batch should win the dedup, got %+v", got)
	}
}

func TestFetcher_QueryFailureDegrades(t *testing.T) {
	defer goleak.VerifyNone(t)

	bridge := &testBridge{
		products: []Entry{{ID: "lifetime_access", LocalizedPrice: "$49.99"}},
		subErr:   errors.New("store unavailable"),
	}
	col := newCollector()
	f := NewFetcher(bridge, col.onUpdate)
	defer f.Teardown()

	f.Arm([]string{"lifetime_access"})
	snap := col.waitFor(t, func(s Snapshot) bool { return !s.Loading })

	if len(snap.Entries) != 1 {
		t.Fatalf("product result should survive the subscription failure, got %d entries", len(snap.Entries))
	}
}

func TestFetcher_ConnectFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	bridge := &testBridge{connectErr: errors.New("billing unavailable")}
	col := newCollector()
	f := NewFetcher(bridge, col.onUpdate)
	defer f.Teardown()

	f.Arm([]string{"lifetime_access"})
	snap := col.waitFor(t, func(s Snapshot) bool { return !s.Loading })

	if len(snap.Entries) != 0 {
		t.Errorf("expected no entries after connect failure, got %d", len(snap.Entries))
	}
	if bridge.disconnects.Load() != 0 {
		t.Error("disconnect must not run for a failed connect")
	}
}

func TestFetcher_RearmDiscardsStaleResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	gate := make(chan struct{})
	bridge := &testBridge{echo: true, ignoreCtx: true, gate: gate}
	col := newCollector()
	f := NewFetcher(bridge, col.onUpdate)
	defer f.Teardown()

	// First cycle blocks inside queries the bridge cannot cancel, then a
	// second cycle supersedes it before any result lands.
	f.Arm([]string{"stale_sku"})
	f.Arm([]string{"fresh_sku"})
	close(gate)

	snap := col.waitFor(t, func(s Snapshot) bool {
		_, ok := Find(s.Entries, "fresh_sku")
		return !s.Loading && ok
	})
	if _, ok := Find(snap.Entries, "stale_sku"); ok {
		t.Error("stale cycle's results must not reach state")
	}

	final := f.Snapshot()
	if _, ok := Find(final.Entries, "stale_sku"); ok {
		t.Error("stale entry visible after re-arm")
	}
}

func TestFetcher_RearmWaitsForPriorDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	// The bridge rejects queries issued outside a connect/disconnect pair
	// and takes its time releasing a connection, so a successor cycle that
	// connects before the superseded one disconnects would lose its catalog.
	bridge := &testBridge{echo: true, tracked: true, disconnectDelay: 30 * time.Millisecond}
	col := newCollector()
	f := NewFetcher(bridge, col.onUpdate)
	defer f.Teardown()

	f.Arm([]string{"sku_old"})
	col.waitFor(t, func(s Snapshot) bool {
		_, ok := Find(s.Entries, "sku_old")
		return !s.Loading && ok
	})

	f.Arm([]string{"sku_new"})
	snap := col.waitFor(t, func(s Snapshot) bool {
		_, ok := Find(s.Entries, "sku_new")
		return !s.Loading && ok
	})
	if _, ok := Find(snap.Entries, "sku_old"); ok {
		t.Errorf("superseded SKU set still visible after re-arm: %+v", snap.Entries)
	}
}

func TestFetcher_DisconnectPairsWithConnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	bridge := &testBridge{products: []Entry{{ID: "sku_a", LocalizedPrice: "$9.99"}}}
	col := newCollector()
	f := NewFetcher(bridge, col.onUpdate)

	f.Arm([]string{"sku_a"})
	col.waitFor(t, func(s Snapshot) bool { return !s.Loading })

	// Re-arm twice, then tear down. Every connect must see one disconnect.
	f.Arm([]string{"sku_a"})
	col.waitFor(t, func(s Snapshot) bool { return !s.Loading })
	f.Teardown()

	if c, d := bridge.connects.Load(), bridge.disconnects.Load(); c != d || c == 0 {
		t.Errorf("connect/disconnect mismatch: %d connects, %d disconnects", c, d)
	}
}

func TestFetcher_EarlyTeardownDisconnects(t *testing.T) {
	defer goleak.VerifyNone(t)

	gate := make(chan struct{})
	defer close(gate)
	bridge := &testBridge{gate: gate}
	f := NewFetcher(bridge, nil)

	f.Arm([]string{"sku_a"})
	f.Teardown()

	if c, d := bridge.connects.Load(), bridge.disconnects.Load(); c != 1 || d != 1 {
		t.Errorf("early teardown: %d connects, %d disconnects", c, d)
	}
}

func TestFetcher_DeadlineForcesLoadingOff(t *testing.T) {
	defer goleak.VerifyNone(t)

	gate := make(chan struct{})
	bridge := &testBridge{
		products: []Entry{{ID: "late_sku", LocalizedPrice: "$3.00"}},
		gate:     gate,
	}
	col := newCollector()
	f := NewFetcher(bridge, col.onUpdate, WithLoadingDeadline(20*time.Millisecond))
	defer f.Teardown()

	f.Arm([]string{"late_sku"})

	// Deadline fires first: loading drops with no data.
	snap := col.waitFor(t, func(s Snapshot) bool { return !s.Loading })
	if len(snap.Entries) != 0 {
		t.Errorf("expected empty entries at deadline, got %d", len(snap.Entries))
	}

	// The underlying request was not cancelled; once it settles the same
	// cycle still applies its results.
	close(gate)
	snap = col.waitFor(t, func(s Snapshot) bool {
		_, ok := Find(s.Entries, "late_sku")
		return ok
	})
	if snap.Loading {
		t.Error("loading must stay off after the deadline")
	}
}
