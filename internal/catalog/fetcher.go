package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultLoadingDeadline bounds how long the loading flag may stay raised.
// It is a liveness guarantee, not a cancellation: queries that settle after
// the deadline still apply their results as long as the cycle is current.
const DefaultLoadingDeadline = 120 * time.Second

// StoreBridge is the slice of the native store the fetcher consumes.
type StoreBridge interface {
	Connect(ctx context.Context) error
	QueryProducts(ctx context.Context, skus []string) ([]Entry, error)
	QuerySubscriptions(ctx context.Context, skus []string) ([]Entry, error)
	Disconnect() error
}

// Snapshot is the fetcher's externally visible state.
type Snapshot struct {
	Loading bool
	Entries []Entry
}

// Fetcher owns one catalog fetch cycle at a time: it connects to the store
// bridge, issues the product and subscription queries in parallel, merges
// their results, and holds the connection until the cycle is torn down or
// replaced. Results from a superseded cycle are discarded, and every
// successful connect is paired with exactly one disconnect.
//
// The onUpdate callback runs on the fetcher's own goroutine; hosts that
// own state on a UI loop must forward the snapshot as an event.
type Fetcher struct {
	bridge   StoreBridge
	onUpdate func(Snapshot)
	log      *zap.Logger
	deadline time.Duration

	mu      sync.Mutex
	gen     int
	loading bool
	entries []Entry
	cancel  context.CancelFunc

	// done closes when the current cycle's goroutine has exited and
	// released the connection. Cycles chain on it so the store bridge
	// never sees a connect before the superseded cycle's disconnect.
	done chan struct{}
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithLogger sets the fetcher's logger.
func WithLogger(log *zap.Logger) FetcherOption {
	return func(f *Fetcher) { f.log = log }
}

// WithLoadingDeadline overrides the loading-flag ceiling.
func WithLoadingDeadline(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.deadline = d }
}

// NewFetcher creates a fetcher over bridge. onUpdate may be nil when the
// host polls Snapshot instead.
func NewFetcher(bridge StoreBridge, onUpdate func(Snapshot), opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		bridge:   bridge,
		onUpdate: onUpdate,
		log:      zap.NewNop(),
		deadline: DefaultLoadingDeadline,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot returns the current loading flag and entry list.
func (f *Fetcher) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Fetcher) snapshotLocked() Snapshot {
	entries := make([]Entry, len(f.entries))
	copy(entries, f.entries)
	return Snapshot{Loading: f.loading, Entries: entries}
}

// Arm starts a new fetch cycle for the given SKU set, superseding any
// cycle already in flight. An empty SKU set clears the catalog without
// touching the store: the loading flag drops immediately and no connection
// is attempted.
func (f *Fetcher) Arm(skus []string) {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	prev := f.done

	if len(skus) == 0 {
		f.loading = false
		f.entries = nil
		// No goroutine of our own; keep the superseded cycle's done so
		// Teardown still waits for it.
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.notify(snap)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.loading = true
	done := make(chan struct{})
	f.done = done
	snap := f.snapshotLocked()

	go func(skus []string) {
		defer close(done)
		// The cancelled cycle exits promptly, but its deferred disconnect
		// must land before this cycle may connect.
		if prev != nil {
			<-prev
		}
		f.run(ctx, gen, skus)
	}(append([]string(nil), skus...))
	f.mu.Unlock()

	f.notify(snap)
}

// Teardown invalidates the current cycle and releases the store
// connection. Results that arrive afterwards are discarded. It blocks
// until the cycle's goroutine has exited.
func (f *Fetcher) Teardown() {
	f.mu.Lock()
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.loading = false
	done := f.done
	f.done = nil
	f.mu.Unlock()
	if done != nil {
		<-done
	}
}

// run executes one fetch cycle. The connection is held open until the
// cycle is cancelled so the paywall can keep purchasing against it; the
// deferred disconnect pairs with the successful connect exactly once.
func (f *Fetcher) run(ctx context.Context, gen int, skus []string) {
	if err := f.bridge.Connect(ctx); err != nil {
		f.log.Warn("store connect failed, continuing with placeholder pricing", zap.Error(err))
		f.apply(gen, nil)
		return
	}
	defer func() {
		if err := f.bridge.Disconnect(); err != nil {
			f.log.Warn("store disconnect failed", zap.Error(err))
		}
	}()

	var products, subscriptions []Entry
	g := new(errgroup.Group)
	g.Go(func() error {
		got, err := f.bridge.QueryProducts(ctx, skus)
		if err != nil {
			f.log.Warn("product query failed, degrading to empty result", zap.Error(err))
			return nil
		}
		products = got
		return nil
	})
	g.Go(func() error {
		got, err := f.bridge.QuerySubscriptions(ctx, skus)
		if err != nil {
			f.log.Warn("subscription query failed, degrading to empty result", zap.Error(err))
			return nil
		}
		subscriptions = got
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	timer := time.NewTimer(f.deadline)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		f.log.Warn("catalog fetch exceeded loading deadline, forcing loading off",
			zap.Duration("deadline", f.deadline))
		f.forceLoadingOff(gen)
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	case <-ctx.Done():
		return
	}

	f.apply(gen, Merge(products, subscriptions))

	// Hold the connection for the paywall's purchase requests until the
	// host tears the cycle down or re-arms with a new SKU set.
	<-ctx.Done()
}

// apply commits a cycle's results unless a newer cycle has started. The
// entry list is replaced wholesale, so a superseding cycle never leaves
// the previous SKU set's entries behind.
func (f *Fetcher) apply(gen int, entries []Entry) {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.loading = false
	f.entries = entries
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

func (f *Fetcher) forceLoadingOff(gen int) {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.loading = false
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

func (f *Fetcher) notify(snap Snapshot) {
	if f.onUpdate != nil {
		f.onUpdate(snap)
	}
}
