// Package catalog models store-returned product data and owns the
// asynchronous lifecycle of fetching it. Entries are keyed by SKU and
// classified explicitly as subscriptions or one-time products instead of
// probing field presence at the point of use.
package catalog

import "spillflow/internal/platform"

// Kind classifies a catalog entry.
type Kind int

const (
	// KindUnknown marks an entry the store did not tag; Classify derives
	// the effective kind from subscription-specific fields.
	KindUnknown Kind = iota
	KindOneTime
	KindSubscription
)

// PricingPhase is one phase of a Play Billing subscription offer.
type PricingPhase struct {
	FormattedPrice string
	BillingPeriod  string
}

// SubscriptionOffer is one purchase offer attached to an Android
// subscription entry.
type SubscriptionOffer struct {
	OfferToken    string
	PricingPhases []PricingPhase
}

// Entry is a resolved store product or subscription keyed by its SKU.
type Entry struct {
	ID          string
	Title       string
	Description string
	Kind        Kind

	// LocalizedPrice is the store-formatted display price. On iOS it is
	// always present; on Android it may be absent for subscriptions whose
	// pricing lives in the offer phases.
	LocalizedPrice string

	// SubscriptionPeriod is the ISO 8601 period for subscriptions
	// ("P1M", "P1W"). Empty for one-time products.
	SubscriptionPeriod string

	// Offers holds Play Billing subscriptionOfferDetails. Empty on iOS
	// and for one-time products.
	Offers []SubscriptionOffer
}

// Classify returns the entry's effective kind. Tagged entries keep their
// tag; untagged ones are subscriptions when they expose a subscription
// period or offer details, one-time products otherwise.
func Classify(e Entry) Kind {
	if e.Kind != KindUnknown {
		return e.Kind
	}
	if e.SubscriptionPeriod != "" || len(e.Offers) > 0 {
		return KindSubscription
	}
	return KindOneTime
}

// Merge flattens query result batches into one list deduplicated by
// product id. Later batches win on conflict, so callers pass one-time
// results before subscription results to give the subscription catalog
// precedence. First-seen order is preserved.
func Merge(batches ...[]Entry) []Entry {
	var out []Entry
	index := make(map[string]int)
	for _, batch := range batches {
		for _, e := range batch {
			if i, ok := index[e.ID]; ok {
				out[i] = e
				continue
			}
			index[e.ID] = len(out)
			out = append(out, e)
		}
	}
	return out
}

// Find returns the entry with the given product id.
func Find(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// PriceFor extracts the localized display price for an entry on the given
// platform. Android prefers the first pricing phase of the first
// subscription offer, then the direct localized price; every other
// platform reads the localized price directly. ok is false when the entry
// carries no usable price.
func PriceFor(e Entry, p platform.ID) (string, bool) {
	if p == platform.Android {
		if len(e.Offers) > 0 && len(e.Offers[0].PricingPhases) > 0 {
			if fp := e.Offers[0].PricingPhases[0].FormattedPrice; fp != "" {
				return fp, true
			}
		}
	}
	if e.LocalizedPrice != "" {
		return e.LocalizedPrice, true
	}
	return "", false
}
