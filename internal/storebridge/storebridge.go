// Package storebridge holds the wire types and error taxonomy shared with
// the native in-app-purchase service. The flow consumes the bridge through
// four primitive operations (connect, query, purchase, disconnect); the
// interfaces themselves are declared by the consuming packages so each one
// depends only on the slice of the bridge it actually uses.
package storebridge

import (
	"errors"
	"time"
)

var (
	// ErrNotConnected is returned by query and purchase operations issued
	// before Connect succeeded or after Disconnect.
	ErrNotConnected = errors.New("storebridge: not connected")

	// ErrUserCancelled is returned when the user dismissed the native
	// purchase sheet. It is a normal outcome, not a fault.
	ErrUserCancelled = errors.New("storebridge: purchase cancelled by user")

	// ErrSKUNotFound is returned by purchase operations for a SKU the
	// store does not recognize.
	ErrSKUNotFound = errors.New("storebridge: sku not found")
)

// Receipt is the store's record of a completed purchase. It is handed to
// the embedder unmodified; the flow never persists or validates it.
type Receipt struct {
	ProductID       string
	TransactionID   string
	PurchaseToken   string
	TransactionDate time.Time
}

// PurchaseRequest asks the store for a one-time purchase.
type PurchaseRequest struct {
	SKU string
}

// SubscriptionRequest asks the store for a subscription purchase.
// OfferTokens carries Play Billing offer tokens on platforms that support
// them; it is ignored elsewhere.
type SubscriptionRequest struct {
	SKU         string
	OfferTokens []string
}
