package plans

import (
	"slices"
	"sort"

	"spillflow/internal/catalog"
	"spillflow/internal/platform"
)

// DisplayPlan is the derived, display-ready form of a plan. It is
// recomputed wholesale on every configuration or catalog change, never
// mutated in place.
type DisplayPlan struct {
	ID         string
	Title      string
	Price      string
	Interval   string
	Features   []string
	HelperText string
	SortOrder  SortOrder
}

// Config is the static plan configuration. Exactly one of Products or
// Plans is the active mode; Products takes precedence when both are set.
type Config struct {
	Products []ProductConfig `yaml:"products,omitempty"`
	Plans    []Plan          `yaml:"plans,omitempty"`
}

// HasIAP reports whether a purchase configuration is active. Legacy plans
// without product configs still route through the store, since their ids
// are looked up as SKUs; only an entirely empty config is a free flow.
func (c Config) HasIAP() bool {
	return len(c.Products) > 0 || len(c.Plans) > 0
}

// SKUs derives the flat SKU set to query for on p, in configuration
// order. Legacy plan ids count as SKUs.
func (c Config) SKUs(p platform.ID) []string {
	var out []string
	if len(c.Products) > 0 {
		for _, pc := range c.Products {
			for _, sku := range pc.SKUs.ForPlatform(p) {
				if !slices.Contains(out, sku) {
					out = append(out, sku)
				}
			}
		}
		return out
	}
	for _, pl := range c.Plans {
		if pl.ID != "" && !slices.Contains(out, pl.ID) {
			out = append(out, pl.ID)
		}
	}
	return out
}

// Reconcile merges the static configuration with live catalog entries into
// an ordered display plan list. It is pure: equal inputs produce equal
// output, and plans with equal sort orders keep configuration order.
func Reconcile(cfg Config, entries []catalog.Entry, p platform.ID) []DisplayPlan {
	if len(cfg.Products) > 0 {
		return reconcileProducts(cfg.Products, entries, p)
	}
	return reconcilePlans(cfg.Plans, entries, p)
}

func reconcileProducts(products []ProductConfig, entries []catalog.Entry, p platform.ID) []DisplayPlan {
	out := make([]DisplayPlan, 0, len(products))
	for _, pc := range products {
		skus := pc.SKUs.ForPlatform(p)

		dp := DisplayPlan{
			Title:      pc.Title,
			Price:      PlaceholderPrice,
			Features:   pc.Features,
			HelperText: TruncateHelperText(pc.HelperText),
			SortOrder:  pc.SortOrder,
		}
		if len(skus) > 0 {
			dp.ID = skus[0]
		}

		// First catalog entry appearing in the SKU list wins.
		for _, e := range entries {
			if !slices.Contains(skus, e.ID) {
				continue
			}
			dp.ID = e.ID
			if price, ok := catalog.PriceFor(e, p); ok {
				dp.Price = price
			}
			break
		}

		out = append(out, dp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder.Compare(out[j].SortOrder) < 0
	})
	return out
}

func reconcilePlans(plans []Plan, entries []catalog.Entry, p platform.ID) []DisplayPlan {
	out := make([]DisplayPlan, 0, len(plans))
	for _, pl := range plans {
		dp := DisplayPlan{
			ID:         pl.ID,
			Title:      pl.Title,
			Price:      pl.Price,
			Interval:   pl.Interval,
			Features:   pl.Features,
			HelperText: TruncateHelperText(pl.HelperText),
		}
		// Without any catalog data plans pass through unchanged; once the
		// catalog resolves, matching plans adopt the live price.
		if len(entries) > 0 {
			if e, ok := catalog.Find(entries, pl.ID); ok {
				if price, ok := catalog.PriceFor(e, p); ok {
					dp.Price = price
				} else {
					dp.Price = PlaceholderPrice
				}
			}
		}
		out = append(out, dp)
	}
	return out
}

// TruncateHelperText caps helper text at HelperTextLimit visible
// characters, appending an ellipsis to longer values.
func TruncateHelperText(s string) string {
	runes := []rune(s)
	if len(runes) <= HelperTextLimit {
		return s
	}
	return string(runes[:HelperTextLimit]) + "…"
}
