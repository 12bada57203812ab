// Package plans reconciles static plan configuration with live catalog
// data into the display-ready plan list the paywall renders.
package plans

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"spillflow/internal/platform"
)

// PlaceholderPrice is rendered until a matching catalog entry resolves a
// live price.
const PlaceholderPrice = "..."

// HelperTextLimit is the maximum number of visible characters a plan's
// helper text may occupy; longer values are truncated with an ellipsis.
const HelperTextLimit = 15

// Plan is a fully specified display plan (legacy mode, no store lookup).
type Plan struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Price      string   `yaml:"price"`
	Interval   string   `yaml:"interval,omitempty"`
	Features   []string `yaml:"features,omitempty"`
	HelperText string   `yaml:"helper_text,omitempty"`
}

// ProductConfig describes a purchasable plan by its store SKUs; the id and
// price come from the catalog at runtime.
type ProductConfig struct {
	SKUs       SKUSet    `yaml:"skus"`
	Title      string    `yaml:"title"`
	Features   []string  `yaml:"features,omitempty"`
	SortOrder  SortOrder `yaml:"sort_order"`
	HelperText string    `yaml:"helper_text,omitempty"`
}

// SKUSet is either a platform-keyed SKU mapping or a flat list that
// applies to every platform.
type SKUSet struct {
	ByPlatform map[platform.ID][]string
	Flat       []string
}

// ForPlatform resolves the SKU list for p. A flat list wins over the
// platform map when both are set.
func (s SKUSet) ForPlatform(p platform.ID) []string {
	if len(s.Flat) > 0 {
		return s.Flat
	}
	skus, _ := platform.Select(p, s.ByPlatform)
	return skus
}

// UnmarshalYAML accepts either form:
//
//	skus: [sku_a, sku_b]
//	skus: {ios: [sku_a], android: [sku_b]}
func (s *SKUSet) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		return value.Decode(&s.Flat)
	case yaml.MappingNode:
		return value.Decode(&s.ByPlatform)
	default:
		return fmt.Errorf("plans: skus must be a list or a platform mapping (line %d)", value.Line)
	}
}

// SortOrder orders display plans. Two numeric values compare numerically;
// any other pairing, including mixed numeric/string, compares as strings.
// The mixed semantics are kept from the configuration surface this
// mirrors; do not normalize them.
type SortOrder struct {
	num   float64
	str   string
	isNum bool
}

// NumericOrder builds a numeric sort order.
func NumericOrder(n float64) SortOrder {
	return SortOrder{num: n, isNum: true}
}

// StringOrder builds a lexicographic sort order.
func StringOrder(s string) SortOrder {
	return SortOrder{str: s}
}

// String renders the order the way it participates in string comparison.
func (o SortOrder) String() string {
	if o.isNum {
		return strconv.FormatFloat(o.num, 'f', -1, 64)
	}
	return o.str
}

// Compare returns -1, 0, or 1 ordering o against other.
func (o SortOrder) Compare(other SortOrder) int {
	if o.isNum && other.isNum {
		switch {
		case o.num < other.num:
			return -1
		case o.num > other.num:
			return 1
		default:
			return 0
		}
	}
	a, b := o.String(), other.String()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// UnmarshalYAML keeps the scalar's original type: YAML numbers stay
// numeric, everything else becomes a string order.
func (o *SortOrder) UnmarshalYAML(value *yaml.Node) error {
	var n float64
	if err := value.Decode(&n); err == nil {
		*o = NumericOrder(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("plans: invalid sort_order (line %d): %w", value.Line, err)
	}
	*o = StringOrder(s)
	return nil
}
