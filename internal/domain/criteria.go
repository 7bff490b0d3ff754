package domain

import (
	"fmt"
	"strings"
)

// Criterion requests a quantity of slots by filter instead of by naming
// leads: classification, bucket, and optional geography.
type Criterion struct {
	Classification Classification
	Bucket         Bucket
	Quantity       int
	State          string
	County         string
}

func (c Criterion) String() string {
	parts := []string{string(c.Classification), string(c.Bucket)}
	if c.State != "" {
		parts = append(parts, "state="+c.State)
	}
	if c.County != "" {
		parts = append(parts, "county="+c.County)
	}
	parts = append(parts, fmt.Sprintf("qty=%d", c.Quantity))
	return strings.Join(parts, " ")
}

// Filter is the criterion's availability query, without the quantity.
func (c Criterion) Filter() InventoryFilter {
	f := InventoryFilter{
		Classifications: []Classification{c.Classification},
		Buckets:         []Bucket{c.Bucket},
	}
	if c.State != "" {
		f.States = []string{c.State}
	}
	if c.County != "" {
		f.Counties = []string{c.County}
	}
	return f
}

type SuggestionKind string

const (
	// SuggestionPartial offers the count actually available under the exact filter.
	SuggestionPartial SuggestionKind = "partial"
	// SuggestionDropGeography offers the count with state/county filters removed.
	SuggestionDropGeography SuggestionKind = "drop_geography"
	// SuggestionOtherBucket offers the count in a different bucket under the
	// same classification and geography.
	SuggestionOtherBucket SuggestionKind = "other_bucket"
)

// Suggestion is a read-only alternative computed when a batch criterion
// cannot be satisfied. Computing it reserves nothing.
type Suggestion struct {
	Kind      SuggestionKind
	Bucket    Bucket // set for SuggestionOtherBucket
	Available int
}
