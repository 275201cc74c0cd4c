// Package matching resolves supplier records to catalog products by EAN, MPN
// or exact title, in a caller-supplied priority order.
//
// The engine assumes the priority list is non-empty whenever any record is
// expected to match; an empty list yields no matches. Keeping at least one
// method enabled is enforced by Options, not here.
package matching

import (
	"productmap/internal/normalize"

	"github.com/google/uuid"
)

// Candidate is the reference projection of a catalog product.
type Candidate struct {
	ID    uuid.UUID `json:"id"`
	EAN   string    `json:"ean,omitempty"`
	MPN   string    `json:"mpn,omitempty"`
	Title string    `json:"title,omitempty"`
}

// Result pairs one supplier record with the product it resolved to.
type Result struct {
	Record  normalize.SupplierRecord
	Product Candidate
	Method  Method
}

// Outcome holds matched records in input order and the records left over.
type Outcome struct {
	Matches   []Result
	Unmatched []normalize.SupplierRecord
}

// Index is a set of exact-key lookups over a candidate set. Duplicate keys
// keep the last candidate; empty keys are not indexed.
type Index struct {
	byEAN   map[string]Candidate
	byMPN   map[string]Candidate
	byTitle map[string]Candidate
}

// NewIndex builds the three lookups.
func NewIndex(candidates []Candidate) *Index {
	idx := &Index{
		byEAN:   make(map[string]Candidate, len(candidates)),
		byMPN:   make(map[string]Candidate, len(candidates)),
		byTitle: make(map[string]Candidate, len(candidates)),
	}
	for _, c := range candidates {
		if c.EAN != "" {
			idx.byEAN[c.EAN] = c
		}
		if c.MPN != "" {
			idx.byMPN[c.MPN] = c
		}
		if c.Title != "" {
			idx.byTitle[c.Title] = c
		}
	}
	return idx
}

// Lookup resolves rec using a single method.
func (idx *Index) Lookup(m Method, rec normalize.SupplierRecord) (Candidate, bool) {
	var (
		table map[string]Candidate
		key   string
	)
	switch m {
	case MethodEAN:
		table, key = idx.byEAN, rec.EAN
	case MethodMPN:
		table, key = idx.byMPN, rec.MPN
	case MethodName:
		table, key = idx.byTitle, rec.ProductName
	default:
		return Candidate{}, false
	}
	if key == "" {
		return Candidate{}, false
	}
	c, ok := table[key]
	return c, ok
}

// Match runs one pass per method in priority order. A record matched by an
// earlier method is skipped by later ones, so each record yields at most one
// Result.
func Match(records []normalize.SupplierRecord, candidates []Candidate, priority []Method) Outcome {
	idx := NewIndex(candidates)
	found := make([]*Result, len(records))

	for _, m := range priority {
		for i, rec := range records {
			if found[i] != nil {
				continue
			}
			if c, ok := idx.Lookup(m, rec); ok {
				found[i] = &Result{Record: rec, Product: c, Method: m}
			}
		}
	}

	var out Outcome
	for i, r := range found {
		if r == nil {
			out.Unmatched = append(out.Unmatched, records[i])
			continue
		}
		out.Matches = append(out.Matches, *r)
	}
	return out
}

// Identifiers is the distinct identifier set of a batch, used to pre-filter
// candidates before matching.
type Identifiers struct {
	EANs   []string
	MPNs   []string
	Titles []string
}

// Empty reports whether there is nothing to look up.
func (ids Identifiers) Empty() bool {
	return len(ids.EANs) == 0 && len(ids.MPNs) == 0 && len(ids.Titles) == 0
}

// CollectIdentifiers gathers the identifiers that the enabled methods need,
// deduplicated and in first-seen order.
func CollectIdentifiers(records []normalize.SupplierRecord, priority []Method) Identifiers {
	var ids Identifiers
	for _, m := range priority {
		seen := make(map[string]bool)
		var dst *[]string
		for _, rec := range records {
			var key string
			switch m {
			case MethodEAN:
				key, dst = rec.EAN, &ids.EANs
			case MethodMPN:
				key, dst = rec.MPN, &ids.MPNs
			case MethodName:
				key, dst = rec.ProductName, &ids.Titles
			}
			if key == "" || seen[key] || dst == nil {
				continue
			}
			seen[key] = true
			*dst = append(*dst, key)
		}
	}
	return ids
}
