// Package mapping assigns arbitrary spreadsheet headers to canonical import
// fields. The mapper is a pure function of the headers and the table it is
// given: tenant-specific attributes are passed in, never fetched.
package mapping

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FieldMapping maps a canonical field name to the header it is read from.
type FieldMapping map[string]string

// Headers returns the set of headers referenced by the mapping.
func (m FieldMapping) Headers() map[string]bool {
	used := make(map[string]bool, len(m))
	for _, h := range m {
		used[h] = true
	}
	return used
}

// Result is the outcome of AutoMap.
type Result struct {
	Mapping  FieldMapping `json:"mapping"`
	Unmapped []string     `json:"unmapped_headers"`
	Warnings []string     `json:"warnings"`
}

var (
	nonAlnum       = regexp.MustCompile(`[^a-z0-9]+`)
	strippedPrefix = []string{"supplier ", "product "}
)

// NormalizeHeader lowercases a header, folds accents, applies the special
// detectors and collapses punctuation runs into single underscores. Known
// "supplier "/"product " prefixes are kept; see headerKeys.
func NormalizeHeader(h string) string {
	s := strings.ToLower(strings.TrimSpace(foldAccents(h)))
	if s == "" {
		return ""
	}
	if special, ok := detectSpecial(s); ok {
		return special
	}
	return strings.Trim(nonAlnum.ReplaceAllString(s, "_"), "_")
}

// headerKeys returns the candidate keys for a header: the full normalized
// form followed by the prefix-stripped form when it differs.
func headerKeys(h string) []string {
	full := NormalizeHeader(h)
	if full == "" {
		return nil
	}
	keys := []string{full}
	lower := strings.ToLower(strings.TrimSpace(foldAccents(h)))
	for _, p := range strippedPrefix {
		if strings.HasPrefix(lower, p) {
			stripped := NormalizeHeader(strings.TrimPrefix(lower, p))
			if stripped != "" && stripped != full {
				keys = append(keys, stripped)
			}
			break
		}
	}
	return keys
}

func detectSpecial(lower string) (string, bool) {
	spaced := strings.Join(strings.Fields(nonAlnum.ReplaceAllString(lower, " ")), " ")
	switch {
	case (strings.Contains(spaced, "buy box") || strings.Contains(spaced, "buybox")) && strings.Contains(spaced, "price"):
		return "buy_box_price", true
	case hasWord(spaced, "moq") || strings.Contains(spaced, "minimum order") || strings.Contains(spaced, "min order") ||
		strings.Contains(spaced, "min qty") || strings.Contains(spaced, "minimum qty") || strings.Contains(spaced, "min quantity") ||
		strings.Contains(spaced, "minimum quantity"):
		return "moq", true
	case strings.Contains(spaced, "stock") || hasWord(spaced, "qty") ||
		strings.Contains(spaced, "quantity") || strings.Contains(spaced, "available"):
		return "supplier_stock", true
	}
	return "", false
}

func hasWord(spaced, word string) bool {
	for _, w := range strings.Fields(spaced) {
		if w == word {
			return true
		}
	}
	return false
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// AutoMap maps headers onto the fields of table in three passes: exact
// synonym match, scored partial match, then catch-all fragments. Each header
// is claimed by at most one field and each field claims at most one header.
func AutoMap(headers []string, table Table) Result {
	keys := make([][]string, len(headers))
	for i, h := range headers {
		keys[i] = headerKeys(h)
	}

	mapping := make(FieldMapping)
	claimed := make([]bool, len(headers))

	assign := func(field string, i int) {
		mapping[field] = headers[i]
		claimed[i] = true
	}

	// Pass 1: exact. Full keys first so "Supplier Name" is not read as "name".
	for depth := 0; depth < 2; depth++ {
		for _, f := range table {
			if _, done := mapping[f.Name]; done {
				continue
			}
			for i := range headers {
				if claimed[i] || len(keys[i]) <= depth {
					continue
				}
				if containsString(f.Synonyms, keys[i][depth]) {
					assign(f.Name, i)
					break
				}
			}
		}
	}

	// Pass 2: scored partial match per remaining header.
	for i := range headers {
		if claimed[i] || len(keys[i]) == 0 {
			continue
		}
		best, bestScore := "", 0.0
		for _, f := range table {
			if _, done := mapping[f.Name]; done {
				continue
			}
			for _, syn := range f.Synonyms {
				for _, key := range keys[i] {
					if s := score(key, syn); s > bestScore {
						best, bestScore = f.Name, s
					}
				}
			}
		}
		if best != "" {
			assign(best, i)
		}
	}

	// Pass 3: catch-alls.
	for _, f := range table {
		if len(f.CatchAll) == 0 {
			continue
		}
		if _, done := mapping[f.Name]; done {
			continue
		}
		for i := range headers {
			if claimed[i] || len(keys[i]) == 0 {
				continue
			}
			if containsFragment(keys[i][0], f.CatchAll) {
				assign(f.Name, i)
				break
			}
		}
	}

	res := Result{Mapping: mapping, Unmapped: []string{}, Warnings: []string{}}
	for i, h := range headers {
		if !claimed[i] {
			res.Unmapped = append(res.Unmapped, h)
		}
	}
	for _, f := range table {
		if _, ok := mapping[f.Name]; f.Required && !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("required field %q is not mapped", f.Name))
		}
	}
	return res
}

// SupplierWarnings extends AutoMap's warnings with the supplier-specific
// check that at least one identifier column is mapped.
func SupplierWarnings(m FieldMapping) []string {
	for _, f := range SupplierIdentifierFields {
		if _, ok := m[f]; ok {
			return nil
		}
	}
	return []string{"no identifier column (EAN, MPN or Product Name) is mapped; no rows can be matched"}
}

// score ranks how well a normalized header key matches one synonym.
// Whole-word hits beat containment, which beats the header being a fragment
// of the synonym. Zero means no match.
func score(key, syn string) float64 {
	if key == "" || syn == "" {
		return 0
	}
	if strings.Contains("_"+key+"_", "_"+syn+"_") {
		return 1 + float64(len(syn))/float64(len(key))
	}
	if len(syn) >= 3 && strings.Contains(key, syn) {
		return 0.8 * float64(len(syn)) / float64(len(key))
	}
	if len(key) >= 3 && strings.Contains(syn, key) {
		return 0.6 * float64(len(key)) / float64(len(syn))
	}
	return 0
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsFragment(key string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}
