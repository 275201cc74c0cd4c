package matching

import (
	"testing"

	"productmap/internal/normalize"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(row int, ean, mpn, name string) normalize.SupplierRecord {
	return normalize.SupplierRecord{Row: row, SupplierName: "Acme", EAN: ean, MPN: mpn, ProductName: name}
}

func TestMatch_PriorityRespected(t *testing.T) {
	byEAN := Candidate{ID: uuid.New(), EAN: "111"}
	byMPN := Candidate{ID: uuid.New(), MPN: "M-1"}

	records := []normalize.SupplierRecord{rec(1, "111", "M-1", "")}

	out := Match(records, []Candidate{byMPN, byEAN}, []Method{MethodEAN, MethodMPN, MethodName})
	require.Len(t, out.Matches, 1)
	assert.Equal(t, MethodEAN, out.Matches[0].Method)
	assert.Equal(t, byEAN.ID, out.Matches[0].Product.ID)

	out = Match(records, []Candidate{byMPN, byEAN}, []Method{MethodMPN, MethodEAN})
	require.Len(t, out.Matches, 1)
	assert.Equal(t, MethodMPN, out.Matches[0].Method)
	assert.Equal(t, byMPN.ID, out.Matches[0].Product.ID)
}

func TestMatch_UnmatchedAccounting(t *testing.T) {
	candidates := []Candidate{
		{ID: uuid.New(), EAN: "1"},
		{ID: uuid.New(), MPN: "P2"},
		{ID: uuid.New(), Title: "Widget"},
	}
	records := []normalize.SupplierRecord{
		rec(1, "1", "", ""),
		rec(2, "", "P2", ""),
		rec(3, "", "", "Widget"),
		rec(4, "999", "", ""),
		rec(5, "", "", "widget"),
		rec(6, "", "", ""),
	}

	out := Match(records, candidates, AllMethods)

	assert.Len(t, out.Matches, 3)
	assert.Len(t, out.Unmatched, 3)
	assert.Equal(t, len(records), len(out.Matches)+len(out.Unmatched))
	assert.Equal(t, []int{4, 5, 6}, []int{out.Unmatched[0].Row, out.Unmatched[1].Row, out.Unmatched[2].Row})
}

func TestMatch_ResultsInRecordOrder(t *testing.T) {
	candidates := []Candidate{{ID: uuid.New(), EAN: "1"}, {ID: uuid.New(), MPN: "P2"}}
	records := []normalize.SupplierRecord{rec(1, "", "P2", ""), rec(2, "1", "", "")}

	out := Match(records, candidates, AllMethods)

	require.Len(t, out.Matches, 2)
	assert.Equal(t, 1, out.Matches[0].Record.Row)
	assert.Equal(t, MethodMPN, out.Matches[0].Method)
	assert.Equal(t, 2, out.Matches[1].Record.Row)
}

func TestMatch_DisabledMethodNotUsed(t *testing.T) {
	candidates := []Candidate{{ID: uuid.New(), Title: "Widget"}}
	out := Match([]normalize.SupplierRecord{rec(1, "", "", "Widget")}, candidates, []Method{MethodEAN, MethodMPN})
	assert.Empty(t, out.Matches)
	assert.Len(t, out.Unmatched, 1)
}

func TestMatch_EmptyPriorityMatchesNothing(t *testing.T) {
	out := Match([]normalize.SupplierRecord{rec(1, "1", "", "")}, []Candidate{{ID: uuid.New(), EAN: "1"}}, nil)
	assert.Empty(t, out.Matches)
}

func TestNewIndex_LastWriteWins(t *testing.T) {
	first := Candidate{ID: uuid.New(), EAN: "1"}
	last := Candidate{ID: uuid.New(), EAN: "1"}

	c, ok := NewIndex([]Candidate{first, last}).Lookup(MethodEAN, rec(1, "1", "", ""))

	require.True(t, ok)
	assert.Equal(t, last.ID, c.ID)
}

func TestIndex_EmptyKeysNeverMatch(t *testing.T) {
	idx := NewIndex([]Candidate{{ID: uuid.New()}})
	_, ok := idx.Lookup(MethodEAN, rec(1, "", "", ""))
	assert.False(t, ok)
}

func TestCollectIdentifiers(t *testing.T) {
	records := []normalize.SupplierRecord{
		rec(1, "1", "P1", "A"),
		rec(2, "1", "", "B"),
		rec(3, "2", "P1", ""),
	}

	ids := CollectIdentifiers(records, []Method{MethodEAN, MethodName})

	assert.Equal(t, []string{"1", "2"}, ids.EANs)
	assert.Empty(t, ids.MPNs)
	assert.Equal(t, []string{"A", "B"}, ids.Titles)
	assert.False(t, ids.Empty())
	assert.True(t, CollectIdentifiers(nil, AllMethods).Empty())
}

func TestOptions_SetEnabledKeepsOneMethod(t *testing.T) {
	o := DefaultOptions()
	o.SetEnabled(MethodEAN, false)
	o.SetEnabled(MethodMPN, false)
	assert.True(t, o.UseName)

	o.SetEnabled(MethodName, false)
	assert.True(t, o.UseName, "last enabled method must stay on")
	assert.NoError(t, o.Validate())

	o.SetEnabled(MethodEAN, true)
	o.SetEnabled(MethodName, false)
	assert.False(t, o.UseName)
	assert.True(t, o.UseEAN)
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
	assert.ErrorIs(t, Options{}.Validate(), ErrNoMethodEnabled)
	assert.Error(t, Options{UseEAN: true, Priority: []Method{"sku"}}.Validate())
	assert.Error(t, Options{UseEAN: true, Priority: []Method{MethodEAN, MethodEAN}}.Validate())
}

func TestOptions_EffectivePriority(t *testing.T) {
	o := Options{UseEAN: true, UseMPN: false, UseName: true, Priority: []Method{MethodName, MethodMPN}}
	assert.Equal(t, []Method{MethodName, MethodEAN}, o.EffectivePriority())

	assert.Equal(t, AllMethods, DefaultOptions().EffectivePriority())
}
