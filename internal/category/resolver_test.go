package category

import (
	"testing"

	"github.com/finmodeler/statement-engine/internal/model"
)

func row(id string, kind model.RowKind) *model.Row {
	return &model.Row{ID: id, Label: id, Kind: kind, ValueType: model.TypeCurrency}
}

func balanceSheet(rows ...*model.Row) *model.Statement {
	return &model.Statement{Name: "balance", Rows: rows}
}

func TestResolveWellKnownIDs(t *testing.T) {
	r := NewResolver(nil)
	st := model.New([]string{"2024A"}, []string{"2025E"}, "units", "USD").Statement("balance")

	tests := []struct {
		rowID    string
		expected Category
	}{
		{"cash", CurrentAssets},
		{"ar", CurrentAssets},
		{"total_current_assets", CurrentAssets},
		{"ppe", FixedAssets},
		{"goodwill", FixedAssets},
		{"ap", CurrentLiabilities},
		{"deferred_revenue", CurrentLiabilities},
		{"long_term_debt", NonCurrentLiabilities},
		{"retained_earnings", Equity},
		{"total_equity", Equity},
	}
	for _, tt := range tests {
		t.Run(tt.rowID, func(t *testing.T) {
			if got := r.Resolve(st, tt.rowID); got != tt.expected {
				t.Errorf("Resolve(%s) = %s, expected %s", tt.rowID, got, tt.expected)
			}
		})
	}
}

func TestResolveByAnchorPosition(t *testing.T) {
	r := NewResolver(nil)
	// Anchors: total_current_assets at index 4, total_assets at index 7.
	st := balanceSheet(
		row("item_a", model.KindInput),
		row("item_b", model.KindInput),
		row("item_c", model.KindInput),
		row("item_d", model.KindInput),
		row("total_current_assets", model.KindSubtotal),
		row("item_e", model.KindInput),
		row("item_f", model.KindInput),
		row("total_assets", model.KindTotal),
	)
	rows := st.Flatten()

	tests := []struct {
		name     string
		index    int
		expected Category
	}{
		{"Row before current assets anchor", 1, CurrentAssets},
		{"Row at index 5 between anchors", 5, FixedAssets},
		{"Row at index 6 between anchors", 6, FixedAssets},
		{"Anchor row itself", 4, CurrentAssets},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ResolveIndex(rows, tt.index); got != tt.expected {
				t.Errorf("ResolveIndex(%d) = %s, expected %s", tt.index, got, tt.expected)
			}
		})
	}
}

func TestResolveByNeighborScan(t *testing.T) {
	r := NewResolver(nil)
	// No anchors at all; the unknown row sits next to a well-known id.
	st := balanceSheet(
		row("mystery_item", model.KindInput),
		row("long_term_debt", model.KindInput),
	)
	if got := r.ResolveIndex(st.Flatten(), 0); got != NonCurrentLiabilities {
		t.Errorf("neighbor scan resolved %s, expected %s", got, NonCurrentLiabilities)
	}
}

func TestResolveFixedWindowFallback(t *testing.T) {
	r := NewResolver(nil)
	var rows []*model.Row
	for i := 0; i < 15; i++ {
		rows = append(rows, row("opaque_"+string(rune('a'+i)), model.KindInput))
	}
	st := balanceSheet(rows...)
	flat := st.Flatten()

	if got := r.ResolveIndex(flat, 3); got != CurrentAssets {
		t.Errorf("row inside window resolved %s, expected %s", got, CurrentAssets)
	}
	if got := r.ResolveIndex(flat, 12); got != FixedAssets {
		t.Errorf("row outside window resolved %s, expected %s", got, FixedAssets)
	}
}

func TestRowsForCategory(t *testing.T) {
	r := NewResolver(nil)
	st := model.New([]string{"2024A"}, []string{"2025E"}, "units", "USD").Statement("balance")

	rows := r.RowsForCategory(st, CurrentAssets)
	ids := make(map[string]bool)
	for _, row := range rows {
		ids[row.ID] = true
	}
	for _, want := range []string{"cash", "ar", "inventory", "other_current_assets"} {
		if !ids[want] {
			t.Errorf("RowsForCategory(current_assets) missing %s", want)
		}
	}
	if ids["total_current_assets"] {
		t.Error("closing anchor must be excluded from its own category rows")
	}
	if ids["total_assets"] {
		t.Error("grand totals must be excluded")
	}
}

func TestInsertionIndexForCategory(t *testing.T) {
	r := NewResolver(nil)
	st := model.New([]string{"2024A"}, []string{"2025E"}, "units", "USD").Statement("balance")
	rows := st.Flatten()

	anchorIdx := -1
	for i, row := range rows {
		if row.ID == "total_current_assets" {
			anchorIdx = i
		}
	}
	if got := r.InsertionIndexForCategory(st, CurrentAssets); got != anchorIdx {
		t.Errorf("InsertionIndexForCategory(current_assets) = %d, expected %d", got, anchorIdx)
	}
}

func TestInsertionIndexSkipsTrailingSubtotals(t *testing.T) {
	r := NewResolver(nil)
	st := balanceSheet(
		row("item_a", model.KindInput),
		row("memo_subtotal", model.KindSubtotal),
		row("total_current_assets", model.KindSubtotal),
		row("ppe", model.KindInput),
		row("total_assets", model.KindTotal),
	)
	// Insertion should land before the memo subtotal at index 1, not at the
	// closing anchor's index 2.
	if got := r.InsertionIndexForCategory(st, CurrentAssets); got != 1 {
		t.Errorf("InsertionIndexForCategory = %d, expected 1", got)
	}
}

func TestInsertionIndexWithoutAnchor(t *testing.T) {
	r := NewResolver(nil)
	st := balanceSheet(
		row("cash", model.KindInput),
		row("ar", model.KindInput),
		row("ppe", model.KindInput),
	)
	if got := r.InsertionIndexForCategory(st, CurrentAssets); got != 2 {
		t.Errorf("InsertionIndexForCategory = %d, expected 2", got)
	}
}
