// Package category maps balance-sheet rows to their accounting category,
// either by well-known id or by position relative to anchor subtotal/total
// rows. The resolver is a prioritized rule chain: explicit id map, then
// anchor-bounded range, then nearby-row scan, then a fixed-window fallback.
package category

import (
	"go.uber.org/zap"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/pkg/constants"
)

// Category is a balance-sheet accounting category.
type Category string

const (
	CurrentAssets         Category = "current_assets"
	FixedAssets           Category = "fixed_assets"
	CurrentLiabilities    Category = "current_liabilities"
	NonCurrentLiabilities Category = "non_current_liabilities"
	Equity                Category = "equity"
	Unknown               Category = ""
)

// wellKnown maps template row ids to their category.
var wellKnown = map[string]Category{
	model.RowCash:           CurrentAssets,
	"ar":                    CurrentAssets,
	"inventory":             CurrentAssets,
	"prepaid_expenses":      CurrentAssets,
	"other_current_assets":  CurrentAssets,
	model.RowTotalCurAssets: CurrentAssets,

	"ppe":          FixedAssets,
	"intangibles":  FixedAssets,
	"goodwill":     FixedAssets,
	"other_assets": FixedAssets,

	"ap":                    CurrentLiabilities,
	"accrued_liabilities":   CurrentLiabilities,
	"deferred_revenue":      CurrentLiabilities,
	"short_term_debt":       CurrentLiabilities,
	model.RowTotalCurLiab:   CurrentLiabilities,

	"long_term_debt":    NonCurrentLiabilities,
	"other_liabilities": NonCurrentLiabilities,

	"common_stock":       Equity,
	"retained_earnings":  Equity,
	model.RowTotalEquity: Equity,
}

// grandTotals are aggregate rows that belong to no single category.
var grandTotals = map[string]bool{
	model.RowTotalAssets:      true,
	model.RowTotalLiabilities: true,
	model.RowTotalLiabEquity:  true,
}

// closingAnchor is the subtotal/total row that terminates each category.
var closingAnchor = map[Category]string{
	CurrentAssets:         model.RowTotalCurAssets,
	FixedAssets:           model.RowTotalAssets,
	CurrentLiabilities:    model.RowTotalCurLiab,
	NonCurrentLiabilities: model.RowTotalLiabilities,
	Equity:                model.RowTotalEquity,
}

// Resolver resolves balance-sheet categories.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a resolver. A nil logger is replaced with a no-op
// logger.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve returns the category of the identified row in the balance sheet.
func (r *Resolver) Resolve(st *model.Statement, rowID string) Category {
	rows := st.Flatten()
	for i, row := range rows {
		if row.ID == rowID {
			return r.ResolveIndex(rows, i)
		}
	}
	return Unknown
}

// ResolveIndex resolves the category of the row at index within the full
// flattened row sequence. Resolution is deterministic: identical input
// always yields the identical category.
func (r *Resolver) ResolveIndex(rows []*model.Row, index int) Category {
	if index < 0 || index >= len(rows) {
		return Unknown
	}
	row := rows[index]

	// Tier 1: explicit id map.
	if cat, ok := wellKnown[row.ID]; ok {
		return cat
	}
	if grandTotals[row.ID] {
		return Unknown
	}

	// Tier 2: position relative to the flanking anchors.
	if cat, ok := r.resolveByAnchors(rows, index); ok {
		return cat
	}

	// Tier 3: scan nearby rows for a recognizable neighbor.
	if cat, ok := r.resolveByNeighbors(rows, index); ok {
		r.logger.Debug("category resolved by neighbor scan",
			zap.String("op", "category.ResolveIndex"),
			zap.String("rowId", row.ID),
			zap.String("category", string(cat)),
		)
		return cat
	}

	// Tier 4: fixed-window fallback when no anchors exist at all.
	if index < constants.FallbackCategoryWindow {
		return CurrentAssets
	}
	return FixedAssets
}

// resolveByAnchors places the row inside the half-open interval bounded by
// the nearest anchor rows. When both flanking anchors are present the row is
// never placed outside them.
func (r *Resolver) resolveByAnchors(rows []*model.Row, index int) (Category, bool) {
	anchors := anchorIndices(rows)

	boundaries := []struct {
		anchor    string
		category  Category
		inclusive bool // whether the anchor row itself belongs to the category
	}{
		{model.RowTotalCurAssets, CurrentAssets, true},
		{model.RowTotalAssets, FixedAssets, false},
		{model.RowTotalCurLiab, CurrentLiabilities, true},
		{model.RowTotalLiabilities, NonCurrentLiabilities, false},
		{model.RowTotalEquity, Equity, true},
	}

	for _, b := range boundaries {
		anchorIdx, present := anchors[b.anchor]
		if !present {
			continue
		}
		if index < anchorIdx || (b.inclusive && index == anchorIdx) {
			return b.category, true
		}
	}
	return Unknown, false
}

func (r *Resolver) resolveByNeighbors(rows []*model.Row, index int) (Category, bool) {
	const scanDistance = 3
	for offset := 1; offset <= scanDistance; offset++ {
		for _, i := range []int{index - offset, index + offset} {
			if i < 0 || i >= len(rows) {
				continue
			}
			if cat, ok := wellKnown[rows[i].ID]; ok {
				return cat, true
			}
		}
	}
	return Unknown, false
}

// RowsForCategory returns every row whose resolved category matches,
// including sub-subtotals but excluding grand totals and the category's own
// closing anchor.
func (r *Resolver) RowsForCategory(st *model.Statement, cat Category) []*model.Row {
	rows := st.Flatten()
	closing := closingAnchor[cat]
	var out []*model.Row
	for i, row := range rows {
		if grandTotals[row.ID] || row.ID == closing {
			continue
		}
		if r.ResolveIndex(rows, i) == cat {
			out = append(out, row)
		}
	}
	return out
}

// InsertionIndexForCategory returns the index at which a new row of the
// category should be inserted: immediately before the category's closing
// anchor, scanning backward past any trailing total/subtotal rows.
func (r *Resolver) InsertionIndexForCategory(st *model.Statement, cat Category) int {
	rows := st.Flatten()
	anchors := anchorIndices(rows)

	closing, ok := anchors[closingAnchor[cat]]
	if !ok {
		// No closing anchor; append at the end of the resolved range.
		last := -1
		for i := range rows {
			if r.ResolveIndex(rows, i) == cat {
				last = i
			}
		}
		if last == -1 {
			return len(rows)
		}
		return last + 1
	}

	idx := closing
	for idx > 0 {
		prev := rows[idx-1]
		if prev.Kind != model.KindTotal && prev.Kind != model.KindSubtotal {
			break
		}
		if _, isAnchor := anchors[prev.ID]; isAnchor {
			break
		}
		idx--
	}
	return idx
}

func anchorIndices(rows []*model.Row) map[string]int {
	anchors := make(map[string]int)
	for i, row := range rows {
		switch row.ID {
		case model.RowTotalCurAssets, model.RowTotalAssets, model.RowTotalCurLiab,
			model.RowTotalLiabilities, model.RowTotalEquity:
			anchors[row.ID] = i
		}
	}
	return anchors
}
