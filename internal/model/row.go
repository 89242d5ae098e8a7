// Package model defines the hierarchical row-tree data structures for the
// three financial statements and the whole-tree-replace mutations that
// operate on them.
package model

// RowKind distinguishes user-entered rows from derived rows.
type RowKind string

const (
	KindInput    RowKind = "input"
	KindCalc     RowKind = "calc"
	KindSubtotal RowKind = "subtotal"
	KindTotal    RowKind = "total"
)

// ValueType governs formatting and unit scaling, not storage. All values are
// stored in the canonical unit regardless of display setting.
type ValueType string

const (
	TypeCurrency ValueType = "currency"
	TypePercent  ValueType = "percent"
	TypeNumber   ValueType = "number"
)

// Section identifies a cash-flow statement section.
type Section string

const (
	SectionOperating Section = "operating"
	SectionInvesting Section = "investing"
	SectionFinancing Section = "financing"
)

// Impact is the direction of a balance-sheet item's effect on cash when the
// item increases.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// CalcMethod describes how a classified row's cash-flow contribution is
// computed.
type CalcMethod string

const (
	MethodChange     CalcMethod = "change"
	MethodDirect     CalcMethod = "direct"
	MethodCalculated CalcMethod = "calculated"
)

// CFSLink records a prior cash-flow classification decision for a
// balance-sheet row so it need not be re-derived.
type CFSLink struct {
	Section     Section    `yaml:"section"`
	Impact      Impact     `yaml:"impact"`
	Description string     `yaml:"description"`
	Method      CalcMethod `yaml:"method"`
}

// ISLink ties a balance-sheet row to an income-statement concept.
type ISLink struct {
	TargetID    string `yaml:"targetId"`
	Description string `yaml:"description,omitempty"`
}

// Row is a node in a statement's ordered forest. Child order is significant
// for display and insertion but not for totals.
type Row struct {
	ID        string             `yaml:"id"`
	Label     string             `yaml:"label"`
	Kind      RowKind            `yaml:"kind"`
	ValueType ValueType          `yaml:"valueType"`
	Values    map[string]float64 `yaml:"values,omitempty"`
	Children  []*Row             `yaml:"children,omitempty"`
	CFSLink   *CFSLink           `yaml:"cfsLink,omitempty"`
	ISLink    *ISLink            `yaml:"isLink,omitempty"`
}

// Value returns the stored value for a year; absence means zero.
func (r *Row) Value(year string) float64 {
	if r.Values == nil {
		return 0
	}
	return r.Values[year]
}

// HasValue reports whether an explicit entry exists for the year.
func (r *Row) HasValue(year string) bool {
	if r.Values == nil {
		return false
	}
	_, ok := r.Values[year]
	return ok
}

// Clone deep-copies the row and its subtree.
func (r *Row) Clone() *Row {
	clone := &Row{
		ID:        r.ID,
		Label:     r.Label,
		Kind:      r.Kind,
		ValueType: r.ValueType,
	}
	if r.Values != nil {
		clone.Values = make(map[string]float64, len(r.Values))
		for year, v := range r.Values {
			clone.Values[year] = v
		}
	}
	if r.CFSLink != nil {
		link := *r.CFSLink
		clone.CFSLink = &link
	}
	if r.ISLink != nil {
		link := *r.ISLink
		clone.ISLink = &link
	}
	if len(r.Children) > 0 {
		clone.Children = make([]*Row, len(r.Children))
		for i, child := range r.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// find searches the subtree rooted at r for the given id.
func (r *Row) find(id string) *Row {
	if r.ID == id {
		return r
	}
	for _, child := range r.Children {
		if found := child.find(id); found != nil {
			return found
		}
	}
	return nil
}
