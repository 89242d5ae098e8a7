package model

import (
	"fmt"

	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/units"
)

// Statement is an ordered forest of rows.
type Statement struct {
	Name string
	Rows []*Row
}

// Model is the in-memory representation of a three-statement model. It is
// owned exclusively by a single caller; every mutation produces a new Model.
type Model struct {
	Statements      map[string]*Statement
	HistoricalYears []string
	ProjectionYears []string
	DisplayUnit     units.Unit
	Currency        string
}

// Statement returns the named statement, or nil when absent.
func (m *Model) Statement(name string) *Statement {
	if m.Statements == nil {
		return nil
	}
	return m.Statements[name]
}

// Years returns historical followed by projection year labels.
func (m *Model) Years() []string {
	years := make([]string, 0, len(m.HistoricalYears)+len(m.ProjectionYears))
	years = append(years, m.HistoricalYears...)
	years = append(years, m.ProjectionYears...)
	return years
}

// PriorYear returns the label preceding year in the model's timeline, or ""
// for the first year. A missing prior year is a valid zero state for
// period-over-period formulas.
func (m *Model) PriorYear(year string) string {
	years := m.Years()
	for i, y := range years {
		if y == year {
			if i == 0 {
				return ""
			}
			return years[i-1]
		}
	}
	return ""
}

// LastHistoricalYear returns the final actuals year, or "".
func (m *Model) LastHistoricalYear() string {
	if len(m.HistoricalYears) == 0 {
		return ""
	}
	return m.HistoricalYears[len(m.HistoricalYears)-1]
}

// IsProjectionYear reports whether the label belongs to the projection range.
func (m *Model) IsProjectionYear(year string) bool {
	for _, y := range m.ProjectionYears {
		if y == year {
			return true
		}
	}
	return false
}

// FindRow locates a row by id within the named statement.
func (m *Model) FindRow(statement, id string) *Row {
	st := m.Statement(statement)
	if st == nil {
		return nil
	}
	return st.Find(id)
}

// Clone deep-copies the model.
func (m *Model) Clone() *Model {
	clone := &Model{
		HistoricalYears: append([]string(nil), m.HistoricalYears...),
		ProjectionYears: append([]string(nil), m.ProjectionYears...),
		DisplayUnit:     m.DisplayUnit,
		Currency:        m.Currency,
	}
	if m.Statements != nil {
		clone.Statements = make(map[string]*Statement, len(m.Statements))
		for name, st := range m.Statements {
			clone.Statements[name] = st.Clone()
		}
	}
	return clone
}

// Find locates a row by id anywhere in the statement's forest.
func (s *Statement) Find(id string) *Row {
	for _, row := range s.Rows {
		if found := row.find(id); found != nil {
			return found
		}
	}
	return nil
}

// Flatten returns the statement's rows in display order, depth-first.
func (s *Statement) Flatten() []*Row {
	var out []*Row
	var walk func(rows []*Row)
	walk = func(rows []*Row) {
		for _, row := range rows {
			out = append(out, row)
			walk(row.Children)
		}
	}
	walk(s.Rows)
	return out
}

// TopLevelIndex returns the position of a top-level row id, or -1.
func (s *Statement) TopLevelIndex(id string) int {
	for i, row := range s.Rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

// Clone deep-copies the statement.
func (s *Statement) Clone() *Statement {
	clone := &Statement{Name: s.Name, Rows: make([]*Row, len(s.Rows))}
	for i, row := range s.Rows {
		clone.Rows[i] = row.Clone()
	}
	return clone
}

// parentOf returns the parent row and sibling slice containing id. A nil
// parent with ok=true means id sits at the top level.
func (s *Statement) parentOf(id string) (parent *Row, siblings []*Row, index int, ok bool) {
	for i, row := range s.Rows {
		if row.ID == id {
			return nil, s.Rows, i, true
		}
	}
	var search func(r *Row) (*Row, []*Row, int, bool)
	search = func(r *Row) (*Row, []*Row, int, bool) {
		for i, child := range r.Children {
			if child.ID == id {
				return r, r.Children, i, true
			}
			if p, sibs, idx, found := search(child); found {
				return p, sibs, idx, true
			}
		}
		return nil, nil, 0, false
	}
	for _, row := range s.Rows {
		if p, sibs, idx, found := search(row); found {
			return p, sibs, idx, true
		}
	}
	return nil, nil, 0, false
}

func validStatement(name string) error {
	switch name {
	case constants.StatementIncome, constants.StatementBalance, constants.StatementCashFlow:
		return nil
	}
	return fmt.Errorf("unknown statement %q", name)
}
