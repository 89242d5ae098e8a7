package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/finmodeler/statement-engine/pkg/units"
)

// Mutations operate on an immutable-replace basis: each returns a new Model
// and leaves the receiver untouched. A rejected mutation returns the
// original model and an error; there is no partial application.

// NewRowID generates an id for a user-added line item.
func NewRowID() string {
	return "row_" + uuid.NewString()
}

// InsertRow inserts a row at index under parentID ("" for top level) in the
// named statement. Index is clamped to the sibling range.
func (m *Model) InsertRow(statement, parentID string, index int, row *Row) (*Model, error) {
	if err := validStatement(statement); err != nil {
		return m, err
	}
	if row == nil || row.ID == "" {
		return m, fmt.Errorf("row must have an id")
	}
	clone := m.Clone()
	st := clone.Statement(statement)
	if st == nil {
		return m, fmt.Errorf("statement %q not present in model", statement)
	}
	if st.Find(row.ID) != nil {
		return m, fmt.Errorf("row id %q already exists in %s", row.ID, statement)
	}
	if parentID == "" {
		st.Rows = insertAt(st.Rows, index, row.Clone())
		return clone, nil
	}
	parent := st.Find(parentID)
	if parent == nil {
		return m, fmt.Errorf("parent row %q not found in %s", parentID, statement)
	}
	parent.Children = insertAt(parent.Children, index, row.Clone())
	return clone, nil
}

// UpdateValue sets the stored value for one (row, year) pair.
func (m *Model) UpdateValue(statement, rowID, year string, value float64) (*Model, error) {
	if err := validStatement(statement); err != nil {
		return m, err
	}
	clone := m.Clone()
	row := clone.FindRow(statement, rowID)
	if row == nil {
		return m, fmt.Errorf("row %q not found in %s", rowID, statement)
	}
	if row.Values == nil {
		row.Values = make(map[string]float64)
	}
	row.Values[year] = value
	return clone, nil
}

// MoveRow moves a row one position among its siblings; delta must be -1 (up)
// or +1 (down). Moves that would cross the sibling boundary are rejected.
// Category-boundary enforcement is the caller's responsibility.
func (m *Model) MoveRow(statement, rowID string, delta int) (*Model, error) {
	if err := validStatement(statement); err != nil {
		return m, err
	}
	if delta != -1 && delta != 1 {
		return m, fmt.Errorf("move delta must be -1 or 1, got %d", delta)
	}
	clone := m.Clone()
	st := clone.Statement(statement)
	if st == nil {
		return m, fmt.Errorf("statement %q not present in model", statement)
	}
	_, siblings, index, ok := st.parentOf(rowID)
	if !ok {
		return m, fmt.Errorf("row %q not found in %s", rowID, statement)
	}
	target := index + delta
	if target < 0 || target >= len(siblings) {
		return m, fmt.Errorf("cannot move row %q beyond its siblings", rowID)
	}
	siblings[index], siblings[target] = siblings[target], siblings[index]
	return clone, nil
}

// RemoveRow deletes a row and its subtree. Protected rows are rejected.
func (m *Model) RemoveRow(statement, rowID string) (*Model, error) {
	if err := validStatement(statement); err != nil {
		return m, err
	}
	if IsProtected(statement, rowID) {
		return m, fmt.Errorf("row %q is protected and cannot be removed", rowID)
	}
	clone := m.Clone()
	st := clone.Statement(statement)
	if st == nil {
		return m, fmt.Errorf("statement %q not present in model", statement)
	}
	parent, siblings, index, ok := st.parentOf(rowID)
	if !ok {
		return m, fmt.Errorf("row %q not found in %s", rowID, statement)
	}
	removed := append(append([]*Row(nil), siblings[:index]...), siblings[index+1:]...)
	if parent == nil {
		st.Rows = removed
	} else {
		parent.Children = removed
	}
	return clone, nil
}

// AddChild appends a named input child under parent and returns its id.
func (m *Model) AddChild(statement, parentID, label string) (*Model, string, error) {
	if err := validStatement(statement); err != nil {
		return m, "", err
	}
	clone := m.Clone()
	parent := clone.FindRow(statement, parentID)
	if parent == nil {
		return m, "", fmt.Errorf("parent row %q not found in %s", parentID, statement)
	}
	child := &Row{
		ID:        NewRowID(),
		Label:     label,
		Kind:      KindInput,
		ValueType: TypeCurrency,
	}
	parent.Children = append(parent.Children, child)
	return clone, child.ID, nil
}

func insertAt(rows []*Row, index int, row *Row) []*Row {
	if index < 0 {
		index = 0
	}
	if index > len(rows) {
		index = len(rows)
	}
	out := make([]*Row, 0, len(rows)+1)
	out = append(out, rows[:index]...)
	out = append(out, row)
	out = append(out, rows[index:]...)
	return out
}

func parseUnitOrDefault(s string) (units.Unit, error) {
	u, err := units.Parse(s)
	if err != nil {
		return units.Units, err
	}
	return u, nil
}
