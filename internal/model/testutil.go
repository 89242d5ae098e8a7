package model

// Seed sets stored values in place for many (row, year) pairs at once,
// keyed row id -> year -> value. It is a convenience for tests and template
// bootstrapping; rows not found are skipped.
func Seed(m *Model, statement string, values map[string]map[string]float64) {
	st := m.Statement(statement)
	if st == nil {
		return
	}
	for rowID, byYear := range values {
		row := st.Find(rowID)
		if row == nil {
			continue
		}
		if row.Values == nil {
			row.Values = make(map[string]float64, len(byYear))
		}
		for year, v := range byYear {
			row.Values[year] = v
		}
	}
}
