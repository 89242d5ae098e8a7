package validation

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	for _, format := range []string{"pretty", "csv"} {
		if err := ValidateOutputFormat(format); err != nil {
			t.Errorf("ValidateOutputFormat(%q) = %v", format, err)
		}
	}
	if err := ValidateOutputFormat("xml"); err == nil {
		t.Errorf("expected error for unsupported format")
	}
}

func TestValidateDisplayUnit(t *testing.T) {
	for _, unit := range []string{"", "units", "thousands", "millions"} {
		if err := ValidateDisplayUnit(unit); err != nil {
			t.Errorf("ValidateDisplayUnit(%q) = %v", unit, err)
		}
	}
	if err := ValidateDisplayUnit("billions"); err == nil {
		t.Errorf("expected error for unsupported unit")
	}
}
