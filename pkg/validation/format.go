// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/units"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidateDisplayUnit checks if the display unit is a recognized scale.
func ValidateDisplayUnit(unit string) error {
	if _, err := units.Parse(unit); err != nil {
		return fmt.Errorf("expected display unit of units, thousands, or millions, got %s", unit)
	}
	return nil
}
