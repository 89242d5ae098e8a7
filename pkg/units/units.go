// Package units handles conversion between display units (units, thousands,
// millions) and the canonical stored unit. All internal computation operates
// in stored units; conversion happens only at input/output boundaries.
package units

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/finmodeler/statement-engine/pkg/constants"
)

// Unit is a currency display unit setting.
type Unit string

const (
	Units     Unit = "units"
	Thousands Unit = "thousands"
	Millions  Unit = "millions"
)

// Parse validates a display-unit string, defaulting empty input to Units.
func Parse(s string) (Unit, error) {
	switch Unit(s) {
	case Units, Thousands, Millions:
		return Unit(s), nil
	case "":
		return Units, nil
	default:
		return Units, fmt.Errorf("unknown display unit %q", s)
	}
}

// Factor returns the scale factor between the display unit and the stored unit.
func Factor(u Unit) float64 {
	switch u {
	case Thousands:
		return constants.UnitScaleThousands
	case Millions:
		return constants.UnitScaleMillions
	default:
		return constants.UnitScaleUnits
	}
}

// ToStored converts a display-unit value to the canonical stored unit.
func ToStored(display float64, u Unit) float64 {
	return display * Factor(u)
}

// ToDisplay converts a stored value to the given display unit.
func ToDisplay(stored float64, u Unit) float64 {
	return stored / Factor(u)
}

// Label returns a short suffix for column headers (e.g. "$000s").
func Label(u Unit) string {
	switch u {
	case Thousands:
		return "$000s"
	case Millions:
		return "$mm"
	default:
		return "$"
	}
}

// FormatDisplay renders a stored value in the display unit with thousands
// separators, e.g. 1234567.8 stored at Thousands -> "1,234.57".
func FormatDisplay(stored float64, u Unit) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.2f", ToDisplay(stored, u))
}
