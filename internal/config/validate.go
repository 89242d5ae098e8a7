package config

import (
	"fmt"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/internal/projection"
	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/mathutil"
	"github.com/finmodeler/statement-engine/pkg/units"
)

// Validate performs configuration validation and returns human-readable
// warnings. Warnings never block computation; anomalies degrade to safe
// defaults downstream.
func (conf *Configuration) Validate() []string {
	var warnings []string

	if len(conf.Years.Historical) == 0 {
		warnings = append(warnings, "no historical years configured - all prior values will be zero")
	}
	if len(conf.Years.Projection) == 0 {
		warnings = append(warnings, "no projection years configured - revenue projection will be empty")
	}
	if _, err := units.Parse(conf.DisplayUnit); err != nil {
		warnings = append(warnings, fmt.Sprintf("unknown display unit %q - falling back to units", conf.DisplayUnit))
	}
	if conf.Output.Format != "" &&
		conf.Output.Format != constants.OutputFormatPretty &&
		conf.Output.Format != constants.OutputFormatCSV {
		warnings = append(warnings, fmt.Sprintf("unknown output format %q", conf.Output.Format))
	}

	warnings = append(warnings, conf.validateProjection()...)
	return warnings
}

// validateProjection checks each tier of the projection setup: method names,
// allocation sums, and per-stream method mixes.
func (conf *Configuration) validateProjection() []string {
	var warnings []string

	for id, item := range conf.Projection.Items {
		if item.Method != "" && !projection.ValidMethod(projection.Method(item.Method)) {
			warnings = append(warnings, fmt.Sprintf("item %q uses unknown projection method %q", id, item.Method))
		}
	}

	for streamID, alloc := range conf.Projection.Allocations {
		sum := 0.0
		for _, pct := range alloc {
			sum += pct
		}
		if sum > constants.PercentDivisor+constants.CurrencyTolerance {
			warnings = append(warnings, fmt.Sprintf("stream %q allocations sum to %.1f%% (over 100%%)", streamID, sum))
		}
	}

	for streamID, breakdowns := range conf.Projection.Breakdowns {
		hasGrowth, hasDriver, hasPct := false, false, false
		pctSum := 0.0
		for _, b := range breakdowns {
			item := conf.Projection.Items[b.ID]
			switch projection.Method(item.Method) {
			case projection.MethodPriceVolume, projection.MethodCustomersARPU:
				hasDriver = true
			case projection.MethodPctOfTotal:
				if item.Inputs.ReferenceID == "" || item.Inputs.ReferenceID == streamID {
					hasPct = true
					pctSum += item.Inputs.Percent
				}
			case projection.MethodGrowthRate, projection.MethodProductLine, projection.MethodChannel:
				hasGrowth = true
			}
		}
		if hasGrowth && hasDriver && hasPct {
			warnings = append(warnings, fmt.Sprintf(
				"stream %q mixes growth, driver, and percent-of-stream breakdowns - projection falls back to summation", streamID))
		}
		if hasPct && pctSum >= constants.PercentDivisor {
			warnings = append(warnings, fmt.Sprintf(
				"stream %q percent-of-stream breakdowns sum to %.1f%% - total cannot be solved", streamID, pctSum))
		}
	}

	// Product and channel line shares should cover the whole item.
	for id, item := range conf.Projection.Items {
		method := projection.Method(item.Method)
		if method != projection.MethodProductLine && method != projection.MethodChannel {
			continue
		}
		shareSum := 0.0
		for _, line := range item.Inputs.Lines {
			shareSum += line.SharePct
		}
		if len(item.Inputs.Lines) > 0 && !mathutil.WithinTolerance(shareSum, constants.PercentDivisor, 0.5) {
			warnings = append(warnings, fmt.Sprintf("item %q line shares sum to %.1f%%, expected 100%%", id, shareSum))
		}
	}

	return warnings
}

// ValidateModel checks that the materialized model still carries the anchor
// rows the category resolver depends on.
func ValidateModel(m *model.Model) []string {
	var warnings []string
	balance := m.Statement(constants.StatementBalance)
	if balance == nil {
		return []string{"balance sheet statement missing"}
	}
	for _, anchor := range []string{
		model.RowTotalCurAssets, model.RowTotalAssets, model.RowTotalCurLiab,
		model.RowTotalLiabilities, model.RowTotalEquity,
	} {
		if balance.Find(anchor) == nil {
			warnings = append(warnings, fmt.Sprintf(
				"balance sheet anchor %q missing - category resolution degrades to positional heuristics", anchor))
		}
	}
	return warnings
}
