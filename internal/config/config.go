// Package config defines the model-definition file format and includes
// functions for loading and materializing it into a statement model.
package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/finmodeler/statement-engine/internal/category"
	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/internal/projection"
	"github.com/finmodeler/statement-engine/pkg/constants"
)

// Configuration is the YAML model definition: statement values keyed by row
// id, revenue streams, user-added rows, and the revenue projection setup.
type Configuration struct {
	Currency    string        `mapstructure:"currency"`
	DisplayUnit string        `mapstructure:"displayUnit"`
	Years       YearsConfig   `mapstructure:"years"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Output      OutputConfig  `mapstructure:"output"`

	// Values holds stored values per statement, row id, and year label.
	Values map[string]map[string]map[string]float64 `mapstructure:"values"`

	Streams    []StreamConfig    `mapstructure:"streams"`
	CustomRows []CustomRowConfig `mapstructure:"customRows"`
	Projection ProjectionConfig  `mapstructure:"projection"`
}

// YearsConfig lists the historical and projection year labels in order.
type YearsConfig struct {
	Historical []string `mapstructure:"historical"`
	Projection []string `mapstructure:"projection"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format"` // pretty, csv
}

// StreamConfig declares a top-level revenue stream.
type StreamConfig struct {
	ID     string             `mapstructure:"id"`
	Label  string             `mapstructure:"label"`
	Values map[string]float64 `mapstructure:"values"`
}

// CustomRowConfig declares a user-added line item. Balance-sheet rows are
// placed by category via the position resolver; other rows append to their
// statement.
type CustomRowConfig struct {
	Statement string             `mapstructure:"statement"`
	ID        string             `mapstructure:"id"`
	Label     string             `mapstructure:"label"`
	Category  string             `mapstructure:"category"`
	Values    map[string]float64 `mapstructure:"values"`
}

// ProjectionConfig mirrors projection.Config in file form.
type ProjectionConfig struct {
	Items       map[string]ItemConfig            `mapstructure:"items"`
	Breakdowns  map[string][]BreakdownItemConfig `mapstructure:"breakdowns"`
	Allocations map[string]map[string]float64    `mapstructure:"allocations"`
}

// ItemConfig is one item's method and inputs in file form.
type ItemConfig struct {
	Method string            `mapstructure:"method"`
	Inputs projection.Inputs `mapstructure:"inputs"`
}

// BreakdownItemConfig declares one breakdown under a stream.
type BreakdownItemConfig struct {
	ID    string `mapstructure:"id"`
	Label string `mapstructure:"label"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// model definition there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading model file, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// ParseConfiguration loads a model definition from raw YAML bytes, as
// uploaded to the HTTP API.
func ParseConfiguration(data []byte) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error parsing model definition, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// Build materializes the configuration into a statement model and a
// projection configuration.
func (conf *Configuration) Build() (*model.Model, *projection.Config, error) {
	m := model.New(conf.Years.Historical, conf.Years.Projection, conf.DisplayUnit, conf.Currency)
	alias := conf.yearAliases()

	for _, stream := range conf.Streams {
		if stream.ID == "" {
			return nil, nil, fmt.Errorf("stream missing id")
		}
		rev := m.FindRow(constants.StatementIncome, model.RowRevenue)
		rev.Children = append(rev.Children, &model.Row{
			ID:        stream.ID,
			Label:     stream.Label,
			Kind:      model.KindInput,
			ValueType: model.TypeCurrency,
			Values:    canonicalYears(stream.Values, alias),
		})
	}

	resolver := category.NewResolver(nil)
	for _, custom := range conf.CustomRows {
		if custom.ID == "" || custom.Statement == "" {
			return nil, nil, fmt.Errorf("custom row must have id and statement")
		}
		row := &model.Row{
			ID:        custom.ID,
			Label:     custom.Label,
			Kind:      model.KindInput,
			ValueType: model.TypeCurrency,
			Values:    canonicalYears(custom.Values, alias),
		}
		index := len(m.Statement(custom.Statement).Rows)
		if custom.Statement == constants.StatementBalance && custom.Category != "" {
			index = resolver.InsertionIndexForCategory(m.Statement(custom.Statement), category.Category(custom.Category))
		}
		var err error
		m, err = m.InsertRow(custom.Statement, "", index, row)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to place custom row %s: %w", custom.ID, err)
		}
	}

	for statementName, rows := range conf.Values {
		st := m.Statement(statementName)
		if st == nil {
			return nil, nil, fmt.Errorf("unknown statement %q in values", statementName)
		}
		for rowID, byYear := range rows {
			row := st.Find(rowID)
			if row == nil {
				return nil, nil, fmt.Errorf("unknown row %q in statement %s", rowID, statementName)
			}
			if row.Values == nil {
				row.Values = make(map[string]float64, len(byYear))
			}
			for year, value := range byYear {
				row.Values[canonicalYear(year, alias)] = value
			}
		}
	}

	proj := projection.NewConfig()
	for id, item := range conf.Projection.Items {
		inputs := item.Inputs
		inputs.YearlyGrowthRates = canonicalYears(inputs.YearlyGrowthRates, alias)
		proj.Items[id] = projection.ItemConfig{
			Method: projection.Method(item.Method),
			Inputs: inputs,
		}
	}
	for streamID, breakdowns := range conf.Projection.Breakdowns {
		for _, b := range breakdowns {
			proj.Breakdowns[streamID] = append(proj.Breakdowns[streamID], projection.BreakdownItem{
				ID:    b.ID,
				Label: b.Label,
			})
		}
	}
	for streamID, alloc := range conf.Projection.Allocations {
		for breakdownID, pct := range alloc {
			proj.SetAllocation(streamID, breakdownID, pct)
		}
	}
	proj.EnsureDefaults(m)

	return m, proj, nil
}

// yearAliases maps lowercased year labels back to their declared form.
// Viper lowercases map keys while decoding, so values keyed by "2024A"
// arrive as "2024a".
func (conf *Configuration) yearAliases() map[string]string {
	alias := make(map[string]string, len(conf.Years.Historical)+len(conf.Years.Projection))
	for _, year := range conf.Years.Historical {
		alias[strings.ToLower(year)] = year
	}
	for _, year := range conf.Years.Projection {
		alias[strings.ToLower(year)] = year
	}
	return alias
}

func canonicalYear(year string, alias map[string]string) string {
	if declared, ok := alias[strings.ToLower(year)]; ok {
		return declared
	}
	return year
}

func canonicalYears(values map[string]float64, alias map[string]string) map[string]float64 {
	if values == nil {
		return nil
	}
	out := make(map[string]float64, len(values))
	for year, v := range values {
		out[canonicalYear(year, alias)] = v
	}
	return out
}
