package projection

import (
	"go.uber.org/zap"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/internal/statement"
	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/mathutil"
	"github.com/finmodeler/statement-engine/pkg/units"
)

// ResolutionMode records how a stream's total was reconciled for a year.
type ResolutionMode string

const (
	// ModeSummation sums breakdown values with no algebra.
	ModeSummation ResolutionMode = "summation"
	// ModePctOfStream solves T = S / (1 - p) for percent-of-stream items.
	ModePctOfStream ResolutionMode = "pct_of_stream"
	// ModeDriverSolve derives T from driver dollars and allocation shares.
	ModeDriverSolve ResolutionMode = "driver_solve"
)

// StreamDiagnostics surfaces per-stream resolution outcomes to the caller.
type StreamDiagnostics struct {
	Mode       ResolutionMode `json:"mode"`
	InvalidMix bool           `json:"invalidMix"`
}

// Result holds projected stored values keyed by item id then year, covering
// streams, breakdowns, product/channel sub-lines, and total revenue.
type Result struct {
	Values  map[string]map[string]float64 `json:"values"`
	Streams map[string]StreamDiagnostics  `json:"streams"`
}

// Value returns the projected stored value for an item and year, 0 when
// absent.
func (r *Result) Value(itemID, year string) float64 {
	if byYear, ok := r.Values[itemID]; ok {
		return byYear[year]
	}
	return 0
}

func (r *Result) set(itemID, year string, v float64) {
	if r.Values[itemID] == nil {
		r.Values[itemID] = make(map[string]float64)
	}
	r.Values[itemID][year] = v
}

// itemCategory buckets methods for mix validation and circular resolution.
type itemCategory int

const (
	categoryGrowth itemCategory = iota
	categoryDriver
	categoryPctOfStream
	categoryReference
)

// Engine projects revenue for the projection years of a model. It reads
// historicals through the evaluator and writes a separate projected-value
// map; the row tree is never mutated.
type Engine struct {
	logger    *zap.Logger
	model     *model.Model
	evaluator *statement.Evaluator
	cfg       *Config
}

// NewEngine creates a projection engine. A nil logger is replaced with a
// no-op logger; a nil config gets lazy defaults.
func NewEngine(logger *zap.Logger, m *model.Model, cfg *Config) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	cfg.EnsureDefaults(m)
	return &Engine{
		logger:    logger,
		model:     m,
		evaluator: statement.NewEvaluator(logger, m),
		cfg:       cfg,
	}
}

// Project computes every projection year in order. Each year runs the fixed
// pass sequence; convergence is guaranteed by the bounded pass count, not by
// iteration.
func (e *Engine) Project() *Result {
	result := &Result{
		Values:  make(map[string]map[string]float64),
		Streams: make(map[string]StreamDiagnostics),
	}
	streams := e.streams()
	for idx, year := range e.model.ProjectionYears {
		e.projectYear(result, streams, year, idx)
	}
	return result
}

func (e *Engine) streams() []*model.Row {
	rev := e.model.FindRow(constants.StatementIncome, model.RowRevenue)
	if rev == nil {
		return nil
	}
	return rev.Children
}

func (e *Engine) projectYear(result *Result, streams []*model.Row, year string, yearIdx int) {
	// Pass 1: total revenue and streams without breakdowns.
	if len(streams) == 0 {
		result.set(model.RowRevenue, year,
			e.methodValue(result, model.RowRevenue, e.cfg.Item(model.RowRevenue), year, yearIdx, e.priorValue(result, model.RowRevenue, year, yearIdx)))
	}
	for _, stream := range streams {
		if len(e.cfg.Breakdowns[stream.ID]) > 0 {
			continue
		}
		cfg := e.cfg.Item(stream.ID)
		result.set(stream.ID, year,
			e.methodValue(result, stream.ID, cfg, year, yearIdx, e.priorValue(result, stream.ID, year, yearIdx)))
	}

	// Pass 2: breakdown bases, independently per breakdown.
	for _, stream := range streams {
		breakdowns := e.cfg.Breakdowns[stream.ID]
		if len(breakdowns) == 0 {
			continue
		}
		parentBase := e.priorValue(result, stream.ID, year, yearIdx)
		for _, b := range breakdowns {
			cfg := e.cfg.Item(b.ID)
			if e.categoryOf(stream.ID, cfg) == categoryPctOfStream {
				// Deferred to the resolution pass.
				result.set(b.ID, year, 0)
				continue
			}
			prior := e.breakdownPrior(result, stream.ID, b.ID, cfg, year, yearIdx, parentBase)
			result.set(b.ID, year, e.methodValue(result, b.ID, cfg, year, yearIdx, prior))
		}
	}

	// Pass 3: circular-reference resolution per stream.
	for _, stream := range streams {
		if len(e.cfg.Breakdowns[stream.ID]) == 0 {
			continue
		}
		diag := e.resolveStream(result, stream.ID, year)
		result.Streams[stream.ID] = diag
	}

	// Pass 4: aggregation.
	e.aggregate(result, streams, year)

	// Pass 5: references against final totals.
	referenced := e.applyReferences(result, streams, year, yearIdx)

	// Pass 6: re-resolve affected streams and re-sum once.
	if len(referenced) > 0 {
		for _, stream := range streams {
			if !referenced[stream.ID] || len(e.cfg.Breakdowns[stream.ID]) == 0 {
				continue
			}
			diag := e.resolveStream(result, stream.ID, year)
			result.Streams[stream.ID] = diag
		}
		e.aggregate(result, streams, year)
	}

	// Pass 7: rescale product/channel sub-lines to the reconciled totals.
	e.distributeSubLines(result, streams, year)
}

// priorValue is the compounding base for an item in a year: the last
// historical actual for the first projection year, otherwise the item's own
// final value for the previous projection year.
func (e *Engine) priorValue(result *Result, itemID, year string, yearIdx int) float64 {
	if yearIdx == 0 {
		return e.evaluator.Evaluate(constants.StatementIncome, itemID, e.model.LastHistoricalYear())
	}
	return result.Value(itemID, e.model.ProjectionYears[yearIdx-1])
}

// breakdownPrior seeds a breakdown's base: an explicit base-amount override
// wins, then the parent's base scaled by the allocation percentage for the
// first year, then the breakdown's own prior value.
func (e *Engine) breakdownPrior(result *Result, streamID, breakdownID string, cfg ItemConfig, year string, yearIdx int, parentBase float64) float64 {
	if yearIdx == 0 {
		if cfg.Inputs.BaseAmount != 0 {
			return units.ToStored(cfg.Inputs.BaseAmount, e.model.DisplayUnit)
		}
		return parentBase * mathutil.Pct(e.cfg.Allocation(streamID, breakdownID))
	}
	return result.Value(breakdownID, e.model.ProjectionYears[yearIdx-1])
}

// methodValue applies one item's configured method for one year.
func (e *Engine) methodValue(result *Result, itemID string, cfg ItemConfig, year string, yearIdx int, prior float64) float64 {
	n := yearIdx + 1
	in := cfg.Inputs
	// An explicit base amount overrides the historical prior for the first
	// projection year.
	if yearIdx == 0 && in.BaseAmount != 0 {
		prior = units.ToStored(in.BaseAmount, e.model.DisplayUnit)
	}
	switch cfg.Method {
	case MethodGrowthRate:
		rate := in.GrowthRate
		if r, ok := in.YearlyGrowthRates[year]; ok {
			rate = r
		}
		return prior * (1 + mathutil.Pct(rate))
	case MethodPriceVolume:
		price := mathutil.Compound(in.BasePrice, in.PriceGrowthPct, n)
		volume := mathutil.Compound(in.BaseVolume, in.VolumeGrowthPct, n)
		return units.ToStored(price*volume, e.model.DisplayUnit)
	case MethodCustomersARPU:
		customers := mathutil.Compound(in.BaseCustomers, in.CustomerGrowthPct, n)
		arpu := mathutil.Compound(in.BaseARPU, in.ARPUGrowthPct, n)
		return units.ToStored(customers*arpu, e.model.DisplayUnit)
	case MethodProductLine, MethodChannel:
		// Each line grows from its own prior-year value (post-rescale); the
		// first year splits the base total by share percentage.
		total := 0.0
		for _, line := range in.Lines {
			var v float64
			if yearIdx == 0 {
				v = prior * mathutil.Pct(line.SharePct) * (1 + mathutil.Pct(line.GrowthPct))
			} else {
				prevYear := e.model.ProjectionYears[yearIdx-1]
				v = result.Value(line.ID, prevYear) * (1 + mathutil.Pct(line.GrowthPct))
			}
			result.set(line.ID, year, v)
			total += v
		}
		return total
	case MethodPctOfTotal:
		// Provisional here; the reference pass re-applies against finals.
		ref := in.ReferenceID
		if ref == "" {
			ref = model.RowRevenue
		}
		return result.Value(ref, year) * mathutil.Pct(in.Percent)
	}
	return prior
}

func (e *Engine) categoryOf(streamID string, cfg ItemConfig) itemCategory {
	switch cfg.Method {
	case MethodPriceVolume, MethodCustomersARPU:
		return categoryDriver
	case MethodPctOfTotal:
		if cfg.Inputs.ReferenceID == "" || cfg.Inputs.ReferenceID == streamID {
			return categoryPctOfStream
		}
		return categoryReference
	default:
		return categoryGrowth
	}
}

// resolveStream reconciles a stream's breakdowns into a total. Percent-of-
// stream algebra takes precedence over the driver solve when both are
// structurally possible; this preserves the legacy tie-break (see DESIGN.md)
// pending product clarification.
func (e *Engine) resolveStream(result *Result, streamID, year string) StreamDiagnostics {
	breakdowns := e.cfg.Breakdowns[streamID]

	hasGrowth, hasDriver, hasPct := false, false, false
	for _, b := range breakdowns {
		switch e.categoryOf(streamID, e.cfg.Item(b.ID)) {
		case categoryGrowth:
			hasGrowth = true
		case categoryDriver:
			hasDriver = true
		case categoryPctOfStream:
			hasPct = true
		}
	}

	if hasGrowth && hasDriver && hasPct {
		e.logger.Warn("invalid projection method mix, falling back to summation",
			zap.String("op", "projection.resolveStream"),
			zap.String("streamId", streamID),
			zap.String("year", year),
		)
		return StreamDiagnostics{Mode: ModeSummation, InvalidMix: true}
	}

	if hasPct {
		pctSum := 0.0
		nonPctSum := 0.0
		for _, b := range breakdowns {
			cfg := e.cfg.Item(b.ID)
			if e.categoryOf(streamID, cfg) == categoryPctOfStream {
				pctSum += mathutil.Pct(cfg.Inputs.Percent)
			} else {
				nonPctSum += result.Value(b.ID, year)
			}
		}
		total := nonPctSum
		if pctSum < 1 {
			total = nonPctSum / (1 - pctSum)
		} else {
			e.logger.Warn("percent-of-stream breakdowns sum to 100% or more",
				zap.String("op", "projection.resolveStream"),
				zap.String("streamId", streamID),
			)
		}
		for _, b := range breakdowns {
			cfg := e.cfg.Item(b.ID)
			if e.categoryOf(streamID, cfg) == categoryPctOfStream {
				result.set(b.ID, year, total*mathutil.Pct(cfg.Inputs.Percent))
			}
		}
		return StreamDiagnostics{Mode: ModePctOfStream}
	}

	if hasDriver {
		driverSum := 0.0
		driverAlloc := 0.0
		explicitSum := 0.0
		var plugs []string
		plugAlloc := 0.0
		for _, b := range breakdowns {
			cfg := e.cfg.Item(b.ID)
			alloc := e.cfg.Allocation(streamID, b.ID)
			switch {
			case e.categoryOf(streamID, cfg) == categoryDriver:
				driverSum += result.Value(b.ID, year)
				driverAlloc += alloc
			case cfg.Inputs.BaseAmount != 0:
				explicitSum += result.Value(b.ID, year)
			default:
				plugs = append(plugs, b.ID)
				plugAlloc += alloc
			}
		}

		var total float64
		if driverAlloc > 0 {
			total = driverSum / mathutil.Pct(driverAlloc)
		} else {
			total = driverSum + explicitSum
			for _, id := range plugs {
				total += result.Value(id, year)
			}
			return StreamDiagnostics{Mode: ModeDriverSolve}
		}

		residual := total - driverSum - explicitSum
		if len(plugs) > 0 {
			for _, id := range plugs {
				share := 1.0 / float64(len(plugs))
				if plugAlloc > 0 {
					share = e.cfg.Allocation(streamID, id) / plugAlloc
				}
				result.set(id, year, residual*share)
			}
		}
		return StreamDiagnostics{Mode: ModeDriverSolve}
	}

	return StreamDiagnostics{Mode: ModeSummation}
}

// aggregate sets stream totals to the sum of their breakdowns and total
// revenue to the sum of the streams.
func (e *Engine) aggregate(result *Result, streams []*model.Row, year string) {
	if len(streams) == 0 {
		return
	}
	revTotal := 0.0
	for _, stream := range streams {
		breakdowns := e.cfg.Breakdowns[stream.ID]
		if len(breakdowns) > 0 {
			sum := 0.0
			for _, b := range breakdowns {
				sum += result.Value(b.ID, year)
			}
			result.set(stream.ID, year, sum)
		}
		revTotal += result.Value(stream.ID, year)
	}
	result.set(model.RowRevenue, year, revTotal)
}

// applyReferences recomputes every pct_of_total item whose reference is not
// its own parent stream, now that final totals exist. It returns the streams
// whose values were affected and must re-reconcile.
func (e *Engine) applyReferences(result *Result, streams []*model.Row, year string, yearIdx int) map[string]bool {
	affected := make(map[string]bool)

	apply := func(itemID, parentStreamID string) {
		cfg := e.cfg.Item(itemID)
		if cfg.Method != MethodPctOfTotal {
			return
		}
		ref := cfg.Inputs.ReferenceID
		if ref == "" || ref == parentStreamID {
			return
		}
		v := result.Value(ref, year) * mathutil.Pct(cfg.Inputs.Percent)
		if v == result.Value(itemID, year) {
			return
		}
		result.set(itemID, year, v)
		if parentStreamID != "" {
			affected[parentStreamID] = true
		} else {
			// A stream's own value changed; total revenue must re-sum.
			affected[itemID] = true
		}
	}

	for _, stream := range streams {
		breakdowns := e.cfg.Breakdowns[stream.ID]
		if len(breakdowns) == 0 {
			// A stream referencing total revenue or a sibling stream.
			if stream.ID != model.RowRevenue {
				apply(stream.ID, "")
			}
			continue
		}
		for _, b := range breakdowns {
			apply(b.ID, stream.ID)
		}
	}
	return affected
}

// distributeSubLines rescales product/channel lines so they sum exactly to
// the parent's reconciled total, absorbing compounding drift.
func (e *Engine) distributeSubLines(result *Result, streams []*model.Row, year string) {
	rescale := func(itemID string) {
		cfg := e.cfg.Item(itemID)
		if cfg.Method != MethodProductLine && cfg.Method != MethodChannel {
			return
		}
		lineSum := 0.0
		for _, line := range cfg.Inputs.Lines {
			lineSum += result.Value(line.ID, year)
		}
		if mathutil.IsZero(lineSum) {
			return
		}
		scale := result.Value(itemID, year) / lineSum
		for _, line := range cfg.Inputs.Lines {
			result.set(line.ID, year, result.Value(line.ID, year)*scale)
		}
	}

	for _, stream := range streams {
		rescale(stream.ID)
		for _, b := range e.cfg.Breakdowns[stream.ID] {
			rescale(b.ID)
		}
	}
	if len(streams) == 0 {
		rescale(model.RowRevenue)
	}
}
