package logic

import (
	"errors"
	"time"

	"github.com/louisbertrand/pulsemaker/internal/timer"
)

// ErrNoSource is returned when an engine is constructed without a seeded
// random source. Pulse generation has no defined statistical behavior in
// that state, so startup must fail instead.
var ErrNoSource = errors.New("logic: pulse engine requires a seeded random source")

// Engine is the pulse-scheduling core. Each Step consumes one control-loop
// sample and resolves, in fixed order: button edge, pulse-width hold,
// Bernoulli trial, indicator hold, report window. All state is owned by the
// single control loop; nothing here is safe for concurrent use.
type Engine struct {
	cfg  Config
	src  Source
	deb  *Debouncer
	rate *Rate

	trial     *timer.Timer
	indicator *timer.Timer
	report    *timer.Timer

	// pulse-width hold, expressed as a deadline against the injected
	// clock rather than a blocking delay
	holdUntil time.Time
	holding   bool

	start  time.Time
	count  uint32 // pulses in the current report window
	totals Totals
}

// NewEngine creates an engine whose timers are measured from start. The
// source must be non-nil and seeded.
func NewEngine(src Source, cfg Config, start time.Time) (*Engine, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	return &Engine{
		cfg:       cfg,
		src:       src,
		deb:       NewDebouncer(cfg.Debounce),
		rate:      NewRate(cfg.FastCPM, cfg.SlowCPM),
		trial:     timer.New(cfg.TrialPeriod, start),
		indicator: timer.New(cfg.IndicatorHold, start),
		report:    timer.New(cfg.ReportWindow, start),
		start:     start,
	}, nil
}

// Step advances the engine by one control-loop iteration.
//
// A toggle edge arriving in the same iteration as a trial fire is applied
// before the trial is evaluated, so the new rate takes effect immediately.
func (e *Engine) Step(in Input) Output {
	var out Output

	if e.deb.Process(in.RawPressed, in.Time) {
		e.rate.Toggle()
		e.totals.Toggles++
		out.Toggled = true
	}
	out.Setting = e.rate.Setting()

	// deassert a previous pulse before possibly starting a new one
	if e.holding && !in.Time.Before(e.holdUntil) {
		e.holding = false
		out.PulseEnd = true
	}

	if e.trial.OnRestart(in.Time) {
		if e.src.Uint32() < e.rate.Threshold() {
			out.Pulse = true
			e.holding = true
			e.holdUntil = in.Time.Add(e.cfg.PulseWidth)
			e.indicator.Restart(in.Time)
			e.count++
			e.totals.Pulses++
		}
	}

	if e.indicator.OnExpired(in.Time) {
		out.IndicatorOff = true
	}

	if e.report.OnRestart(in.Time) {
		out.Report = &Record{
			Elapsed: in.Time.Sub(e.start),
			Count:   e.count,
			Setting: e.rate.Setting(),
		}
		e.count = 0
		e.totals.Windows++
	}

	return out
}

// Setting returns the active rate preset.
func (e *Engine) Setting() Setting { return e.rate.Setting() }

// Threshold returns the active trial threshold.
func (e *Engine) Threshold() uint32 { return e.rate.Threshold() }

// TargetCPM returns the nominal rate of the active preset.
func (e *Engine) TargetCPM() uint32 { return e.rate.TargetCPM() }

// Baselined reports whether the button debouncer has established its
// initial level.
func (e *Engine) Baselined() bool { return e.deb.Baselined() }

// WindowCount returns the pulses counted so far in the open window.
func (e *Engine) WindowCount() uint32 { return e.count }

// Totals returns lifetime counters for status reporting.
func (e *Engine) Totals() Totals { return e.totals }
