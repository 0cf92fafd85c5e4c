package logic

// Threshold derives the trial comparison threshold for a target rate. A
// trial is a hit when the drawn value is strictly below the threshold, so
// the per-trial hit probability is threshold/2^32.
func Threshold(cpm uint32) uint32 {
	return cpm * ScaleConstant
}

// Rate holds the active rate preset and its derived trial threshold.
// Toggle is the sole mutator of the threshold; it is invoked only on a
// debounced press edge.
type Rate struct {
	setting   Setting
	fast      uint32 // target cpm per preset
	slow      uint32
	threshold uint32
}

// NewRate creates a rate controller starting on the fast preset.
func NewRate(fastCPM, slowCPM uint32) *Rate {
	return &Rate{
		setting:   SettingFast,
		fast:      fastCPM,
		slow:      slowCPM,
		threshold: Threshold(fastCPM),
	}
}

// Toggle flips the active preset and recomputes the threshold, returning
// the new setting. One edge, one toggle — regardless of hold duration.
func (r *Rate) Toggle() Setting {
	if r.setting == SettingFast {
		r.setting = SettingSlow
	} else {
		r.setting = SettingFast
	}
	r.threshold = Threshold(r.TargetCPM())
	return r.setting
}

// Setting returns the active preset.
func (r *Rate) Setting() Setting { return r.setting }

// Threshold returns the trial threshold for the active preset.
func (r *Rate) Threshold() uint32 { return r.threshold }

// TargetCPM returns the target counts-per-minute of the active preset.
func (r *Rate) TargetCPM() uint32 {
	if r.setting == SettingFast {
		return r.fast
	}
	return r.slow
}
