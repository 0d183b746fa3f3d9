// Package viz renders validation diagnostics: per-variable images comparing
// denormalized ground-truth profiles against predictions, keyed by epoch.
// The evaluator decides what to visualize; this package decides how.
package viz

// ProfileSpec describes one diagnostic image: all validation samples of one
// physical variable, truth and prediction, in physical space.
type ProfileSpec struct {
	Epoch    int
	Variable string
	// Truth and Pred are per-sample profiles (samples × positions).
	Truth [][]float64
	Pred  [][]float64
	// Display hints: vertical axis limits and log-scale flag.
	YMin, YMax float64
	LogScale   bool
}

// Sink consumes profile diagnostics. Implementations must be safe to call
// once per variable per visualization epoch.
type Sink interface {
	SaveProfiles(spec ProfileSpec) error
}

// DiscardSink drops all diagnostics; used in tests and benchmark runs.
type DiscardSink struct{}

// SaveProfiles implements Sink.
func (DiscardSink) SaveProfiles(ProfileSpec) error { return nil }
