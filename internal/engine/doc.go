// Package engine implements the run sequencer: it drives one run's plan
// through strictly sequential step execution, classifies every outcome,
// enforces stop-on-fail, guarantees the finalizer, and assembles the
// complete run record
package engine
