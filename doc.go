// Package station is a human-in-the-loop hardware acceptance-test
// sequencer. It drives an ordered plan of test steps against a device under
// test, coordinating automated checks with synchronous operator interaction
// over a console channel, and always produces a run report.
package station

const (
	// Name identifies the service in logs and reports
	Name = "station"

	// Version is the current release version
	Version = "0.3.0"
)
