// Package api defines the core data types for the acceptance-test station
//
// This package contains all the shared types used across the sequencer,
// including step metadata, operator interaction requests and responses,
// per-step execution records, run reports, and console protocol messages
package api
