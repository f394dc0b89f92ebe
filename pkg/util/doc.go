// Package util provides common utility data structures
//
// This package includes the generic set implementation used for validation
// and bookkeeping throughout the station sequencer
package util
