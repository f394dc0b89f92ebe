// Package report persists and presents completed run records: a local
// history database for the station's REST surface, a bucket archiver for
// off-station retention, and a plain-text rendering for operators
package report
