// Package server implements the station's HTTP surface: run control and
// history over REST, and the operator console over WebSocket
package server
