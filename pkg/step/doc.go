// Package step is the authoring surface for acceptance-test steps
//
// Test authors implement the Step interface, register factories and static
// metadata in a Registry, and receive a Context at run time exposing the
// shared run state, the operator console, and the secret store. A step
// passes by returning nil, fails by returning an error built with Fail or
// Failf, and errors by returning anything else
package step
