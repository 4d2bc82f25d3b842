// Package testutil contains helpers shared by the package tests: a
// thread-safe capture buffer, a logger-carrying context, temporary script
// fixtures and a harness that runs a script end to end.
package testutil
