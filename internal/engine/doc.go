// Package engine runs parsed dialogue scripts. A Session is the execution
// context of one dialogue: it owns the current-module pointer and the
// variable store, walks module bodies top to bottom, and switches modules
// whenever an instruction transitions.
//
// The *script.Script handed to a session is only read, so one script can
// back any number of concurrent sessions as long as each has its own
// Session value.
package engine
