// Package vars holds the per-session variable store together with the two
// operations that read it: ${name} interpolation for output text and the
// assignment evaluator behind the eval instruction.
package vars
