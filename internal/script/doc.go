/*
Package script defines the instruction set of a talkbot dialogue script and
the line-oriented parser that turns source text into a module graph.

A script is a sequence of module blocks:

	main {
	    output "Hello, what can I do for you?"
	    input
	    for /balance|money/ goto balance
	    default goto main
	}

Each non-blank line inside a block is exactly one instruction. The parser is
format-only: it performs no file I/O and does not check that jump targets
exist, which is left to the engine at execution time.
*/
package script
