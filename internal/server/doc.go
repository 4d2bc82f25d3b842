// Package server exposes dialogue scripts over socket.io. Every connected
// client gets its own engine.Session; the parsed script is shared between
// them read-only.
//
// Protocol, from the client's point of view:
//
//	emit  "input"    <line>     one line for the next input instruction
//	on    "output"   <line>     one line per output instruction
//	on    "exit"                the script reached exit
//	on    "failure"  <message>  the script stopped on an error
//	on    "rejected" <line>     the input line was dropped
//
// A session buffers up to 32 input lines ahead of the script; a line sent
// while the buffer is full is dropped and returned as "rejected". The
// server disconnects the client after "exit" or "failure".
package server
