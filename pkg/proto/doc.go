// Package proto implements the line-oriented wire protocol: grammar,
// parsing and formatting of every message variant a connection handler or
// dispatcher exchanges with a client (spec.md §4.1). A Msg is a single Go
// struct carrying a Kind discriminant plus whichever fields that Kind uses,
// rather than one struct type per verb — Parse and Format are the only two
// functions that need to know which fields apply to which Kind.
package proto
