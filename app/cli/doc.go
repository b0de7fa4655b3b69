// Package cli turns command lines into command and query handler calls and their results into
// the messages the scheduler prints. The Dispatcher is shared by the interactive REPL and the
// HTTP surface, so both speak exactly the same line protocol.
package cli
