// Package repl provides the interactive browse mode of recofeed.
//
//   - repl.go: read-eval-print loop and command dispatch
//   - completer.go: prefix suggestions for command names
//   - history.go: command history persistence
package repl
