package repl

import (
	"sort"
	"strings"
)

// Completer suggests command names for a prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the given names.
func NewCompleter(commands ...string) *Completer {
	c := &Completer{}
	c.Add(commands...)
	return c
}

// Add registers names, keeping the list sorted and free of duplicates.
func (c *Completer) Add(commands ...string) {
	for _, cmd := range commands {
		i := sort.SearchStrings(c.commands, cmd)
		if i < len(c.commands) && c.commands[i] == cmd {
			continue
		}
		c.commands = append(c.commands, "")
		copy(c.commands[i+1:], c.commands[i:])
		c.commands[i] = cmd
	}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
