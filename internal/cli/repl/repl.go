package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrQuit ends the loop when returned by a handler.
var ErrQuit = errors.New("quit")

// DefaultPrompt is shown before each line.
const DefaultPrompt = "recofeed> "

// Handler runs one command line. args excludes the command name.
type Handler func(ctx context.Context, args []string) error

// Command is a named handler.
type Command struct {
	Name  string
	Usage string
	Run   Handler
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	commands  map[string]Command
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt replaces DefaultPrompt.
func WithPrompt(prompt string) Option {
	return func(r *REPL) { r.prompt = prompt }
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// New creates a new REPL instance.
func New(opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    DefaultPrompt,
		commands:  make(map[string]Command),
		completer: NewCompleter("help", "exit", "quit"),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds commands. A later command replaces an earlier one of the
// same name.
func (r *REPL) Register(cmds ...Command) {
	for _, c := range cmds {
		r.commands[c.Name] = c
		r.completer.Add(c.Name)
	}
}

// History returns the history store.
func (r *REPL) History() *History {
	return r.history
}

// Run starts the REPL loop. It returns nil on exit, quit, ErrQuit or end of
// input, and ctx.Err() once ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err == io.EOF && strings.TrimSpace(line) == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}

		if err := r.execute(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	if name == "help" {
		r.help()
		return nil
	}

	cmd, ok := r.commands[name]
	if !ok {
		if s := r.completer.Complete(name); len(s) > 0 {
			return fmt.Errorf("unknown command %q, did you mean: %s", name, strings.Join(s, ", "))
		}
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd.Run(ctx, args)
}

func (r *REPL) help() {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(r.output, "  %-12s %s\n", name, r.commands[name].Usage)
	}
	fmt.Fprintf(r.output, "  %-12s %s\n", "help", "show this list")
	fmt.Fprintf(r.output, "  %-12s %s\n", "quit", "leave browse mode")
}
