package repl

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func newTestREPL(input string) (*REPL, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(WithIO(strings.NewReader(input), out)), out
}

func TestNew(t *testing.T) {
	r := New()
	if r.completer == nil {
		t.Error("completer should be initialized")
	}
	if r.history == nil {
		t.Error("history should be initialized")
	}
	if r.prompt != DefaultPrompt {
		t.Errorf("prompt = %q, want %q", r.prompt, DefaultPrompt)
	}
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit command", "exit\n"},
		{"quit command", "quit\n"},
		{"EOF", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestREPL(tt.input)
			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() returned error: %v", err)
			}
		})
	}
}

func TestREPL_Run_EmptyLines(t *testing.T) {
	r, out := newTestREPL("\n\n\nexit\n")
	if err := r.Run(context.Background()); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}

	if prompts := strings.Count(out.String(), DefaultPrompt); prompts < 4 {
		t.Errorf("expected at least 4 prompts, got %d", prompts)
	}
}

func TestREPL_Run_Dispatch(t *testing.T) {
	var calls [][]string
	r, _ := newTestREPL("more\nshow recs wide\nexit\n")
	r.Register(
		Command{Name: "more", Run: func(_ context.Context, args []string) error {
			calls = append(calls, append([]string{"more"}, args...))
			return nil
		}},
		Command{Name: "show", Run: func(_ context.Context, args []string) error {
			calls = append(calls, append([]string{"show"}, args...))
			return nil
		}},
	)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := [][]string{{"more"}, {"show", "recs", "wide"}}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestREPL_Run_HandlerError(t *testing.T) {
	r, out := newTestREPL("boom\nexit\n")
	r.Register(Command{Name: "boom", Run: func(context.Context, []string) error {
		return errors.New("fetch failed")
	}})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Error: fetch failed") {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_Run_ErrQuit(t *testing.T) {
	ran := false
	r, _ := newTestREPL("leave\nafter\n")
	r.Register(
		Command{Name: "leave", Run: func(context.Context, []string) error { return ErrQuit }},
		Command{Name: "after", Run: func(context.Context, []string) error { ran = true; return nil }},
	)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ran {
		t.Error("commands after ErrQuit should not run")
	}
}

func TestREPL_Run_UnknownSuggests(t *testing.T) {
	r, out := newTestREPL("re\nzzz\nexit\n")
	r.Register(Command{Name: "reload", Run: func(context.Context, []string) error { return nil }})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "did you mean: reload") {
		t.Errorf("missing suggestion in %q", out.String())
	}
	if !strings.Contains(out.String(), `unknown command "zzz"`) {
		t.Errorf("missing unknown command error in %q", out.String())
	}
}

func TestREPL_Run_Help(t *testing.T) {
	r, out := newTestREPL("help\nexit\n")
	r.Register(Command{Name: "more", Usage: "load the next page", Run: func(context.Context, []string) error { return nil }})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "load the next page") {
		t.Errorf("help output = %q", out.String())
	}
}

func TestREPL_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := newTestREPL("more\n")
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestREPL_Run_WhitespaceHandling(t *testing.T) {
	r, _ := newTestREPL("  command  \n\texit\t\n")
	r.Register(Command{Name: "command", Run: func(context.Context, []string) error { return nil }})

	if err := r.Run(context.Background()); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}
	if r.History().Get(0) != "exit" {
		t.Errorf("command not trimmed properly: %q", r.History().Get(0))
	}
	if r.History().Get(1) != "command" {
		t.Errorf("command not trimmed properly: %q", r.History().Get(1))
	}
}

func TestREPL_Run_LastLineWithoutNewline(t *testing.T) {
	ran := false
	r, _ := newTestREPL("more")
	r.Register(Command{Name: "more", Run: func(context.Context, []string) error { ran = true; return nil }})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !ran {
		t.Error("final line without newline should run")
	}
}
