package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
	err   error
}

func (f *fakeExec) Signup(ctx context.Context) error {
	f.calls = append(f.calls, "signup")
	return f.err
}
func (f *fakeExec) List(ctx context.Context) error { f.calls = append(f.calls, "list"); return f.err }
func (f *fakeExec) Ping(ctx context.Context) error { f.calls = append(f.calls, "ping"); return f.err }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprintln(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.Join([]string{
		"help",
		"",
		"signup",
		"l",
		"list",
		"ping",
		"foobar",
		"exit",
		"signup",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(online)" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{"signup", "list", "list", "ping"}, exec.calls)
	joined := strings.Join(*out, "")
	assert.Contains(t, joined, "Unknown command: foobar")
	assert.Contains(t, joined, "Bye!")
	assert.Contains(t, joined, "signup(online)> ")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("ping")))

	assert.Equal(t, []string{"ping"}, exec.calls)
}

func TestRunREPL_ReportsErrors(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{err: errors.New("server unavailable")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("ping\nexit\n")))

	assert.Contains(t, strings.Join(*out, ""), "Error: server unavailable")
}
