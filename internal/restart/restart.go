// Package restart triggers the host's restart once the pet has changed form.
package restart

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
)

// Restarter is the one-way restart trigger. After a successful call the host
// is expected to relaunch a fresh process.
type Restarter interface {
	Restart(ctx context.Context) error
}

// DefaultCommand restarts the host service.
var DefaultCommand = []string{"systemctl", "restart", "pwnagotchi"}

// Runner executes a command. Tests substitute it.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Command restarts the host by running a command, optionally after `sync`.
type Command struct {
	Argv   []string
	Sync   bool
	runner Runner
}

// NewCommand creates a Command. An empty argv means DefaultCommand.
func NewCommand(argv []string, sync bool) *Command {
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	return &Command{Argv: argv, Sync: sync, runner: execRunner}
}

// WithRunner replaces the process runner.
func (c *Command) WithRunner(r Runner) *Command {
	c.runner = r
	return c
}

// Restart flushes filesystems when configured, then runs the restart command.
// A failed sync is not fatal to the restart.
func (c *Command) Restart(ctx context.Context) error {
	if c.Sync {
		_, _ = c.runner(ctx, "sync")
	}
	out, err := c.runner(ctx, c.Argv[0], c.Argv[1:]...)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRestart, "restart command failed").
			NextTick().
			WithContext("command", strings.Join(c.Argv, " ")).
			WithContext("output", strings.TrimSpace(string(out))).
			Build()
	}
	return nil
}

func (c *Command) String() string {
	return fmt.Sprintf("command(%s)", strings.Join(c.Argv, " "))
}

// Noop records restart requests without acting on them (dry runs, one-shot
// CLI commands, tests).
type Noop struct {
	Calls int
}

func (n *Noop) Restart(context.Context) error {
	n.Calls++
	return nil
}

// Func adapts a function to Restarter.
type Func func(ctx context.Context) error

func (f Func) Restart(ctx context.Context) error { return f(ctx) }
