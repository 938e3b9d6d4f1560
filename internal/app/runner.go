package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, errors.Wrapf(err, "%s: %s", name, strings.TrimSpace(stderr.String()))
		}
		return nil, errors.Wrap(err, name)
	}
	return stdout.Bytes(), nil
}

// DryRunner prints every command instead of running it. Read-only commands
// listed in Passthrough are still executed through Next.
type DryRunner struct {
	Out         io.Writer
	Next        CommandRunner
	Passthrough func(name string, args []string) bool
}

func (d DryRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if d.Next != nil && d.Passthrough != nil && d.Passthrough(name, args) {
		return d.Next.Run(ctx, name, args...)
	}
	if d.Out != nil {
		fmt.Fprintf(d.Out, "[dry-run] %s\n", strings.Join(append([]string{name}, args...), " "))
	}
	return nil, nil
}

// ReadOnlyBtrfs reports whether a command only inspects state.
func ReadOnlyBtrfs(name string, args []string) bool {
	return name == "btrfs" && len(args) >= 2 && args[0] == "subvolume" && args[1] == "show"
}
