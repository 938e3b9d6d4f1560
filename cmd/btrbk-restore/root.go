package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"btrbk-restore/internal/app"
	"btrbk-restore/internal/btrbk"
	"btrbk-restore/internal/config"
	"btrbk-restore/internal/doctor"
	"btrbk-restore/internal/logging"
	"btrbk-restore/internal/oplog"
	"btrbk-restore/internal/safety"
)

// Command annotations read by setup.
const (
	skipRootCheck  = "skip-root-check"
	skipConfigLoad = "skip-config-load"
)

const rootMessage = "Error: This tool requires root privileges. Please run with sudo."

// cli carries the process environment and the global flags shared by every
// command.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	tty    bool

	euid     func() int
	exec     app.CommandRunner
	lookPath func(string) (string, error)
	isBtrfs  func(string) (bool, error)
	start    func(ctx context.Context, tool string, args ...string) (*btrbk.Process, error)

	yes        bool
	dryRun     bool
	debug      bool
	configPath string

	cfg   config.Config
	log   *zap.Logger
	oplog oplog.Log
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{
		in:       in,
		out:      out,
		errOut:   errOut,
		tty:      isTerminal(out),
		euid:     doctor.Geteuid,
		exec:     app.ExecRunner{},
		lookPath: exec.LookPath,
		isBtrfs:  doctor.IsBtrfs,
		start:    btrbk.Start,
		log:      zap.NewNop(),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// usageError marks bad invocations; they exit with code 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func isUsageError(err error) bool {
	var ue usageError
	if errors.As(err, &ue) {
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   app.Name,
		Short: "Browse btrbk snapshots and restore them over live btrfs subvolumes",
		Long: "Runs the interactive TUI when no command is given.\n" +
			"Restoring renames the live subvolume to <prefix>.BROKEN.<timestamp>,\n" +
			"snapshots the chosen btrbk snapshot into its place and rolls back on failure.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd.Context())
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.log.Sync()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.yes, "yes", "y", false, "Assume 'yes' to prompts and run non-interactively")
	pf.BoolVar(&c.dryRun, "dry-run", false, "Print the commands that would run without changing anything")
	pf.BoolVar(&c.debug, "debug", false, "Debug logging, also to stderr outside the TUI")
	pf.StringVar(&c.configPath, "config", "", "Config file (default ~/.config/btrbk_restore/config.json)")

	root.AddCommand(
		c.newListCmd(),
		c.newRestoreCmd(),
		c.newPurgeCmd(),
		c.newCleanBrokenCmd(),
		c.newSnapshotCmd(),
		c.newConfigCmd(),
		c.newThemeCmd(),
		c.newLogCmd(),
		c.newDoctorCmd(),
		c.newVersionCmd(),
	)
	return root
}

// setup runs before every command: config path, logger, root check and
// config load, in that order.
func (c *cli) setup(cmd *cobra.Command) error {
	if c.configPath != "" {
		config.SetPath(c.configPath)
	}
	tui := !cmd.HasParent()
	log, err := logging.New(logging.Options{Dir: app.LogDir(), Debug: c.debug, Stderr: c.debug && !tui})
	if err != nil {
		fmt.Fprintf(c.errOut, "warning: logging disabled: %v\n", err)
		log = zap.NewNop()
	}
	c.log = log.With(zap.String("command", cmd.CommandPath()))
	c.oplog = oplog.Log{Dir: app.LogDir()}

	if cmd.Annotations[skipRootCheck] == "" && cmd.Name() != "help" {
		if err := doctor.RequireRoot(c.euid()); err != nil {
			return err
		}
	}
	if cmd.Annotations[skipConfigLoad] != "" || cmd.Name() == "help" {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		// An unwritable config dir must not block read-only commands.
		c.log.Warn("load config", zap.Error(err))
		cfg = config.Default()
	}
	c.cfg = cfg
	return nil
}

// runner is the command runner for state-changing work; --dry-run prints
// instead of executing, except for read-only btrfs queries.
func (c *cli) runner() app.CommandRunner {
	if c.dryRun {
		return app.DryRunner{Out: c.out, Next: c.exec, Passthrough: app.ReadOnlyBtrfs}
	}
	return c.exec
}

func (c *cli) safety() safety.Options {
	return safety.Options{Yes: c.yes, Skip: !c.cfg.ConfirmActions}
}

func (c *cli) printer() printer {
	return printer{out: c.out, tty: c.tty}
}

// lock takes the single-instance lock; dry runs change nothing and skip it.
func (c *cli) lock() (*app.Lock, error) {
	if c.dryRun {
		return nil, nil
	}
	return app.AcquireLock(app.LockPath())
}

// Execute runs the CLI with the process stdio and returns the exit code.
func Execute() int {
	return run(newCLI(os.Stdin, os.Stdout, os.Stderr), os.Args[1:])
}

func run(c *cli, args []string) int {
	root := c.newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	if errors.Is(err, doctor.ErrNotRoot) {
		fmt.Fprintln(c.errOut, rootMessage)
		return 1
	}
	fmt.Fprintf(c.errOut, "error: %v\n", err)
	for _, h := range errors.GetAllHints(err) {
		fmt.Fprintf(c.errOut, "hint: %s\n", h)
	}
	if isUsageError(err) {
		fmt.Fprintf(c.errOut, "Run '%s --help' for usage.\n", app.Name)
		return 2
	}
	return 1
}
