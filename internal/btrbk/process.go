// Package btrbk runs the backup tool and streams its output line by line.
package btrbk

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

var (
	ErrToolNotFound = errors.New("btrbk command not found")
	ErrCancelled    = errors.New("operation cancelled by user")
)

// RunArgs are the arguments used to create new snapshots.
var RunArgs = []string{"run", "--progress"}

type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Event is either one output line or, as the last event before the channel
// closes, the final status with Done set.
type Event struct {
	Line     string
	Stream   Stream
	Done     bool
	Err      error
	ExitCode int
}

type Process struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start launches tool with args. Consumers must drain Events until it is
// closed.
func Start(ctx context.Context, tool string, args ...string) (*Process, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return nil, errors.WithHint(errors.Wrap(ErrToolNotFound, tool), "install btrbk or set backup_tool in the config")
	}
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	// Signal the whole group so helpers such as mbuffer exit too.
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
	}
	cmd.WaitDelay = 3 * time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "stderr pipe")
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, errors.Wrapf(err, "start %s", tool)
	}
	p := &Process{
		events: make(chan Event, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run(ctx, cmd, stdout, stderr)
	return p, nil
}

func (p *Process) run(ctx context.Context, cmd *exec.Cmd, stdout, stderr io.ReadCloser) {
	defer p.cancel()
	defer close(p.done)
	defer close(p.events)

	// A killed child can leave grandchildren holding the pipes open; closing
	// our ends unblocks the readers.
	stop := context.AfterFunc(ctx, func() {
		_ = stdout.Close()
		_ = stderr.Close()
	})
	defer stop()

	var g errgroup.Group
	g.Go(func() error { return p.pump(ctx, stdout, Stdout) })
	g.Go(func() error { return p.pump(ctx, stderr, Stderr) })
	_ = g.Wait()

	waitErr := cmd.Wait()
	final := Event{Done: true}
	switch {
	case ctx.Err() != nil:
		final.Err = ErrCancelled
		final.ExitCode = -1
	case waitErr != nil:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			final.ExitCode = exitErr.ExitCode()
			final.Err = errors.Newf("btrbk completed with return code %d", final.ExitCode)
		} else {
			final.ExitCode = -1
			final.Err = errors.Wrap(waitErr, "wait for btrbk")
		}
	}
	p.err = final.Err
	p.events <- final
}

func (p *Process) pump(ctx context.Context, r io.Reader, s Stream) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(scanLinesOrCR)
	for sc.Scan() {
		line := string(bytes.TrimRight(sc.Bytes(), " \t"))
		if line == "" {
			continue
		}
		select {
		case p.events <- Event{Line: line, Stream: s}:
		case <-ctx.Done():
			return nil
		}
	}
	return sc.Err()
}

// scanLinesOrCR splits on \n, \r\n and bare \r; progress meters redraw with \r.
func scanLinesOrCR(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		adv := i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			adv++
		}
		return adv, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func (p *Process) Events() <-chan Event {
	return p.events
}

// Cancel terminates the child. The final event reports ErrCancelled.
func (p *Process) Cancel() {
	p.cancel()
}

// Wait blocks until the process has exited and the events are drained.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Run starts tool, hands every line to onLine and returns the final status.
func Run(ctx context.Context, tool string, onLine func(Event)) error {
	p, err := Start(ctx, tool, RunArgs...)
	if err != nil {
		return err
	}
	var final error
	for ev := range p.Events() {
		if ev.Done {
			final = ev.Err
			continue
		}
		if onLine != nil {
			onLine(ev)
		}
	}
	return final
}
