package btrbk

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func collect(t *testing.T, p *Process) ([]Event, Event) {
	t.Helper()
	var lines []Event
	var final Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-p.Events():
			if !ok {
				return lines, final
			}
			if ev.Done {
				final = ev
				continue
			}
			lines = append(lines, ev)
		case <-timeout:
			t.Fatal("timed out waiting for process events")
		}
	}
}

func TestStartStreamsBothOutputs(t *testing.T) {
	p, err := Start(context.Background(), "sh", "-c", "echo first; echo second >&2; printf 'a\\rb\\n'")
	if err != nil {
		t.Fatal(err)
	}
	lines, final := collect(t, p)
	if final.Err != nil || final.ExitCode != 0 {
		t.Fatalf("unexpected final event: %+v", final)
	}
	var stdout, stderr []string
	for _, ev := range lines {
		if ev.Stream == Stderr {
			stderr = append(stderr, ev.Line)
		} else {
			stdout = append(stdout, ev.Line)
		}
	}
	if !reflect.DeepEqual(stdout, []string{"first", "a", "b"}) {
		t.Fatalf("unexpected stdout lines: %v", stdout)
	}
	if !reflect.DeepEqual(stderr, []string{"second"}) {
		t.Fatalf("unexpected stderr lines: %v", stderr)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestStartReportsExitCode(t *testing.T) {
	p, err := Start(context.Background(), "sh", "-c", "echo boom; exit 3")
	if err != nil {
		t.Fatal(err)
	}
	_, final := collect(t, p)
	if final.ExitCode != 3 || final.Err == nil {
		t.Fatalf("expected exit code 3, got %+v", final)
	}
	if !strings.Contains(final.Err.Error(), "return code 3") {
		t.Fatalf("unexpected error text: %v", final.Err)
	}
}

func TestCancelTerminatesChild(t *testing.T) {
	p, err := Start(context.Background(), "sh", "-c", "echo started; sleep 30")
	if err != nil {
		t.Fatal(err)
	}
	first := <-p.Events()
	if first.Line != "started" {
		t.Fatalf("unexpected first event: %+v", first)
	}
	p.Cancel()
	_, final := collect(t, p)
	if !errors.Is(final.Err, ErrCancelled) {
		t.Fatalf("expected cancellation, got %+v", final)
	}
	if !errors.Is(p.Wait(), ErrCancelled) {
		t.Fatalf("Wait should report cancellation")
	}
}

func TestStartMissingTool(t *testing.T) {
	_, err := Start(context.Background(), "btrbk-restore-no-such-tool")
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRunDeliversLines(t *testing.T) {
	var got []string
	// "sh run --progress" fails: sh looks for a script named "run".
	err := Run(context.Background(), "sh", func(ev Event) { got = append(got, ev.Line) })
	if err == nil {
		t.Fatalf("expected non-zero exit from sh")
	}
	if len(got) == 0 {
		t.Fatalf("expected the shell's error line to be streamed")
	}
}

func TestIsProgress(t *testing.T) {
	if !IsProgress("in @ 12.0 MiB/s, out @ 11.8 MiB/s, 1.2 GiB total, buffer 0% full") {
		t.Fatalf("mbuffer meter should be progress")
	}
	if IsProgress("Creating subvolume snapshot for: /mnt/btr_pool/@home") {
		t.Fatalf("plain line should not be progress")
	}
	if IsProgress("login without logout") {
		t.Fatalf("markers must be whole words")
	}
}

func TestTranscriptReplacesProgressLines(t *testing.T) {
	var tr Transcript
	tr.Add("Creating backup")
	tr.Add("in @ 1 MiB/s, out @ 1 MiB/s")
	tr.Add("in @ 2 MiB/s, out @ 2 MiB/s")
	tr.Add("done")
	tr.Add("in @ 3 MiB/s, out @ 3 MiB/s")
	want := []string{"Creating backup", "in @ 2 MiB/s, out @ 2 MiB/s", "done", "in @ 3 MiB/s, out @ 3 MiB/s"}
	if !reflect.DeepEqual(tr.Lines(), want) {
		t.Fatalf("unexpected transcript: %v", tr.Lines())
	}
}

func TestTranscriptLimit(t *testing.T) {
	tr := Transcript{Limit: 2}
	tr.Add("a")
	tr.Add("b")
	tr.Add("c")
	if !reflect.DeepEqual(tr.Lines(), []string{"b", "c"}) {
		t.Fatalf("unexpected lines: %v", tr.Lines())
	}
}
