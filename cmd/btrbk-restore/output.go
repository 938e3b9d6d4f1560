package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pterm/pterm"
)

// printer styles console output with pterm on a terminal and falls back to
// plain text when stdout is piped.
type printer struct {
	out io.Writer
	tty bool
}

func (p printer) success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.tty {
		pterm.Success.WithWriter(p.out).Println(msg)
		return
	}
	fmt.Fprintf(p.out, "✓ %s\n", msg)
}

func (p printer) failure(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.tty {
		pterm.Error.WithWriter(p.out).Println(msg)
		return
	}
	fmt.Fprintf(p.out, "✗ %s\n", msg)
}

func (p printer) warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.tty {
		pterm.Warning.WithWriter(p.out).Println(msg)
		return
	}
	fmt.Fprintf(p.out, "! %s\n", msg)
}

func (p printer) info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.tty {
		pterm.Info.WithWriter(p.out).Println(msg)
		return
	}
	fmt.Fprintln(p.out, msg)
}

func (p printer) table(header []string, rows [][]string) error {
	if p.tty {
		data := pterm.TableData{header}
		data = append(data, rows...)
		return pterm.DefaultTable.WithHasHeader().WithWriter(p.out).WithData(data).Render()
	}
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}
