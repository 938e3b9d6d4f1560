package safety

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type Options struct {
	// Yes answers every prompt affirmatively.
	Yes bool
	// Skip bypasses the prompt when confirm_actions is off.
	Skip bool
}

// Confirm asks question on out and reads a y/N answer from in.
// Anything other than y or yes declines, including EOF.
func Confirm(opts Options, in io.Reader, out io.Writer, question string) (bool, error) {
	if opts.Yes || opts.Skip {
		return true, nil
	}
	if out != nil {
		fmt.Fprintf(out, "%s [y/N]: ", strings.TrimSpace(question))
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	ok, _ := ParseYesNo(line)
	return ok, nil
}

// ParseYesNo reports the answer and whether v was a recognised answer.
func ParseYesNo(v string) (answer bool, known bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	default:
		return false, false
	}
}
