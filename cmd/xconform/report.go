package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/runner"
)

// reporter prints results as they arrive. Styling is only applied when the
// output is a terminal.
type reporter struct {
	w      io.Writer
	styled bool

	pass lipgloss.Style
	fail lipgloss.Style
	skip lipgloss.Style
	dim  lipgloss.Style
	bold lipgloss.Style
}

func newReporter(w io.Writer, styled bool) *reporter {
	r := &reporter{w: w, styled: styled}
	if styled {
		r.pass = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
		r.fail = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
		r.skip = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		r.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
		r.bold = lipgloss.NewStyle().Bold(true)
	}
	return r
}

// stdoutReporter styles output when stdout is a terminal.
func stdoutReporter() *reporter {
	return newReporter(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
}

func (r *reporter) render(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *reporter) status(st runner.Status) string {
	switch st {
	case runner.StatusPassed:
		return r.render(r.pass, "PASS")
	case runner.StatusFailed:
		return r.render(r.fail, "FAIL")
	default:
		return r.render(r.skip, "SKIP")
	}
}

// result prints one line per test, followed by its failure messages.
func (r *reporter) result(res runner.Result) {
	name := res.Backend + "/" + res.Test
	switch res.Status {
	case runner.StatusSkipped:
		fmt.Fprintf(r.w, "%s  %s  %s\n", r.status(res.Status), name, r.render(r.dim, res.Error))
	case runner.StatusFailed:
		fmt.Fprintf(r.w, "%s  %s  %s\n", r.status(res.Status), name, r.render(r.dim, formatDuration(res.Duration)))
		if len(res.Messages) == 0 && res.Error != "" {
			fmt.Fprintf(r.w, "      %s\n", res.Error)
		}
		for _, msg := range res.Messages {
			for _, line := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
				fmt.Fprintf(r.w, "      %s\n", line)
			}
		}
		if res.Dir != "" {
			fmt.Fprintf(r.w, "      %s\n", r.render(r.dim, "log: "+filepath.Join(res.Dir, "log")))
		}
	default:
		fmt.Fprintf(r.w, "%s  %s  %s\n", r.status(res.Status), name, r.render(r.dim, formatDuration(res.Duration)))
	}
}

func (r *reporter) summary(sum *runner.Summary) {
	passed := sum.Count(runner.StatusPassed)
	failed := sum.Failed()
	skipped := sum.Count(runner.StatusSkipped)

	counts := fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped)
	if failed > 0 {
		counts = r.render(r.fail, counts)
	} else {
		counts = r.render(r.bold, counts)
	}
	fmt.Fprintf(r.w, "\n%s in %s\n", counts, formatDuration(sum.Duration))

	where := sum.Dir
	if size, err := dirSize(sum.Dir); err == nil {
		where = fmt.Sprintf("%s (%s)", sum.Dir, humanize.Bytes(uint64(size)))
	}
	fmt.Fprintf(r.w, "%s\n", r.render(r.dim, "results: "+where))
}

// list prints the registered tests and whether be supports them.
func (r *reporter) list(tests []runner.Test, be backend.Backend) {
	width := 0
	for _, tc := range tests {
		width = max(width, len(tc.Name))
	}
	for _, tc := range tests {
		mark := r.render(r.pass, "+")
		if missing := be.Flags().Missing(tc.Flags); missing != 0 {
			mark = r.render(r.skip, "-")
		}
		line := fmt.Sprintf("%s %-*s  %s", mark, width, tc.Name, tc.Description)
		if tc.Flags != 0 {
			line += "  " + r.render(r.dim, "["+tc.Flags.String()+"]")
		}
		fmt.Fprintln(r.w, line)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}
