// Package render prints per-fixture reports and the batch summary.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"fixrun/internal/compare"
	"fixrun/internal/domain/execution"
)

const (
	// DefaultWidth is used when the terminal width cannot be determined.
	DefaultWidth = 80
	// MinWidth keeps the two diff columns readable. Narrower widths still
	// apply to headers and rules.
	MinWidth = 20

	ruleChar       = "="
	identicalLabel = "identical"
	tabWidth       = 4
)

// Options control presentation only; they never influence classification.
type Options struct {
	Width       int
	SummaryOnly bool
	Color       bool
}

// Renderer writes human-readable reports to out.
type Renderer struct {
	out         io.Writer
	width       int
	summaryOnly bool
	styles      styles
}

// New constructs a Renderer.
func New(out io.Writer, opts Options) *Renderer {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	return &Renderer{
		out:         out,
		width:       width,
		summaryOnly: opts.SummaryOnly,
		styles:      newStyles(out, opts.Color),
	}
}

// Width returns the rendering width.
func (r *Renderer) Width() int {
	return r.width
}

// Header prints a rule of exactly Width cells with name left-anchored.
func (r *Renderer) Header(name string) {
	prefix := ruleChar + ruleChar + " "
	if r.width < len(prefix)+2 {
		label := runewidth.Truncate(name, r.width, "")
		r.println(r.styles.header.Render(label) +
			r.styles.rule.Render(strings.Repeat(ruleChar, r.width-runewidth.StringWidth(label))))
		return
	}
	label := runewidth.Truncate(name, r.width-len(prefix)-1, "")
	used := len(prefix) + runewidth.StringWidth(label) + 1
	line := r.styles.rule.Render(prefix) +
		r.styles.header.Render(label) +
		r.styles.rule.Render(" "+strings.Repeat(ruleChar, r.width-used))
	r.println(line)
}

// Body prints the aligned diff, or nothing in summary-only mode.
func (r *Renderer) Body(diff compare.Diff) {
	if r.summaryOnly {
		return
	}
	if diff.Identical {
		r.println(r.styles.good.Render(identicalLabel))
		return
	}
	for _, line := range r.diffLines(diff) {
		r.println(line)
	}
}

// Timing prints the wall-clock line together with the verdict.
func (r *Renderer) Timing(v execution.Verdict) {
	var b strings.Builder
	fmt.Fprintf(&b, "Time: %s", formatDuration(v.Duration))
	if v.TimedOut {
		b.WriteString(" (time limit exceeded)")
	} else if v.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit status %d)", v.ExitCode)
	}
	b.WriteString("  ")
	r.println(b.String() + r.classification(v.Classification))
}

// FixtureError reports a fixture that could not be run or compared.
func (r *Renderer) FixtureError(err error) {
	r.println(r.styles.bad.Render("error: ") + err.Error())
}

// Summary prints the batch totals and the names of Bad fixtures.
func (r *Renderer) Summary(s execution.RunSummary) {
	r.println(r.styles.rule.Render(strings.Repeat(ruleChar, r.width)))
	r.println(fmt.Sprintf("%s %d/%d; %s %d/%d; %s %d/%d",
		r.styles.good.Render("Good:"), s.Good, s.Total,
		r.styles.bad.Render("Bad:"), s.Bad, s.Total,
		r.styles.unknown.Render("Unknown:"), s.Unknown, s.Total,
	))
	if len(s.BadFixtures) > 0 {
		r.println(r.styles.bad.Render("Bad fixtures:") + " " + strings.Join(s.BadFixtures, " "))
	}
}

// Error prints a fatal error. Compiler diagnostics are reproduced verbatim.
func (r *Renderer) Error(err error) {
	var compileErr *execution.CompileError
	if errors.As(err, &compileErr) && compileErr.Output != "" {
		fmt.Fprint(r.out, compileErr.Output)
		if !strings.HasSuffix(compileErr.Output, "\n") {
			fmt.Fprintln(r.out)
		}
	}
	r.println(r.styles.bad.Render("error: ") + err.Error())
}

func (r *Renderer) classification(c execution.Classification) string {
	switch c {
	case execution.Good:
		return r.styles.good.Render(string(c))
	case execution.Bad:
		return r.styles.bad.Render(string(c))
	default:
		return r.styles.unknown.Render(string(c))
	}
}

// diffLines lays out the rows in two columns separated by a three-cell
// marker gutter. Cells wider than a column are truncated, except unnumbered
// notes in the right column, which end the line.
func (r *Renderer) diffLines(diff compare.Diff) []string {
	numWidth := numberWidth(diff.Rows)
	colWidth := (max(r.width, MinWidth) - 3) / 2

	lines := make([]string, 0, len(diff.Rows))
	for _, row := range diff.Rows {
		leftStyle, rightStyle, markStyle := r.styles.muted, r.styles.muted, r.styles.muted
		switch row.Mark {
		case compare.MarkSame:
			leftStyle, rightStyle = r.styles.plain, r.styles.plain
		case compare.MarkChanged:
			leftStyle, rightStyle, markStyle = r.styles.leftOnly, r.styles.rightOnly, r.styles.changed
		case compare.MarkLeftOnly:
			leftStyle, markStyle = r.styles.leftOnly, r.styles.leftOnly
		case compare.MarkRightOnly:
			rightStyle, markStyle = r.styles.rightOnly, r.styles.rightOnly
		}

		leftNum, leftText := cellParts(row.Left, numWidth, colWidth)
		rightLimit := colWidth
		if row.Right.Number == 0 {
			rightLimit = -1
		}
		rightNum, rightText := cellParts(row.Right, numWidth, rightLimit)

		line := r.styles.number.Render(leftNum) + leftStyle.Render(leftText) +
			strings.Repeat(" ", colWidth-runewidth.StringWidth(leftNum+leftText)) +
			" " + markStyle.Render(string(row.Mark)) + " " +
			r.styles.number.Render(rightNum) + rightStyle.Render(rightText)
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}

// cellParts splits a line into its number gutter and text, together at most
// limit cells wide. A negative limit keeps the text whole.
func cellParts(line compare.Line, numWidth, limit int) (number, text string) {
	text = strings.ReplaceAll(strings.TrimRight(line.Text, "\r"), "\t", strings.Repeat(" ", tabWidth))
	switch {
	case line.Number > 0:
		number = fmt.Sprintf("%*d  ", numWidth, line.Number)
	case text != "":
		number = strings.Repeat(" ", numWidth+2)
	}
	if limit < 0 {
		return number, text
	}
	number = runewidth.Truncate(number, limit, "")
	text = runewidth.Truncate(text, limit-runewidth.StringWidth(number), "")
	return number, text
}

func (r *Renderer) println(s string) {
	fmt.Fprintln(r.out, s)
}

func numberWidth(rows []compare.Row) int {
	maxNumber := 0
	for _, row := range rows {
		if row.Left.Number > maxNumber {
			maxNumber = row.Left.Number
		}
		if row.Right.Number > maxNumber {
			maxNumber = row.Right.Number
		}
	}
	width := len(fmt.Sprint(maxNumber))
	if width < 3 {
		width = 3
	}
	return width
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
