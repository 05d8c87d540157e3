package compare

import "github.com/sergi/go-diff/diffmatchpatch"

// Mark tags a row of the side-by-side view.
type Mark byte

const (
	MarkSame      Mark = ' '
	MarkChanged   Mark = '|'
	MarkLeftOnly  Mark = '<'
	MarkRightOnly Mark = '>'
)

// Line is one numbered line of either side. Number is zero for rows that do
// not come from a file, such as the no-ground-truth note or a blank cell.
type Line struct {
	Number int
	Text   string
}

// Row pairs the actual output (Left) with the expected side (Right).
type Row struct {
	Mark  Mark
	Left  Line
	Right Line
}

// Diff is an aligned, line-numbered comparison of two texts.
type Diff struct {
	Identical bool
	Rows      []Row
}

// Align compares left and right ignoring trailing whitespace and pairs up
// their lines using a line-mode diff.
func Align(left, right string) Diff {
	leftLines, rightLines := splitLines(left), splitLines(right)
	diff := Diff{Identical: Equal(left, right)}

	enc := lineEncoder{codes: make(map[string]rune)}
	a, b := enc.encode(leftLines), enc.encode(rightLines)
	diffs := diffmatchpatch.New().DiffMainRunes(a, b, false)

	var li, ri int
	var pendingLeft, pendingRight []Line
	flush := func() {
		n := len(pendingLeft)
		if len(pendingRight) > n {
			n = len(pendingRight)
		}
		for k := 0; k < n; k++ {
			row := Row{Mark: MarkChanged}
			switch {
			case k >= len(pendingRight):
				row.Mark = MarkLeftOnly
				row.Left = pendingLeft[k]
			case k >= len(pendingLeft):
				row.Mark = MarkRightOnly
				row.Right = pendingRight[k]
			default:
				row.Left = pendingLeft[k]
				row.Right = pendingRight[k]
			}
			diff.Rows = append(diff.Rows, row)
		}
		pendingLeft, pendingRight = pendingLeft[:0], pendingRight[:0]
	}

	for _, d := range diffs {
		count := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			for k := 0; k < count && li < len(leftLines) && ri < len(rightLines); k++ {
				diff.Rows = append(diff.Rows, Row{
					Mark:  MarkSame,
					Left:  Line{Number: li + 1, Text: leftLines[li]},
					Right: Line{Number: ri + 1, Text: rightLines[ri]},
				})
				li++
				ri++
			}
		case diffmatchpatch.DiffDelete:
			for k := 0; k < count && li < len(leftLines); k++ {
				pendingLeft = append(pendingLeft, Line{Number: li + 1, Text: leftLines[li]})
				li++
			}
		case diffmatchpatch.DiffInsert:
			for k := 0; k < count && ri < len(rightLines); k++ {
				pendingRight = append(pendingRight, Line{Number: ri + 1, Text: rightLines[ri]})
				ri++
			}
		}
	}
	flush()

	return diff
}

// lineEncoder assigns every distinct trimmed line its own rune so the diff
// runs over whole lines. Codes skip the surrogate range, which does not
// survive a round trip through string.
type lineEncoder struct {
	codes map[string]rune
	next  rune
}

func (e *lineEncoder) encode(lines []string) []rune {
	out := make([]rune, len(lines))
	for i, line := range lines {
		key := trimTrailing(line)
		code, ok := e.codes[key]
		if !ok {
			e.next++
			if e.next == surrogateMin {
				e.next = surrogateMax + 1
			}
			code = e.next
			e.codes[key] = code
		}
		out[i] = code
	}
	return out
}

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)
