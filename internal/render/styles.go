package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type styles struct {
	plain     lipgloss.Style
	header    lipgloss.Style
	rule      lipgloss.Style
	good      lipgloss.Style
	bad       lipgloss.Style
	unknown   lipgloss.Style
	number    lipgloss.Style
	changed   lipgloss.Style
	leftOnly  lipgloss.Style
	rightOnly lipgloss.Style
	muted     lipgloss.Style
}

// newStyles binds styles to out. With color disabled the ASCII profile makes
// every style render its input unchanged.
func newStyles(out io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(out)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return styles{
		plain:     r.NewStyle(),
		header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		rule:      r.NewStyle().Foreground(lipgloss.Color("4")),
		good:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		bad:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		unknown:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		number:    r.NewStyle().Foreground(lipgloss.Color("8")),
		changed:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		leftOnly:  r.NewStyle().Foreground(lipgloss.Color("1")),
		rightOnly: r.NewStyle().Foreground(lipgloss.Color("2")),
		muted:     r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
