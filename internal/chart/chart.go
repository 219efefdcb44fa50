// Package chart renders horizontal bar charts for analysis output.
package chart

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Entry is one labeled bar.
type Entry struct {
	Label string
	Count int
}

// maxBarChars is the maximum character width for bar segments.
// Capped to prevent bars from stretching across wide terminals.
const maxBarChars = 40

const minBarChars = 4

// Partial block characters for sub-character resolution (1/8 to 8/8).
var partialBlocks = []string{"▏", "▎", "▍", "▌", "▋", "▊", "▉", "█"}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Chart is a titled group of bars scaled against the group maximum.
type Chart struct {
	title    string
	entries  []Entry
	barWidth int
}

// Option configures a Chart.
type Option func(*Chart)

// WithBarWidth overrides the bar segment width in characters.
func WithBarWidth(n int) Option {
	return func(c *Chart) {
		if n > 0 {
			c.barWidth = n
		}
	}
}

// New creates a chart. The default bar width adapts to the terminal.
func New(title string, entries []Entry, opts ...Option) *Chart {
	c := &Chart{
		title:    title,
		entries:  entries,
		barWidth: defaultBarWidth(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultBarWidth fits the bar to the terminal, capped so bars stay
// comparable on very wide screens.
func defaultBarWidth() int {
	width := maxBarChars
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		// Leave room for label and count columns.
		width = min(w/2, maxBarChars)
	}
	return max(width, minBarChars)
}

// Render writes the chart. Each bar is scaled proportionally to the max
// count in the group, with all bars starting at the same column.
//
// Format per line:
//
//	{label padded}  {bar}  {count}
func (c *Chart) Render(w io.Writer) {
	if c.title != "" {
		fmt.Fprintln(w, titleStyle.Render(c.title))
	}

	if len(c.entries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  (no data)"))
		return
	}

	maxCount := 0
	maxLabel := 0
	for _, e := range c.entries {
		maxCount = max(maxCount, e.Count)
		maxLabel = max(maxLabel, runewidth.StringWidth(e.Label))
	}
	if maxCount == 0 {
		fmt.Fprintln(w, dimStyle.Render("  (no data)"))
		return
	}

	for _, e := range c.entries {
		label := e.Label + strings.Repeat(" ", maxLabel-runewidth.StringWidth(e.Label))
		fmt.Fprintf(w, "  %s  %s  %d\n", label, barStyle.Render(c.bar(e.Count, maxCount)), e.Count)
	}
}

// bar builds the block string for one count scaled to the group maximum.
func (c *Chart) bar(count, maxCount int) string {
	fracWidth := float64(count) / float64(maxCount) * float64(c.barWidth)
	fullBlocks := int(fracWidth)
	remainder := fracWidth - float64(fullBlocks)

	bar := strings.Repeat("█", fullBlocks)
	if remainder >= 0.125 {
		idx := min(int(remainder*8), 7)
		bar += partialBlocks[idx]
	}
	if bar == "" && count > 0 {
		bar = partialBlocks[0]
	}
	return bar
}

// SortByCount orders entries by descending count, ties broken by label so
// output is stable across runs.
func SortByCount(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
}

// SortByLabel orders entries lexically by label.
func SortByLabel(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Label < entries[j].Label
	})
}

// Top returns at most n entries; entries must already be sorted.
func Top(entries []Entry, n int) []Entry {
	if n < 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}

// FromCounts converts a label-to-count map into entries.
func FromCounts(counts map[string]int) []Entry {
	entries := make([]Entry, 0, len(counts))
	for label, count := range counts {
		entries = append(entries, Entry{Label: label, Count: count})
	}
	return entries
}
