package report

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).PaddingRight(2)
	labelStyle  = lipgloss.NewStyle().Width(12)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2).Align(lipgloss.Right)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

var printer = message.NewPrinter(language.French)

// FormatNumber renders v with French separators and two decimals.
// NaN renders as "-".
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return printer.Sprintf("%.2f", v)
}

// FormatPercent renders a ratio as a French percentage.
func FormatPercent(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return printer.Sprintf("%.2f %%", v*100)
}

// RenderTable draws t as aligned columns. Ratios are shown as percentages
// when percent is set.
func RenderTable(t *Table, percent bool) string {
	cols := make([]string, 0, len(t.Columns)+1)

	labels := []string{headerStyle.Render(t.RowLabel)}
	for _, r := range t.Rows {
		labels = append(labels, labelStyle.Render(r))
	}
	cols = append(cols, lipgloss.JoinVertical(lipgloss.Left, labels...))

	for j, name := range t.Columns {
		cells := []string{headerStyle.Render(name)}
		for i := range t.Rows {
			cells = append(cells, cellStyle.Render(format(t.Values[i][j], percent)))
		}
		cols = append(cols, lipgloss.JoinVertical(lipgloss.Right, cells...))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if t.Title == "" {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(t.Title), body)
}

// RenderBars draws one horizontal bar per row for every column, scaled to
// width characters for the largest value of the column.
func RenderBars(t *Table, width int, percent bool) string {
	var sections []string
	for j, name := range t.Columns {
		var max float64
		for i := range t.Rows {
			if v := t.Values[i][j]; !math.IsNaN(v) && v > max {
				max = v
			}
		}

		lines := []string{headerStyle.Render(name)}
		for i, r := range t.Rows {
			v := t.Values[i][j]
			n := 0
			if max > 0 && !math.IsNaN(v) && v > 0 {
				n = int(math.Round(v / max * float64(width)))
			}
			lines = append(lines, labelStyle.Render(r)+barStyle.Render(strings.Repeat("█", n))+" "+format(v, percent))
		}
		sections = append(sections, lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if t.Title == "" {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(t.Title), body)
}

func format(v float64, percent bool) string {
	if percent {
		return FormatPercent(v)
	}
	return FormatNumber(v)
}
