// Package termview draws report pages for a terminal.
package termview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/reports"
	tbl "github.com/odyssey-erp/garment-dashboard/internal/table"
)

var toneColors = map[format.Tone]lipgloss.Color{
	format.ToneGray:   lipgloss.Color("245"),
	format.ToneGreen:  lipgloss.Color("34"),
	format.ToneBlue:   lipgloss.Color("33"),
	format.ToneYellow: lipgloss.Color("178"),
	format.ToneOrange: lipgloss.Color("208"),
	format.ToneRed:    lipgloss.Color("196"),
	format.TonePurple: lipgloss.Color("135"),
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes view to w. Styled output colours tones and headings; plain
// output is stable text suitable for pipes and tests.
func Render(w io.Writer, view reports.PageView, styled bool) error {
	p := painter{styled: styled}
	var b strings.Builder

	b.WriteString(p.title(view.Title))
	b.WriteString("\n")
	if view.Description != "" {
		b.WriteString(p.dim(view.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case view.Disabled:
		b.WriteString(view.Message)
		b.WriteString("\n")
		return write(w, b.String())
	case view.Loading:
		b.WriteString(view.LoadingMessage)
		b.WriteString("\n")
		return write(w, b.String())
	}

	for _, alert := range view.Alerts {
		line := alert.Title
		if alert.Message != "" {
			line += ": " + alert.Message
		}
		b.WriteString(p.tone("! "+line, alert.Tone))
		b.WriteString("\n")
	}
	if len(view.Alerts) > 0 {
		b.WriteString("\n")
	}

	for _, stat := range view.Stats {
		line := fmt.Sprintf("%s: %s", stat.Label, p.tone(stat.Value, stat.Tone))
		if stat.Hint != "" {
			line += " " + p.dim("("+stat.Hint+")")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(view.Stats) > 0 {
		b.WriteString("\n")
	}

	for _, group := range view.Groups {
		b.WriteString(p.heading(group.Title))
		b.WriteString("\n")
		for _, line := range group.Lines {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if len(view.Groups) > 0 {
		b.WriteString("\n")
	}

	if view.HasTable() {
		if view.TableTitle != "" {
			b.WriteString(p.heading(view.TableTitle))
			b.WriteString("\n")
		}
		if view.Subtitle != "" {
			b.WriteString(p.dim(view.Subtitle))
			b.WriteString("\n")
		}
		b.WriteString(renderTable(view.Table, p))
		b.WriteString("\n")
	}
	return write(w, b.String())
}

func renderTable(view tbl.View, p painter) string {
	switch {
	case view.Loading:
		return reports.DefaultLoading
	case view.Empty || len(view.Rows) == 0:
		msg := view.EmptyMessage
		if msg == "" {
			msg = reports.DefaultEmpty
		}
		return msg
	}

	headers := make([]string, len(view.Headers))
	for i, h := range view.Headers {
		headers[i] = h.Label
	}
	rows := make([][]string, len(view.Rows))
	for i, row := range view.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cellText(cell)
		}
		rows[i] = cells
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	if p.styled {
		t = t.BorderStyle(lipgloss.NewStyle().Foreground(toneColors[format.ToneGray])).
			StyleFunc(func(row, col int) lipgloss.Style {
				style := lipgloss.NewStyle().Padding(0, 1)
				if row == table.HeaderRow {
					return style.Bold(true)
				}
				if row >= 0 && row < len(view.Rows) && col < len(view.Rows[row].Cells) {
					cell := view.Rows[row].Cells[col]
					if color, ok := toneColors[cell.Tone]; ok {
						style = style.Foreground(color)
					}
					if cell.Strong || cell.Badge {
						style = style.Bold(true)
					}
				}
				return style
			})
	} else {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})
	}
	return t.String()
}

func cellText(cell tbl.Cell) string {
	text := cell.String()
	if cell.Bar != nil {
		text = strings.TrimSpace(fmt.Sprintf("%s %.0f%%", text, cell.Bar.Percent))
	}
	return text
}

type painter struct {
	styled bool
}

func (p painter) title(s string) string {
	if !p.styled {
		return strings.ToUpper(s)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(toneColors[format.ToneBlue]).Render(s)
}

func (p painter) heading(s string) string {
	if !p.styled {
		return s
	}
	return lipgloss.NewStyle().Bold(true).Render(s)
}

func (p painter) dim(s string) string {
	if !p.styled {
		return s
	}
	return lipgloss.NewStyle().Foreground(toneColors[format.ToneGray]).Render(s)
}

func (p painter) tone(s string, tone format.Tone) string {
	color, ok := toneColors[tone]
	if !p.styled || !ok {
		return s
	}
	return lipgloss.NewStyle().Foreground(color).Render(s)
}

func write(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}
