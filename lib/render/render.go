// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package render formats mario's human-readable output: section
// headers, aligned tables, run status colors, duration charts and
// highlighted JSON. Color is used only when the output is a terminal
// and NO_COLOR is unset.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/jeffbrennan/mario/lib/factory"
)

// Width is the width of section headers.
const Width = 80

// BarCharacter draws duration chart bars.
const BarCharacter = "▤"

// TimeLayout formats run start times.
const TimeLayout = "2006-01-02 15:04:05"

// Printer writes styled output to one destination.
type Printer struct {
	out      io.Writer
	profile  termenv.Profile
	renderer *lipgloss.Renderer

	title     lipgloss.Style
	underline lipgloss.Style
	accent    lipgloss.Style
	success   lipgloss.Style
	failure   lipgloss.Style
	warning   lipgloss.Style
	neutral   lipgloss.Style
}

// New returns a Printer for out. The color profile is detected from out
// and the environment: a non-terminal or NO_COLOR yields plain text.
func New(out io.Writer) *Printer {
	return NewWithProfile(out, termenv.NewOutput(out).EnvColorProfile())
}

// NewWithProfile returns a Printer that always uses profile.
func NewWithProfile(out io.Writer, profile termenv.Profile) *Printer {
	renderer := lipgloss.NewRenderer(out, termenv.WithProfile(profile))
	// The renderer re-detects from the environment unless the profile
	// is set explicitly.
	renderer.SetColorProfile(profile)

	return &Printer{
		out:       out,
		profile:   profile,
		renderer:  renderer,
		title:     renderer.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		underline: renderer.NewStyle().Underline(true),
		accent:    renderer.NewStyle().Foreground(lipgloss.Color("3")),
		success:   renderer.NewStyle().Foreground(lipgloss.Color("2")),
		failure:   renderer.NewStyle().Foreground(lipgloss.Color("1")),
		warning:   renderer.NewStyle().Foreground(lipgloss.Color("3")),
		neutral:   renderer.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Colored reports whether the printer emits escape sequences.
func (p *Printer) Colored() bool { return p.profile != termenv.Ascii }

// Printf writes formatted text.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Println writes its arguments separated by spaces.
func (p *Printer) Println(args ...any) {
	fmt.Fprintln(p.out, args...)
}

// Header returns a Width-wide line with title centered between runs of
// "=". An empty title yields a plain rule.
func (p *Printer) Header(title string) string {
	if title == "" {
		return strings.Repeat("=", Width)
	}
	titleWidth := ansi.StringWidth(title)
	spacer := max(Width-titleWidth-2, 2)
	left := (spacer + 1) / 2
	right := spacer - left
	return strings.Repeat("=", left) + " " + p.title.Render(title) + " " + strings.Repeat("=", right)
}

// Underline returns text underlined.
func (p *Printer) Underline(text string) string { return p.underline.Render(text) }

// Status returns a run status colored by outcome.
func (p *Printer) Status(status string) string {
	return p.statusStyle(status).Render(status)
}

func (p *Printer) statusStyle(status string) lipgloss.Style {
	switch status {
	case factory.StatusSucceeded:
		return p.success
	case factory.StatusFailed:
		return p.failure
	case factory.StatusCancelled, factory.StatusCanceling:
		return p.warning
	default:
		return p.neutral
	}
}

// Mark returns a check mark for ok and a cross otherwise.
func (p *Printer) Mark(ok bool) string {
	if ok {
		return p.success.Render("\u2714")
	}
	return p.failure.Render("\u2718")
}

// Success returns text in the success style.
func (p *Printer) Success(text string) string { return p.success.Render(text) }

// Failure returns text in the failure style.
func (p *Printer) Failure(text string) string { return p.failure.Render(text) }

// Accent returns text in the accent style.
func (p *Printer) Accent(text string) string { return p.accent.Render(text) }

// Count returns n styled as a success or failure count. Zero is
// neutral.
func (p *Printer) Count(n int, failure bool) string {
	text := fmt.Sprint(n)
	switch {
	case n == 0:
		return p.neutral.Render(text)
	case failure:
		return p.failure.Render(text)
	default:
		return p.success.Render(text)
	}
}

// Bar returns a chart bar of length characters colored by status.
func (p *Printer) Bar(status string, length int) string {
	return p.statusStyle(status).Render(strings.Repeat(BarCharacter, length))
}

// Change formats a run-over-run duration change: an up arrow in red for
// slower runs, a down arrow in green for faster ones.
func (p *Printer) Change(percent *float64) string {
	if percent == nil || *percent == 0 {
		return p.neutral.Render("0%")
	}
	text := fmt.Sprintf("%.2f%%", math.Abs(*percent))
	if *percent > 0 {
		return p.failure.Render("↑" + text)
	}
	return p.success.Render("↓" + text)
}

// Duration formats d truncated to whole seconds.
func Duration(d time.Duration) string {
	return d.Truncate(time.Second).String()
}

// Table returns rows aligned under headers. Headers are underlined and
// the first column is highlighted. Cells may already carry styling;
// widths are measured without escape sequences.
func (p *Printer) Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for column, header := range headers {
		widths[column] = ansi.StringWidth(header)
	}
	for _, row := range rows {
		for column, cell := range row {
			if column < len(widths) {
				widths[column] = max(widths[column], ansi.StringWidth(cell))
			}
		}
	}

	var builder strings.Builder
	writeRow := func(cells []string, style func(column int, cell string) string) {
		for column := range widths {
			cell := ""
			if column < len(cells) {
				cell = cells[column]
			}
			padding := widths[column] - ansi.StringWidth(cell)
			builder.WriteString(style(column, cell))
			if column < len(widths)-1 {
				builder.WriteString(strings.Repeat(" ", padding+2))
			}
		}
		builder.WriteByte('\n')
	}

	writeRow(headers, func(_ int, cell string) string { return p.underline.Render(cell) })
	for _, row := range rows {
		writeRow(row, func(column int, cell string) string {
			if column == 0 {
				return p.accent.Render(cell)
			}
			return cell
		})
	}
	return builder.String()
}
