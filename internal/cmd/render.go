package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"tarediiran-industries.com/transit-dashboard/internal/panel"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderView prints a settled panel. A failed fetch is returned as the
// error so it reaches stderr through cobra.
func renderView(out io.Writer, v panel.View) error {
	fmt.Fprintln(out, titleStyle.Render(v.Title))

	switch v.Kind() {
	case "loading":
		fmt.Fprintln(out, mutedStyle.Render("Still loading, try again shortly."))
		return nil
	case "error":
		return errors.New(v.Err)
	case "empty":
		if strings.TrimSpace(v.Search) != "" {
			fmt.Fprintf(out, "No results match %q.\n", v.Search)
		} else {
			fmt.Fprintln(out, "No results found.")
		}
		return nil
	}

	if v.Stale && v.Err != "" {
		fmt.Fprintln(out, mutedStyle.Render(v.Err+". Showing results from an earlier request."))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(v.Headers...).
		Rows(v.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(out, t.Render())
	fmt.Fprintln(out, mutedStyle.Render(footer(v)))
	return nil
}

func footer(v panel.View) string {
	line := fmt.Sprintf("Page %d of %d | rows %d-%d of %d", v.Page, v.TotalPages, v.First(), v.Last(), v.Filtered)
	if v.Filtered != v.Total {
		line += fmt.Sprintf(" (filtered from %d)", v.Total)
	}
	return line
}
