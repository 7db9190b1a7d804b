package benchapp

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var columns = []struct {
	title string
	width int
}{
	{"mode", 12}, {"threads", 8}, {"reads", 9}, {"hits", 9},
	{"best", 12}, {"mean", 12}, {"reads/s", 12}, {"speedup", 8},
}

func cells(r Row) []string {
	return []string{
		r.Mode,
		fmt.Sprint(r.Threads),
		fmt.Sprint(r.Reads),
		fmt.Sprint(r.Hits),
		r.Best.Round(1000).String(),
		r.Mean.Round(1000).String(),
		fmt.Sprintf("%.0f", r.ReadsPerSec()),
		fmt.Sprintf("%.2fx", r.Speedup),
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// RenderTable writes rows as an aligned table, styled when w supports it.
func RenderTable(w io.Writer, rows []Row) error {
	r := lipgloss.NewRenderer(w)
	head := r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	best := r.NewStyle().Foreground(lipgloss.Color("#98FB98"))

	top := 0
	for i, row := range rows {
		if row.Mode != ModeBatchNoOp && row.ReadsPerSec() > rows[top].ReadsPerSec() {
			top = i
		}
	}

	var b strings.Builder
	for _, c := range columns {
		b.WriteString(head.Width(c.width).Render(c.title))
	}
	b.WriteString("\n")
	for i, row := range rows {
		style := r.NewStyle()
		if i == top {
			style = best
		}
		for j, cell := range cells(row) {
			b.WriteString(style.Width(columns[j].width).Render(cell))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderTSV writes rows tab-separated with a header line.
func RenderTSV(w io.Writer, rows []Row) error {
	titles := make([]string, len(columns))
	for i, c := range columns {
		titles[i] = c.title
	}
	if _, err := fmt.Fprintln(w, strings.Join(titles, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(cells(row), "\t")); err != nil {
			return err
		}
	}
	return nil
}

// RenderJSON writes one JSON object per row.
func RenderJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}
