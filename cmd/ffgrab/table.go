package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"ffgrab/internal/download"
	"ffgrab/internal/queue"
)

// renderSummary formats the per-track outcome table. On a terminal it
// uses a rounded box table; piped output gets plain tab-separated lines.
func renderSummary(w io.Writer, manager *download.Manager) string {
	jobs := manager.Jobs()
	summary := manager.Summarize()

	headers := []string{"#", "Track", "Status", "Output"}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		status := job.Status.String()
		if job.Status == queue.StatusFailed && job.Err != nil {
			status = "failed: " + compactError(job.Err)
		}
		if len(job.Warnings) > 0 {
			status += fmt.Sprintf(" (%d warnings)", len(job.Warnings))
		}
		output := ""
		if job.OutputPath != "" {
			output = filepath.Base(job.OutputPath)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", job.Position),
			job.Track.Title,
			status,
			output,
		})
	}

	var b strings.Builder
	if isTerminal(w) {
		b.WriteString(renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
		b.WriteString("\n")
	} else {
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "Completed %d, skipped %d, failed %d of %d tracks\n",
		summary.Completed, summary.Skipped, summary.Failed, len(jobs))
	return b.String()
}

// compactError keeps the summary table readable for multi-line stderr
// captures.
func compactError(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if len(msg) > 60 {
		msg = msg[:57] + "..."
	}
	return msg
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
