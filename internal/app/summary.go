package app

import (
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/five82/contrail/internal/feed"
	"github.com/five82/contrail/internal/state"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderSummary renders the end-of-session tables printed in plain mode.
func renderSummary(snap state.Snapshot, decodeFailures uint64) string {
	session := renderTable(
		[]string{"Session", "Value"},
		[][]string{
			{"Ingested", humanize.Comma(int64(snap.Ingested))},
			{"Buffered", humanize.Comma(int64(len(snap.Entries))) + " / " + humanize.Comma(int64(snap.Capacity))},
			{"Errors", humanize.Comma(int64(snap.ErrorCount))},
			{"Reconnects", humanize.Comma(int64(snap.Reconnects))},
			{"Decode failures", humanize.Comma(int64(decodeFailures))},
			{"Projects", projectList(snap.Projects)},
		},
		[]columnAlignment{alignLeft, alignRight},
	)

	levels := levelRows(snap.LevelCounts)
	if len(levels) == 0 {
		return session
	}
	return session + "\n" + renderTable([]string{"Level", "Entries"}, levels, []columnAlignment{alignLeft, alignRight})
}

// levelRows orders known levels by severity, then any others alphabetically.
func levelRows(counts map[string]int) [][]string {
	var rows [][]string
	for _, level := range feed.Levels {
		if n := counts[level]; n > 0 {
			rows = append(rows, []string{strings.ToUpper(level), humanize.Comma(int64(n))})
		}
	}
	var extra []string
	for level := range counts {
		if !slices.Contains(feed.Levels, level) {
			extra = append(extra, level)
		}
	}
	slices.Sort(extra)
	for _, level := range extra {
		label := strings.ToUpper(level)
		if label == "" {
			label = "-"
		}
		rows = append(rows, []string{label, humanize.Comma(int64(counts[level]))})
	}
	return rows
}

func projectList(projects []string) string {
	if len(projects) == 0 {
		return "-"
	}
	const maxShown = 6
	if len(projects) <= maxShown {
		return strings.Join(projects, ", ")
	}
	return strings.Join(projects[:maxShown], ", ") + ", +" + humanize.Comma(int64(len(projects)-maxShown))
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
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
