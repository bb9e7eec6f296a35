package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutTraceWidth is the minimum width to show the trace id column.
	LayoutTraceWidth = 110
)

// Fixed rows outside the entry list: header, command bar and status line.
const chromeRows = 3

// List column widths.
const (
	timeColumnWidth       = 8
	levelColumnWidth      = 5
	maxProjectColumnWidth = 16
	traceColumnWidth      = 8
)

// Timing constants.
const (
	// DefaultUIInterval drives header age refresh and flash expiry.
	DefaultUIInterval = time.Second

	// flashDuration is how long a transient status message stays visible.
	flashDuration = 4 * time.Second
)

// maxEventBatch caps how many queued feed events one message carries.
const maxEventBatch = 256
