package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the priority and type
	// columns are hidden.
	LayoutCompactWidth = 80
)

const (
	// PageJump is how far pgup/pgdown move the cursor.
	PageJump = 10

	// LogTailLines bounds how much of the log file the Log tab reads.
	LogTailLines = 500

	// DefaultTick is the default key dispatch and refresh interval.
	DefaultTick = 100 * time.Millisecond

	// CommandTimeout bounds a single queue or volume command.
	CommandTimeout = 10 * time.Second
)

// headerLines is the number of rows above the tab content: title, two
// gauges, a spacer and the tab bar.
const headerLines = 5

// footerLines is the status line plus the short help line.
const footerLines = 2
