package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sidkik/syncb/pkg/rsync"
	"github.com/sidkik/syncb/pkg/symlinks"
)

// Stats accumulates the counters for one run. It's owned by the orchestrator
// and only read at the end of the run; every counter is monotonically
// non-decreasing in between.
type Stats struct {
	ItemsProcessed int
	ItemsFailed    int

	FilesCreated int
	FilesUpdated int
	FilesDeleted int
	FilesTotal   int

	CryptoFiles int

	LinksDetected int
	LinksCreated  int
	LinksExisting int
	LinkErrors    int

	clock clockwork.Clock
	start time.Time
}

// New starts the run clock.
func New(clock clockwork.Clock) *Stats {
	return &Stats{clock: clock, start: clock.Now()}
}

// AddReport folds one transfer report into the totals.
func (s *Stats) AddReport(report rsync.Report) {
	s.FilesCreated += report.Created
	s.FilesUpdated += report.Updated
	s.FilesDeleted += report.Deleted
	s.FilesTotal += report.Total
}

// AddRecreate folds in the outcome of the symlink recreation pass.
func (s *Stats) AddRecreate(result symlinks.RecreateResult) {
	s.LinksCreated += result.Created
	s.LinksExisting += result.Existing
	s.LinkErrors += result.Errors
}

// Failed reports whether anything in the run went wrong.
func (s *Stats) Failed() bool {
	return s.ItemsFailed > 0 || s.LinkErrors > 0
}

// Elapsed returns the wall time since the run started.
func (s *Stats) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.start)
}

// Summary renders the end-of-run banner.
func (s *Stats) Summary(deleteEnabled, dryRun bool) string {
	var b strings.Builder
	rule := strings.Repeat("=", 50)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "SYNC SUMMARY")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Items processed: %d\n", s.ItemsProcessed)
	fmt.Fprintf(&b, "Items failed: %d\n", s.ItemsFailed)
	fmt.Fprintf(&b, "Files transferred: %d (created %d, updated %d)\n",
		s.FilesTotal, s.FilesCreated, s.FilesUpdated)
	if deleteEnabled {
		fmt.Fprintf(&b, "Files deleted on destination: %d\n", s.FilesDeleted)
	}
	if s.CryptoFiles > 0 {
		fmt.Fprintf(&b, "Crypto files transferred: %d\n", s.CryptoFiles)
	}
	fmt.Fprintln(&b, "Symlinks:")
	fmt.Fprintf(&b, "  - detected/saved: %d\n", s.LinksDetected)
	fmt.Fprintf(&b, "  - created: %d\n", s.LinksCreated)
	fmt.Fprintf(&b, "  - already correct: %d\n", s.LinksExisting)
	fmt.Fprintf(&b, "  - errors: %d\n", s.LinkErrors)
	fmt.Fprintf(&b, "Total time: %s\n", formatDuration(s.Elapsed()))
	if secs := s.Elapsed().Seconds(); secs > 0 {
		fmt.Fprintf(&b, "Average speed: %.1f files/s\n",
			float64(s.FilesTotal)/secs)
	}

	mode := "REAL RUN"
	if dryRun {
		mode = "DRY RUN"
	}
	fmt.Fprintf(&b, "Mode: %s\n", mode)
	fmt.Fprintln(&b, rule)
	return b.String()
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm %ds",
			int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
