package stats

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// Notify sends a desktop notification summarizing the run. Failures here are
// the caller's to log; a missing notification daemon shouldn't fail the sync.
func (s *Stats) Notify() error {
	var body string
	if s.Failed() {
		body = fmt.Sprintf("Sync finished with errors\n"+
			"Failed items: %d, link errors: %d\nTime: %s",
			s.ItemsFailed, s.LinkErrors, formatDuration(s.Elapsed()))
	} else {
		body = fmt.Sprintf("Sync completed\n"+
			"Items: %d, files: %d\nTime: %s",
			s.ItemsProcessed, s.FilesTotal, formatDuration(s.Elapsed()))
	}
	return beeep.Notify("syncb", body, "")
}
