package rsync

import "strings"

// Report aggregates the itemized-changes output of one rsync invocation.
type Report struct {
	// Created counts files that appeared on the receiving side, and Updated
	// the subset that replaced an existing file.
	Created int
	Updated int

	// Deleted counts files removed on the receiving side. Only populated
	// when deletion was enabled for the run.
	Deleted int

	// Total counts every transferred file in either direction.
	Total int
}

// ParseReport classifies rsync --itemize-changes output by line prefix.
// The itemize codes are locale-independent, so this doesn't need to care
// about the user's language. Empty output parses to a zero report.
func ParseReport(stdout string, deleteEnabled bool) Report {
	var report Report
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, ">") || strings.HasPrefix(line, "<") {
			report.Total++
		}
		// Updated lines are a subset of created lines, mirroring how rsync
		// itemizes a replaced file.
		if strings.HasPrefix(line, ">f") {
			report.Created++
		}
		if strings.HasPrefix(line, ">f.st") {
			report.Updated++
		}
		if deleteEnabled && strings.Contains(line, "*deleting") {
			report.Deleted++
		}
	}
	return report
}
