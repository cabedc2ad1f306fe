package rsync

import "fmt"

// baseOptions are passed on every invocation. --no-links is load-bearing:
// symlinks are carried by the metadata side-channel instead, because rsync
// can't rewrite absolute targets for a different user's home directory.
var baseOptions = []string{
	"--recursive",
	"--verbose",
	"--times",
	"--progress",
	"--whole-file",
	"--no-links",
	"--itemize-changes",
}

// Options selects the rsync flags for one run. The zero value is the safe
// default: update-only, no deletions, real execution.
type Options struct {
	// Overwrite disables the --update guard so newer destination files get
	// replaced too.
	Overwrite bool

	DryRun   bool
	Delete   bool
	Checksum bool

	// BwlimitKBps caps transfer bandwidth. Zero means unlimited.
	BwlimitKBps int

	// ExcludeFrom names a file of exclude patterns, one per line, handed to
	// rsync verbatim. It precedes the individual exclude flags.
	ExcludeFrom string

	// ConfigExcludes come from the config file and always precede
	// CLIExcludes in the flag list.
	ConfigExcludes []string
	CLIExcludes    []string
}

// Build returns the full option list in deterministic order.
func (o Options) Build() []string {
	opts := make([]string, len(baseOptions))
	copy(opts, baseOptions)

	if !o.Overwrite {
		opts = append(opts, "--update")
	}
	if o.DryRun {
		opts = append(opts, "--dry-run")
	}
	if o.Delete {
		opts = append(opts, "--delete-delay")
	}
	if o.Checksum {
		opts = append(opts, "--checksum")
	}
	if o.BwlimitKBps > 0 {
		opts = append(opts, fmt.Sprintf("--bwlimit=%d", o.BwlimitKBps))
	}
	if o.ExcludeFrom != "" {
		opts = append(opts, "--exclude-from="+o.ExcludeFrom)
	}

	for _, pattern := range o.ConfigExcludes {
		opts = append(opts, "--exclude="+pattern)
	}
	for _, pattern := range o.CLIExcludes {
		opts = append(opts, "--exclude="+pattern)
	}
	return opts
}
