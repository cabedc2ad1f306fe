package run

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/syncb/cmd/util"
	"github.com/sidkik/syncb/pkg/config"
	"github.com/sidkik/syncb/pkg/logfile"
	"github.com/sidkik/syncb/pkg/sync"
)

// NewUp creates the `up` command: local root -> remote root.
func NewUp() *cobra.Command {
	return newRunCommand(sync.Upload, "up",
		"Sync the local tree up to the cloud mount.")
}

// NewDown creates the `down` command: remote root -> local root.
func NewDown() *cobra.Command {
	return newRunCommand(sync.Download, "down",
		"Sync the cloud mount down to the local tree.")
}

func newRunCommand(direction sync.Direction, use, short string) *cobra.Command {
	opts := sync.Options{Direction: direction}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(_ *cobra.Command, _ []string) {
			cfg, err := config.Parse()
			if err != nil {
				util.HandleFatalError(err)
			}

			if hook, err := logfile.NewHook(cfg.LogFile); err != nil {
				log.WithError(err).Warn("Could not open log file")
			} else {
				log.AddHook(hook)
			}

			runner := sync.New(cfg, opts)
			if err := runner.Run(context.Background()); err != nil {
				util.HandleFatalError(err)
			}

			if runner.Stats().Failed() {
				os.Exit(1)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.Items, "item", nil,
		"Sync only the given item (repeatable)")
	flags.StringArrayVar(&opts.Excludes, "exclude", nil,
		"Exclude files matching the pattern (repeatable)")
	flags.BoolVar(&opts.DryRun, "dry-run", false,
		"Simulate without making any changes")
	flags.BoolVar(&opts.Delete, "delete", false,
		"Delete files on the destination that no longer exist on the source")
	flags.BoolVar(&opts.Overwrite, "overwrite", false,
		"Overwrite destination files even if they are newer")
	flags.BoolVar(&opts.Checksum, "checksum", false,
		"Compare files by checksum instead of time and size")
	flags.IntVar(&opts.BwlimitKBps, "bwlimit", 0,
		"Limit transfer bandwidth (KB/s)")
	flags.IntVar(&opts.TimeoutMinutes, "timeout", 0,
		"Per-item time limit in minutes (default from config)")
	flags.BoolVar(&opts.Yes, "yes", false,
		"Run without asking for confirmation")
	flags.BoolVar(&opts.ReadOnlyRoot, "backup-dir", false,
		"Use the read-only backup root instead of the common one")
	flags.BoolVar(&opts.Crypto, "crypto", false,
		"Also run the secondary crypto sync phase")
	flags.BoolVar(&opts.Notify, "notify", false,
		"Send a desktop notification when the run finishes")
	return cmd
}
