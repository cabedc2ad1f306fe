package unlock

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/syncb/cmd/util"
	"github.com/sidkik/syncb/pkg/config"
	"github.com/sidkik/syncb/pkg/lock"
)

// New creates a new `unlock` command. It's the operator escape hatch for a
// lock left behind by a crashed run: it skips the ownership check entirely.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Force-clear the sync lock.",
		Long: "Delete the lock token regardless of who owns it.\n" +
			"Only use this when you're sure no other sync is running.",
		Run: func(_ *cobra.Command, _ []string) {
			cfg, err := config.Parse()
			if err != nil {
				util.HandleFatalError(err)
			}

			if err := lock.New(cfg.LockFile).ForceRelease(); err != nil {
				util.HandleFatalError(err)
			}
			log.Info("Lock cleared")
		},
	}
}
