package sync

import (
	"context"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncb/pkg/errors"
)

// syncCrypto runs the secondary phase: the encrypted volume with its own root
// pair, plus the KeePass database directory which always flows remote ->
// local. It runs under the same lock as the main pass. Transfer failures are
// counted like failed items; only a missing or unmounted volume is fatal.
func (r *Runner) syncCrypto(ctx context.Context) error {
	crypto := r.cfg.Crypto
	if crypto == nil {
		return errors.NewFriendlyError(
			"--crypto was requested, but the config has no `crypto` section.")
	}

	checkFile := filepath.Join(crypto.RemoteDir, crypto.MountCheckFile)
	if _, err := os.Stat(checkFile); err != nil {
		return errors.NewFriendlyError(
			"The encrypted volume doesn't appear to be mounted: "+
				"check file %q is missing.", checkFile)
	}

	source, dest := crypto.LocalDir, crypto.RemoteDir
	if r.opts.Direction == Download {
		source, dest = dest, source
	}

	log.Info("Syncing crypto volume")
	report, err := r.invoke(ctx, source, dest, r.rsyncOptions(), r.timeout())
	if err != nil {
		log.WithError(err).Error("Crypto volume sync failed")
		r.stats.ItemsFailed++
	} else {
		r.stats.ItemsProcessed++
		r.stats.CryptoFiles += report.Total
		r.stats.AddReport(report)
	}

	// The KeePass database is only ever authored on the phone, so it flows
	// remote -> local regardless of the run direction.
	if crypto.RemoteKeePassDir != "" && crypto.LocalKeePassDir != "" {
		if !r.opts.DryRun {
			if err := os.MkdirAll(crypto.LocalKeePassDir, 0755); err != nil {
				return errors.WithContext(err, "create keepass directory")
			}
		}

		log.Info("Syncing KeePass database")
		report, err := r.invoke(ctx, crypto.RemoteKeePassDir,
			crypto.LocalKeePassDir, r.rsyncOptions(), r.timeout())
		if err != nil {
			log.WithError(err).Error("KeePass sync failed")
			r.stats.ItemsFailed++
		} else {
			r.stats.ItemsProcessed++
			r.stats.CryptoFiles += report.Total
			r.stats.AddReport(report)
		}
	}

	return nil
}
