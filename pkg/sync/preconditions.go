package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncb/pkg/errors"
	"github.com/sidkik/syncb/pkg/rsync"
)

// checkPreconditions verifies the run can plausibly succeed before anything
// is mutated. All of these are fatal: a half-checked environment is how
// partial syncs end up destroying data.
func (r *Runner) checkPreconditions() error {
	if !rsync.Available() {
		return errors.NewFriendlyError(
			"rsync is not installed or not on PATH.\n" +
				"Install it with your package manager, e.g. `apt install rsync`.")
	}

	if err := r.checkMount(); err != nil {
		return err
	}

	if err := r.checkFreeSpace(); err != nil {
		return err
	}

	log.Info("Preconditions OK")
	return nil
}

func (r *Runner) checkMount() error {
	mount := r.cfg.MountPoint
	entries, err := os.ReadDir(mount)
	if os.IsNotExist(err) {
		return errors.NewFriendlyError(
			"The cloud mount point %q does not exist.\n"+
				"Is the pCloud client running?", mount)
	} else if err != nil {
		return errors.WithContext(err, "inspect mount point")
	}

	// An empty mount point almost always means the cloud drive isn't
	// actually mounted there.
	if len(entries) == 0 {
		return errors.NewFriendlyError(
			"The cloud mount point %q is empty. The drive doesn't appear "+
				"to be mounted.", mount)
	}

	remote := r.cfg.RemoteRoot(r.opts.ReadOnlyRoot)
	if _, err := os.Stat(remote); os.IsNotExist(err) {
		return errors.NewFriendlyError(
			"The remote root %q does not exist.", remote)
	} else if err != nil {
		return errors.WithContext(err, "inspect remote root")
	}

	// Probe writability with a throwaway file. Pointless for dry runs, and
	// wrong for the read-only backup root.
	if !r.opts.DryRun && !r.opts.ReadOnlyRoot && r.opts.Direction == Upload {
		probe := filepath.Join(remote, fmt.Sprintf(".syncb_write_test_%d", os.Getpid()))
		f, err := os.Create(probe)
		if err != nil {
			return errors.NewFriendlyError(
				"The remote root %q is not writable: %s", remote, err)
		}
		f.Close()
		if err := os.Remove(probe); err != nil {
			log.WithError(err).Warn("Failed to remove write probe file")
		}
	}

	return nil
}

// checkFreeSpace makes sure the receiving side has room to work with.
func (r *Runner) checkFreeSpace() error {
	receiving := r.cfg.LocalDir
	if r.opts.Direction == Upload {
		receiving = r.cfg.MountPoint
	}

	freeMB, err := freeSpaceMB(receiving)
	if err != nil {
		log.WithError(err).Warn("Could not determine free disk space")
		return nil
	}

	if freeMB < r.cfg.MinFreeMB {
		return errors.NewFriendlyError(
			"Not enough free space on %q: %dMB available, %dMB required.",
			receiving, freeMB, r.cfg.MinFreeMB)
	}

	log.WithField("freeMB", freeMB).Debug("Disk space check passed")
	return nil
}

func freeSpaceMB(path string) (uint64, error) {
	var fsStat syscall.Statfs_t
	if err := syscall.Statfs(path, &fsStat); err != nil {
		return 0, err
	}
	return fsStat.Bavail * uint64(fsStat.Bsize) / (1024 * 1024), nil
}
