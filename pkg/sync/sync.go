package sync

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/sidkik/syncb/pkg/config"
	"github.com/sidkik/syncb/pkg/errors"
	"github.com/sidkik/syncb/pkg/lock"
	"github.com/sidkik/syncb/pkg/rsync"
	"github.com/sidkik/syncb/pkg/stats"
	"github.com/sidkik/syncb/pkg/symlinks"
)

// Direction says which tree is the source of truth for this run.
type Direction string

const (
	// Upload syncs local root -> remote root.
	Upload Direction = "up"
	// Download syncs remote root -> local root.
	Download Direction = "down"
)

// Options are the per-run knobs, resolved from CLI flags.
type Options struct {
	Direction Direction

	// Items overrides the configured per-host list when non-empty.
	Items []string

	// Excludes are CLI exclude patterns, applied after the config's.
	Excludes []string

	DryRun    bool
	Delete    bool
	Overwrite bool
	Checksum  bool

	BwlimitKBps    int
	TimeoutMinutes int

	// Yes skips the interactive confirmation.
	Yes bool

	// ReadOnlyRoot selects the machine-specific read-only backup root
	// instead of the common writable one.
	ReadOnlyRoot bool

	// Crypto enables the secondary sync phase.
	Crypto bool

	// Notify sends a desktop notification with the run summary.
	Notify bool
}

// Runner executes one sync run.
type Runner struct {
	cfg   config.Config
	opts  Options
	stats *stats.Stats

	hostname string
	username string

	// hostExcludes is the selected host entry's exclude list, resolved at the
	// start of Run.
	hostExcludes []string

	// Indirections for tests.
	invoke    func(context.Context, string, string, rsync.Options, time.Duration) (rsync.Report, error)
	confirm   func() (bool, error)
	preflight func() error
}

// New builds a Runner from an immutable config snapshot and the run options.
func New(cfg config.Config, opts Options) *Runner {
	hostname, _ := os.Hostname()
	username := os.Getenv("USER")
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	r := &Runner{
		cfg:      cfg,
		opts:     opts,
		stats:    stats.New(clockwork.NewRealClock()),
		hostname: hostname,
		username: username,
		invoke:   rsync.Invoke,
	}
	r.confirm = r.promptConfirm
	r.preflight = r.checkPreconditions
	return r
}

// Stats exposes the run counters, for the summary and the exit code.
func (r *Runner) Stats() *stats.Stats {
	return r.stats
}

// Run drives the whole synchronization. It returns an error only for fatal
// conditions; per-item and per-link failures are accumulated in the stats and
// reflected in Stats().Failed().
func (r *Runner) Run(ctx context.Context) error {
	items, hostExcludes, err := resolveItems(r.cfg, r.hostname, r.opts.Items)
	if err != nil {
		return err
	}
	r.hostExcludes = hostExcludes

	// Termination signals route through the same deferred cleanup as every
	// other exit path: in-flight rsync processes are killed via the context.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lockMgr := lock.New(r.cfg.LockFile)
	staleAfter := time.Duration(r.cfg.LockStaleSeconds) * time.Second
	if err := lockMgr.Acquire(string(r.opts.Direction), staleAfter); err != nil {
		return err
	}
	defer func() {
		if err := lockMgr.Release(); err != nil {
			log.WithError(err).Warn("Failed to release lock")
		}
	}()

	if err := r.preflight(); err != nil {
		return err
	}

	if !r.opts.DryRun && !r.opts.Yes {
		ok, err := r.confirm()
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewFriendlyError("Sync cancelled.")
		}
	}

	r.logBanner(items)

	for _, item := range items {
		if ctx.Err() != nil {
			return errors.New("sync interrupted")
		}
		if err := r.syncItem(ctx, item); err != nil {
			log.WithError(err).WithField("item", item).Error("Item sync failed")
			r.stats.ItemsFailed++
			continue
		}
		r.stats.ItemsProcessed++
	}

	if r.opts.Crypto {
		if err := r.syncCrypto(ctx); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return errors.New("sync interrupted")
	}

	if err := r.syncSymlinks(ctx, items); err != nil {
		return err
	}

	fmt.Print(r.stats.Summary(r.opts.Delete, r.opts.DryRun))
	if r.opts.Notify {
		if err := r.stats.Notify(); err != nil {
			log.WithError(err).Debug("Failed to send desktop notification")
		}
	}
	return nil
}

// sourceDest maps an item to its endpoint pair for this run's direction.
func (r *Runner) sourceDest(item string) (string, string) {
	remote := filepath.Join(r.cfg.RemoteRoot(r.opts.ReadOnlyRoot), item)
	local := filepath.Join(r.cfg.LocalDir, item)
	if r.opts.Direction == Upload {
		return local, remote
	}
	return remote, local
}

func (r *Runner) syncItem(ctx context.Context, item string) error {
	source, dest := r.sourceDest(item)

	if _, err := os.Stat(source); os.IsNotExist(err) {
		log.WithField("item", item).Warn("Source does not exist, skipping")
		return errors.FileNotFound{Path: source}
	}

	if !r.opts.DryRun {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.WithContext(err, "create destination directory")
		}
	}

	log.WithFields(log.Fields{
		"item": item, "direction": r.opts.Direction,
	}).Info("Syncing")

	report, err := r.invoke(ctx, source, dest, r.rsyncOptions(), r.timeout())
	if err != nil {
		return err
	}

	r.stats.AddReport(report)
	return nil
}

func (r *Runner) syncSymlinks(ctx context.Context, items []string) error {
	if r.opts.Direction == Upload {
		return r.uploadSymlinks(ctx, items)
	}
	return r.downloadSymlinks()
}

func (r *Runner) uploadSymlinks(ctx context.Context, items []string) error {
	records, err := symlinks.Capture(r.cfg.LocalDir, items)
	if err != nil {
		return errors.WithContext(err, "capture symlinks")
	}
	r.stats.LinksDetected = len(records)

	metaPath, err := symlinks.WriteMetadata(records)
	if err != nil {
		return err
	}
	if metaPath == "" {
		log.Info("No symlinks found, skipping metadata upload")
		return nil
	}
	defer os.Remove(metaPath)

	dest := filepath.Join(r.cfg.RemoteRoot(r.opts.ReadOnlyRoot), symlinks.MetadataFile)
	if _, err := r.invoke(ctx, metaPath, dest, r.rsyncOptions(), r.timeout()); err != nil {
		return errors.WithContext(err, "upload symlink metadata")
	}

	log.WithField("count", len(records)).Info("Symlink metadata uploaded")
	return nil
}

func (r *Runner) downloadSymlinks() error {
	metaPath, found, err := symlinks.FetchMetadata(
		r.cfg.LocalDir, r.cfg.RemoteRoot(r.opts.ReadOnlyRoot))
	if err != nil {
		return err
	}
	if !found {
		log.Info("No symlink metadata found, skipping recreation")
		return nil
	}

	result, err := symlinks.Recreate(r.cfg.LocalDir, metaPath, r.username, r.opts.DryRun)
	if err != nil {
		return errors.WithContext(err, "recreate symlinks")
	}
	r.stats.AddRecreate(result)

	log.WithFields(log.Fields{
		"created": result.Created, "existing": result.Existing,
		"errors": result.Errors,
	}).Info("Symlink recreation finished")
	return nil
}

func (r *Runner) rsyncOptions() rsync.Options {
	// Global excludes first, then the host entry's, then the CLI's.
	configExcludes := make([]string, 0, len(r.cfg.Exclude)+len(r.hostExcludes))
	configExcludes = append(configExcludes, r.cfg.Exclude...)
	configExcludes = append(configExcludes, r.hostExcludes...)

	return rsync.Options{
		Overwrite:      r.opts.Overwrite,
		DryRun:         r.opts.DryRun,
		Delete:         r.opts.Delete,
		Checksum:       r.opts.Checksum,
		BwlimitKBps:    r.opts.BwlimitKBps,
		ExcludeFrom:    r.cfg.ExcludeFrom,
		ConfigExcludes: configExcludes,
		CLIExcludes:    r.opts.Excludes,
	}
}

func (r *Runner) timeout() time.Duration {
	minutes := r.opts.TimeoutMinutes
	if minutes == 0 {
		minutes = r.cfg.TimeoutMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (r *Runner) logBanner(items []string) {
	remote := r.cfg.RemoteRoot(r.opts.ReadOnlyRoot)
	if r.opts.Direction == Upload {
		log.Infof("Syncing %s -> %s", r.cfg.LocalDir, remote)
	} else {
		log.Infof("Syncing %s -> %s", remote, r.cfg.LocalDir)
	}
	log.WithFields(log.Fields{
		"items":   len(items),
		"dryRun":  r.opts.DryRun,
		"delete":  r.opts.Delete,
		"host":    r.hostname,
		"timeout": r.timeout(),
	}).Info("Starting sync run")
}

// promptConfirm asks the operator before a mutating pass. A non-interactive
// stdin without --yes is an error rather than a silent go-ahead.
func (r *Runner) promptConfirm() (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.NewFriendlyError(
			"No interactive terminal available for confirmation. " +
				"Re-run with --yes to proceed without prompting.")
	}

	fmt.Print("Continue with the sync? [y/N]: ")
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, errors.WithContext(err, "read confirmation")
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si":
		return true, nil
	}
	return false, nil
}
