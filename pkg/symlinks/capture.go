package symlinks

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncb/pkg/errors"
)

// Record is one captured symlink: its path relative to the local root, and
// its target in portable form.
type Record struct {
	Path   string
	Target string
}

// Capture walks the given items under localRoot and returns one record per
// discovered symlink. An item that is itself a symlink is recorded directly;
// a directory item is walked recursively. Regular files are the transfer
// tool's business and are skipped here.
//
// The walk uses Lstat semantics throughout, so links are never followed.
func Capture(localRoot string, items []string) ([]Record, error) {
	var records []Record
	seen := map[string]int{}

	record := func(rel, target string) {
		rec := Record{Path: rel, Target: MakePortable(target, localRoot)}
		if i, ok := seen[rel]; ok {
			// Shouldn't happen with a sane item list. Last write wins.
			log.WithField("path", rel).Warn(
				"Symlink recorded twice, keeping the latest target")
			records[i] = rec
			return
		}
		seen[rel] = len(records)
		records = append(records, rec)
	}

	for _, item := range items {
		rel := strings.TrimSuffix(item, "/")
		full := filepath.Join(localRoot, rel)

		info, err := os.Lstat(full)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.WithContext(err, "inspect item")
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(full)
			if err != nil {
				return nil, errors.WithContext(err, "read link")
			}
			record(rel, target)
		case info.IsDir():
			if err := captureDir(localRoot, full, record); err != nil {
				return nil, err
			}
		}
	}
	return records, nil
}

func captureDir(localRoot, dir string, record func(rel, target string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.WithError(err).WithField("path", path).Warn(
				"Skipping unreadable path during symlink scan")
			return nil
		}
		if d.Type()&os.ModeSymlink == 0 {
			return nil
		}

		target, err := os.Readlink(path)
		if err != nil {
			return errors.WithContext(err, "read link")
		}

		rel, err := filepath.Rel(localRoot, path)
		if err != nil {
			return errors.WithContext(err, "relativize link path")
		}
		record(rel, target)
		return nil
	})
}

// WriteMetadata serializes records to a temporary file and returns its path.
// An empty record list returns an empty path: there's nothing worth pushing
// to the remote in that case.
func WriteMetadata(records []Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	f, err := os.CreateTemp("", "syncb-symlinks-*")
	if err != nil {
		return "", errors.WithContext(err, "create metadata file")
	}
	defer f.Close()

	for _, rec := range records {
		if _, err := fmt.Fprintf(f, "%s\t%s\n", rec.Path, rec.Target); err != nil {
			os.Remove(f.Name())
			return "", errors.WithContext(err, "write metadata file")
		}
	}
	return f.Name(), nil
}
