package symlinks

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncb/pkg/errors"
)

// RecreateResult counts the outcomes of one recreation pass.
type RecreateResult struct {
	Created  int
	Existing int
	Errors   int
}

// FetchMetadata stages the metadata file for recreation. The remote copy wins
// when present; otherwise a local leftover from an interrupted run is reused.
// Neither existing is a clean no-op, reported via found=false.
func FetchMetadata(localRoot, remoteRoot string) (path string, found bool, err error) {
	remote := filepath.Join(remoteRoot, MetadataFile)
	local := filepath.Join(localRoot, MetadataFile)

	if _, err := os.Stat(remote); err == nil {
		if err := copyFile(remote, local); err != nil {
			return "", false, errors.WithContext(err, "fetch metadata file")
		}
		return local, true, nil
	}

	if _, err := os.Stat(local); err == nil {
		log.Info("Reusing symlink metadata left by a previous run")
		return local, true, nil
	}
	return "", false, nil
}

// Recreate materializes every record in the metadata file at metaPath as a
// local symlink under localRoot. Individual failures are counted and logged
// but never stop the pass. On a real (non-simulated) run the metadata file is
// removed once recreation finishes.
func Recreate(localRoot, metaPath, username string, simulate bool) (RecreateResult, error) {
	contents, err := os.ReadFile(metaPath)
	if err != nil {
		return RecreateResult{}, errors.WithContext(err, "read metadata file")
	}

	var result RecreateResult
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		rel, portable, ok := strings.Cut(line, "\t")
		if !ok {
			log.WithField("line", line).Warn(
				"Skipping malformed symlink metadata line")
			continue
		}

		target := ExpandPortable(portable, localRoot, username)
		switch created, err := materialize(localRoot, rel, target, simulate); {
		case err != nil:
			log.WithError(err).WithField("path", rel).Error(
				"Failed to recreate symlink")
			result.Errors++
		case created:
			result.Created++
		default:
			result.Existing++
		}
	}

	if !simulate {
		if err := os.Remove(metaPath); err != nil {
			log.WithError(err).Warn("Failed to clean up symlink metadata file")
		}
	}
	return result, nil
}

// materialize creates (or confirms) a single symlink. It returns true when a
// link was created, false when a correct link was already in place.
func materialize(localRoot, rel, target string, simulate bool) (bool, error) {
	full := filepath.Join(localRoot, rel)

	if !simulate {
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return false, errors.WithContext(err, "create parent directory")
		}
	}

	if info, err := os.Lstat(full); err == nil && info.Mode()&os.ModeSymlink != 0 {
		// The comparison is on the literal target string. An equivalent but
		// differently-spelled target counts as incorrect and gets replaced.
		current, err := os.Readlink(full)
		if err == nil && current == target {
			log.WithField("path", rel).Debug("Symlink already correct")
			return false, nil
		}
		if !simulate {
			if err := os.Remove(full); err != nil {
				return false, errors.WithContext(err, "replace existing link")
			}
		}
	}

	if simulate {
		log.Infof("DRY RUN: ln -sfn %q %q", target, full)
		return true, nil
	}

	if err := os.Symlink(target, full); err != nil {
		return false, errors.WithContext(err, "create link")
	}
	log.WithField("path", rel).Infof("Created symlink -> %s", target)
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
