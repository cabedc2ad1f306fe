package lock

import (
	"encoding/json"
	"os"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/syncb/pkg/errors"
)

// Token is the record stored in the lock file. Unknown fields in the file are
// ignored so that newer syncb versions can extend the format.
type Token struct {
	Pid       int    `json:"pid"`
	Timestamp int64  `json:"timestamp"`
	StartTime string `json:"start_time,omitempty"`
	Direction string `json:"direction,omitempty"`
	User      string `json:"user,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
}

// Manager guards a whole run against concurrent syncb processes via a token
// file at a well-known path.
type Manager struct {
	path  string
	fs    afero.Fs
	clock clockwork.Clock

	// pid is the id recorded in tokens we write, and pidAlive probes whether
	// a recorded owner still exists. Both are injectable so tests can
	// simulate other processes.
	pid      int
	pidAlive func(int) bool
}

// New creates a Manager for the token file at path.
func New(path string) *Manager {
	return &Manager{
		path:     path,
		fs:       afero.NewOsFs(),
		clock:    clockwork.NewRealClock(),
		pid:      os.Getpid(),
		pidAlive: processAlive,
	}
}

// Acquire takes the lock, reclaiming any token that's corrupt, older than
// staleAfter, or owned by a process that no longer exists. A token held by a
// live process within the staleness window fails with AlreadyLockedError and
// is never touched.
func (m *Manager) Acquire(direction string, staleAfter time.Duration) error {
	// A corrupt or stale token is discarded and acquisition retried exactly
	// once. A second conflict means something is actively racing us.
	for attempt := 0; attempt < 2; attempt++ {
		token, err := m.read()
		switch {
		case err == errNoToken:
			return m.write(direction)
		case err != nil:
			log.WithError(err).Warn("Removing unreadable lock token")
			if err := m.fs.Remove(m.path); err != nil {
				return errors.WithContext(err, "remove corrupt lock")
			}
			continue
		}

		acquired := time.Unix(token.Timestamp, 0)
		age := m.clock.Now().Sub(acquired)
		if age > staleAfter {
			log.WithField("age", age.Round(time.Second)).Warn(
				"Removing stale lock token")
			if err := m.fs.Remove(m.path); err != nil {
				return errors.WithContext(err, "remove stale lock")
			}
			continue
		}

		if !m.pidAlive(token.Pid) {
			log.WithField("pid", token.Pid).Warn(
				"Removing lock token left behind by a dead process")
			if err := m.fs.Remove(m.path); err != nil {
				return errors.WithContext(err, "remove abandoned lock")
			}
			continue
		}

		return errors.AlreadyLockedError{Pid: token.Pid, Acquired: acquired}
	}
	return errors.New("failed to acquire lock after retry")
}

// Release deletes the token only if this process owns it. Tokens written by
// other runs are left alone.
func (m *Manager) Release() error {
	token, err := m.read()
	switch {
	case err == errNoToken:
		return nil
	case err != nil:
		// An unreadable token can't belong to anyone; clear it.
		return m.fs.Remove(m.path)
	case token.Pid != m.pid:
		log.WithField("pid", token.Pid).Debug(
			"Lock is owned by another process, leaving it in place")
		return nil
	}
	return m.fs.Remove(m.path)
}

// ForceRelease unconditionally deletes the token. Operator escape hatch only;
// it bypasses the ownership check.
func (m *Manager) ForceRelease() error {
	if _, err := m.fs.Stat(m.path); os.IsNotExist(err) {
		return nil
	}
	return m.fs.Remove(m.path)
}

var errNoToken = errors.New("no lock token")

func (m *Manager) read() (Token, error) {
	contents, err := afero.ReadFile(m.fs, m.path)
	if os.IsNotExist(err) {
		return Token{}, errNoToken
	} else if err != nil {
		return Token{}, errors.WithContext(err, "read lock")
	}

	var token Token
	if err := json.Unmarshal(contents, &token); err != nil {
		return Token{}, errors.WithContext(err, "parse lock")
	}
	if token.Pid == 0 {
		return Token{}, errors.New("lock token has no pid")
	}
	return token, nil
}

func (m *Manager) write(direction string) error {
	now := m.clock.Now()
	hostname, _ := os.Hostname()
	token := Token{
		Pid:       m.pid,
		Timestamp: now.Unix(),
		StartTime: now.Format(time.RFC3339),
		Direction: direction,
		User:      os.Getenv("USER"),
		Hostname:  hostname,
	}

	contents, err := json.Marshal(token)
	if err != nil {
		return errors.WithContext(err, "marshal lock")
	}

	// O_EXCL so that two racing processes can't both think they won. Failing
	// to write is fatal to the run -- exclusivity can't be guaranteed.
	f, err := m.fs.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.WithContext(err, "create lock")
	}
	defer f.Close()

	if _, err := f.Write(contents); err != nil {
		return errors.WithContext(err, "write lock")
	}
	return nil
}

// processAlive reports whether pid exists on this host, via a signal-zero
// probe. EPERM still means the process exists.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}
