package config

import (
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/sidkik/syncb/pkg/errors"
)

const (
	// ConfigPath is the default path to the syncb config.
	ConfigPath = "~/.syncb.yaml"

	// InitialConfigVersion is the first version of the syncb config. Config
	// files that do not specify a version will default to this version.
	InitialConfigVersion = "v1alpha1"

	// SupportedConfigVersion is the supported version of the syncb config of
	// the current syncb binary.
	SupportedConfigVersion = "v1alpha1"

	// DefaultHostKey is the hosts table entry used when the current hostname
	// has no override of its own.
	DefaultHostKey = "default"
)

// Config is the top-level syncb configuration.
type Config struct {
	Version string `json:"version,omitempty"`

	// LocalDir is the local synchronization root. Defaults to the user's
	// home directory.
	LocalDir string `json:"localDir,omitempty"`

	// MountPoint is where the cloud drive is mounted.
	MountPoint string `json:"mountPoint,omitempty"`

	// RemoteCommon is the writable remote root, and RemoteReadOnly the
	// machine-specific read-only backup root. Exactly one of the two is used
	// per run.
	RemoteCommon   string `json:"remoteCommon,omitempty"`
	RemoteReadOnly string `json:"remoteReadOnly,omitempty"`

	LockFile         string `json:"lockFile,omitempty"`
	LockStaleSeconds int    `json:"lockStaleSeconds,omitempty"`

	// TimeoutMinutes bounds each individual transfer.
	TimeoutMinutes int `json:"timeoutMinutes,omitempty"`

	LogFile string `json:"logFile,omitempty"`

	// MinFreeMB is the minimum free space required on the receiving side
	// before a run is allowed to start.
	MinFreeMB uint64 `json:"minFreeMB,omitempty"`

	// Exclude patterns applied to every transfer, before any CLI patterns.
	Exclude []string `json:"exclude,omitempty"`

	// ExcludeFrom is a file with one exclude pattern per line, handed to the
	// transfer tool ahead of the Exclude patterns.
	ExcludeFrom string `json:"excludeFrom,omitempty"`

	// Hosts maps hostnames to per-host item lists. The DefaultHostKey entry
	// is used for hosts without an override.
	Hosts map[string]Host `json:"hosts,omitempty"`

	Crypto *Crypto `json:"crypto,omitempty"`
}

// Host is the per-host synchronization list. Its Exclude patterns apply in
// addition to the global list whenever this entry is selected.
type Host struct {
	Items   []string `json:"items"`
	Exclude []string `json:"exclude,omitempty"`
}

// Crypto configures the optional secondary sync phase for the encrypted
// volume and the KeePass database directory.
type Crypto struct {
	LocalDir  string `json:"localDir"`
	RemoteDir string `json:"remoteDir"`

	// MountCheckFile must exist under RemoteDir for the phase to run. Its
	// absence means the encrypted volume isn't mounted.
	MountCheckFile string `json:"mountCheckFile"`

	LocalKeePassDir  string `json:"localKeePassDir,omitempty"`
	RemoteKeePassDir string `json:"remoteKeePassDir,omitempty"`
}

func (c Config) getVersion() string {
	return c.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// Parse reads the syncb config from the default path and fills in defaults
// for anything the user didn't set.
func Parse() (Config, error) {
	path, err := homedirExpand(ConfigPath)
	if err != nil {
		return Config{}, errors.WithContext(err, "expand config path")
	}
	return parseAt(path)
}

func parseAt(path string) (Config, error) {
	config := Config{Version: InitialConfigVersion}
	if err := parseConfig(path, &config, SupportedConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return Config{}, errors.NewFriendlyError("The syncb config file "+
				"doesn't exist at %q. Create it before running syncb.", path)
		}
		return Config{}, errors.WithContext(err, "parse")
	}

	if err := config.applyDefaults(); err != nil {
		return Config{}, err
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) applyDefaults() error {
	home, err := homedirExpand("~")
	if err != nil {
		return errors.WithContext(err, "resolve home directory")
	}

	if c.LocalDir == "" {
		c.LocalDir = home
	}
	if c.MountPoint == "" {
		c.MountPoint = filepath.Join(home, "pCloudDrive")
	}
	if c.RemoteCommon == "" {
		c.RemoteCommon = filepath.Join(c.MountPoint, "Backups", "Backup_Comun")
	}
	if c.RemoteReadOnly == "" {
		hostname, _ := os.Hostname()
		c.RemoteReadOnly = filepath.Join(c.MountPoint, "pCloud Backup", hostname)
	}
	if c.LockFile == "" {
		c.LockFile = filepath.Join(os.TempDir(), "syncb.lock")
	}
	if c.LockStaleSeconds == 0 {
		c.LockStaleSeconds = 3600
	}
	if c.TimeoutMinutes == 0 {
		c.TimeoutMinutes = 30
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(home, "syncb.log")
	}
	if c.MinFreeMB == 0 {
		c.MinFreeMB = 500
	}

	// The tilde forms are friendlier in the config file, so expand them here
	// rather than at every use site.
	for _, path := range []*string{
		&c.LocalDir, &c.MountPoint, &c.RemoteCommon, &c.RemoteReadOnly,
		&c.LockFile, &c.LogFile, &c.ExcludeFrom,
	} {
		expanded, err := homedirExpand(*path)
		if err != nil {
			return errors.WithContext(err, "expand path")
		}
		*path = expanded
	}

	if c.Crypto != nil {
		for _, path := range []*string{
			&c.Crypto.LocalDir, &c.Crypto.RemoteDir,
			&c.Crypto.LocalKeePassDir, &c.Crypto.RemoteKeePassDir,
		} {
			expanded, err := homedirExpand(*path)
			if err != nil {
				return errors.WithContext(err, "expand crypto path")
			}
			*path = expanded
		}
	}
	return nil
}

func (c Config) validate() error {
	if len(c.Hosts) == 0 {
		return errors.NewFriendlyError("The syncb config doesn't define any "+
			"hosts. Add a `hosts` table with at least a %q entry listing the "+
			"items to sync.", DefaultHostKey)
	}
	for name, host := range c.Hosts {
		if len(host.Items) == 0 {
			return errors.NewFriendlyError(
				"The host entry %q doesn't list any items to sync.", name)
		}
	}
	return nil
}

// HostItems returns the sync list for hostname, falling back to the default
// entry when the host has no override.
func (c Config) HostItems(hostname string) (Host, error) {
	if host, ok := c.Hosts[hostname]; ok {
		return host, nil
	}
	if host, ok := c.Hosts[DefaultHostKey]; ok {
		return host, nil
	}
	return Host{}, errors.NewFriendlyError(
		"No sync list is configured for host %q, and the config has no %q "+
			"entry to fall back to.", hostname, DefaultHostKey)
}

// RemoteRoot picks between the two remote root variants. The read-only root
// points at the per-machine backup area that pCloud maintains.
func (c Config) RemoteRoot(readOnly bool) string {
	if readOnly {
		return c.RemoteReadOnly
	}
	return c.RemoteCommon
}
