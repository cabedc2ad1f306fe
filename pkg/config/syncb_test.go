package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigPath = "/home/test/.syncb.yaml"

func mockHome(t *testing.T) {
	t.Helper()
	origExpand := homedirExpand
	homedirExpand = func(path string) (string, error) {
		if path == "~" {
			return "/home/test", nil
		}
		if len(path) > 1 && path[:2] == "~/" {
			return "/home/test/" + path[2:], nil
		}
		return path, nil
	}
	t.Cleanup(func() { homedirExpand = origExpand })
}

func mockFs(t *testing.T, contents string) {
	t.Helper()
	origFs := fs
	fs = afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testConfigPath, []byte(contents), 0644))
	t.Cleanup(func() { fs = origFs })
}

func TestParseDefaults(t *testing.T) {
	mockHome(t)
	mockFs(t, `
hosts:
  default:
    items:
      - documents
      - .config/app
`)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "/home/test", cfg.LocalDir)
	assert.Equal(t, "/home/test/pCloudDrive", cfg.MountPoint)
	assert.Equal(t, "/home/test/pCloudDrive/Backups/Backup_Comun", cfg.RemoteCommon)
	assert.Equal(t, 3600, cfg.LockStaleSeconds)
	assert.Equal(t, 30, cfg.TimeoutMinutes)
	assert.Equal(t, uint64(500), cfg.MinFreeMB)
	assert.Equal(t, "/home/test/syncb.log", cfg.LogFile)
}

func TestParseExplicitValues(t *testing.T) {
	mockHome(t)
	mockFs(t, `
localDir: ~/data
mountPoint: /mnt/cloud
lockStaleSeconds: 600
timeoutMinutes: 5
exclude:
  - ".cache"
excludeFrom: ~/.syncb_excludes
hosts:
  workstation:
    items: [projects]
    exclude: ["*.iso"]
  default:
    items: [documents]
`)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "/home/test/data", cfg.LocalDir)
	assert.Equal(t, "/mnt/cloud", cfg.MountPoint)
	assert.Equal(t, "/mnt/cloud/Backups/Backup_Comun", cfg.RemoteCommon)
	assert.Equal(t, 600, cfg.LockStaleSeconds)
	assert.Equal(t, []string{".cache"}, cfg.Exclude)
	assert.Equal(t, "/home/test/.syncb_excludes", cfg.ExcludeFrom)
	assert.Equal(t, []string{"*.iso"}, cfg.Hosts["workstation"].Exclude)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	mockHome(t)
	mockFs(t, `
hosts:
  default:
    items: [documents]
extraField: true
`)

	_, err := Parse()
	require.Error(t, err)
}

func TestParseRejectsWrongVersion(t *testing.T) {
	mockHome(t)
	mockFs(t, `
version: v9
hosts:
  default:
    items: [documents]
`)

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incompatible")
}

func TestParseMissingFile(t *testing.T) {
	mockHome(t)
	origFs := fs
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = origFs })

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doesn't exist")
}

func TestParseRequiresHosts(t *testing.T) {
	mockHome(t)
	mockFs(t, "localDir: ~/data\n")

	_, err := Parse()
	require.Error(t, err)
}

func TestHostItems(t *testing.T) {
	cfg := Config{Hosts: map[string]Host{
		"workstation": {Items: []string{"projects"}},
		"default":     {Items: []string{"documents"}},
	}}

	host, err := cfg.HostItems("workstation")
	require.NoError(t, err)
	assert.Equal(t, []string{"projects"}, host.Items)

	host, err = cfg.HostItems("laptop")
	require.NoError(t, err)
	assert.Equal(t, []string{"documents"}, host.Items,
		"unknown hosts fall back to the default entry")

	cfg.Hosts = map[string]Host{"workstation": {Items: []string{"projects"}}}
	_, err = cfg.HostItems("laptop")
	assert.Error(t, err, "no entry and no default is a configuration error")
}

func TestRemoteRoot(t *testing.T) {
	cfg := Config{RemoteCommon: "/mnt/common", RemoteReadOnly: "/mnt/readonly"}
	assert.Equal(t, "/mnt/common", cfg.RemoteRoot(false))
	assert.Equal(t, "/mnt/readonly", cfg.RemoteRoot(true))
}
