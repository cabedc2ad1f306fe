package symlinks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMeta(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, MetadataFile)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestRecreate(t *testing.T) {
	root := t.TempDir()
	meta := writeMeta(t, root,
		"docs/link\t/home/$USERNAME/notes.txt\n"+
			"hosts\t/etc/hosts\n")

	result, err := Recreate(root, meta, "user42", false)
	require.NoError(t, err)
	assert.Equal(t, RecreateResult{Created: 2}, result)

	// Placeholder targets resolve against the new local root, verbatim
	// targets stay untouched. Parent directories are created on demand.
	target, err := os.Readlink(filepath.Join(root, "docs", "link"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "notes.txt"), target)

	target, err = os.Readlink(filepath.Join(root, "hosts"))
	require.NoError(t, err)
	assert.Equal(t, "/etc/hosts", target)

	_, err = os.Stat(meta)
	assert.True(t, os.IsNotExist(err),
		"the metadata file must be removed after a real run")
}

func TestRecreateIdempotent(t *testing.T) {
	root := t.TempDir()
	line := "docs/link\t/home/$USERNAME/notes.txt\n"

	result, err := Recreate(root, writeMeta(t, root, line), "user42", false)
	require.NoError(t, err)
	assert.Equal(t, RecreateResult{Created: 1}, result)

	result, err = Recreate(root, writeMeta(t, root, line), "user42", false)
	require.NoError(t, err)
	assert.Equal(t, RecreateResult{Existing: 1}, result,
		"a second pass must confirm every link without mutating")
}

func TestRecreateReplacesWrongTarget(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0755))
	require.NoError(t, os.Symlink("/somewhere/else",
		filepath.Join(root, "docs", "link")))

	meta := writeMeta(t, root, "docs/link\t/home/$USERNAME/notes.txt\n")
	result, err := Recreate(root, meta, "user42", false)
	require.NoError(t, err)
	assert.Equal(t, RecreateResult{Created: 1}, result)

	target, err := os.Readlink(filepath.Join(root, "docs", "link"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "notes.txt"), target)
}

func TestRecreateSkipsMalformedLines(t *testing.T) {
	root := t.TempDir()
	meta := writeMeta(t, root,
		"no tab on this line\n"+
			"\n"+
			"good/link\t/etc/hosts\n")

	result, err := Recreate(root, meta, "user42", false)
	require.NoError(t, err)
	assert.Equal(t, RecreateResult{Created: 1}, result)
}

func TestRecreateContinuesPastErrors(t *testing.T) {
	root := t.TempDir()

	// A regular file at the link path can't be replaced, so this record
	// fails; the next one must still be processed.
	require.NoError(t, os.WriteFile(filepath.Join(root, "blocked"), nil, 0644))
	meta := writeMeta(t, root,
		"blocked\t/etc/hosts\n"+
			"fine\t/etc/hosts\n")

	result, err := Recreate(root, meta, "user42", false)
	require.NoError(t, err)
	assert.Equal(t, RecreateResult{Created: 1, Errors: 1}, result)
}

func TestRecreateSimulate(t *testing.T) {
	root := t.TempDir()
	meta := writeMeta(t, root, "docs/link\t/home/$USERNAME/notes.txt\n")

	result, err := Recreate(root, meta, "user42", true)
	require.NoError(t, err)
	assert.Equal(t, RecreateResult{Created: 1}, result,
		"simulated creations still count for reporting")

	_, err = os.Lstat(filepath.Join(root, "docs", "link"))
	assert.True(t, os.IsNotExist(err), "simulate must not touch the filesystem")

	_, err = os.Stat(meta)
	assert.NoError(t, err, "simulate must keep the metadata file around")
}

func TestRecreateDanglingTargetAccepted(t *testing.T) {
	root := t.TempDir()
	meta := writeMeta(t, root, "dangling\t/home/$USERNAME/never/created\n")

	result, err := Recreate(root, meta, "user42", false)
	require.NoError(t, err)
	assert.Equal(t, RecreateResult{Created: 1}, result)

	target, err := os.Readlink(filepath.Join(root, "dangling"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "never", "created"), target)
}

func TestFetchMetadata(t *testing.T) {
	t.Run("RemoteWins", func(t *testing.T) {
		local, remote := t.TempDir(), t.TempDir()
		writeMeta(t, remote, "remote-copy\t/etc/hosts\n")
		writeMeta(t, local, "stale-local\t/etc/hosts\n")

		path, found, err := FetchMetadata(local, remote)
		require.NoError(t, err)
		require.True(t, found)

		contents, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "remote-copy\t/etc/hosts\n", string(contents))
	})

	t.Run("LocalLeftover", func(t *testing.T) {
		local, remote := t.TempDir(), t.TempDir()
		writeMeta(t, local, "leftover\t/etc/hosts\n")

		path, found, err := FetchMetadata(local, remote)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, filepath.Join(local, MetadataFile), path)
	})

	t.Run("Neither", func(t *testing.T) {
		_, found, err := FetchMetadata(t.TempDir(), t.TempDir())
		require.NoError(t, err)
		assert.False(t, found)
	})
}
