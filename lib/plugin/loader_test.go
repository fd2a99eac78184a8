package plugin

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverFiltersCandidates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("library suffix differs on windows")
	}
	dir := t.TempDir()
	for _, name := range []string{"a.so", "b.so", "notes.txt", "README"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.so"), 0o755))

	paths, err := NewLoader(quietLogger()).Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.so"),
		filepath.Join(dir, "b.so"),
	}, paths)
}

func TestDiscoverMissingDirectory(t *testing.T) {
	_, err := NewLoader(quietLogger()).Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(quietLogger()).Load(filepath.Join(t.TempDir(), "ghost.so"))
	require.Error(t, err)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoadRejectsNonLibrary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.so")
	require.NoError(t, os.WriteFile(path, []byte("not a shared object"), 0o644))

	_, err := NewLoader(quietLogger()).Load(path)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestIsLibrary(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.True(t, isLibrary("x.dll"))
		assert.False(t, isLibrary("x.so"))
		return
	}
	assert.True(t, isLibrary("x.so"))
	assert.False(t, isLibrary("x.txt"))
	assert.False(t, isLibrary("x"))
}
