package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
}

func TestResolveEmptyReference(t *testing.T) {
	r := NewResolver(t.TempDir(), t.TempDir())
	_, ok := r.Resolve("")
	assert.False(t, ok)
}

func TestResolveAbsoluteReference(t *testing.T) {
	r := NewResolver(t.TempDir(), t.TempDir())
	// Absolute stored paths were written by the system itself; returned
	// as-is, existence checked by the caller.
	path, ok := r.Resolve("/srv/media/song.mp3")
	require.True(t, ok)
	assert.Equal(t, "/srv/media/song.mp3", path)
}

func TestResolveUnderMediaRoot(t *testing.T) {
	mediaRoot := t.TempDir()
	r := NewResolver(mediaRoot, t.TempDir())

	want := filepath.Join(mediaRoot, "abc_song.mp3")
	writeFile(t, want, []byte("ID3data"))

	path, ok := r.Resolve("abc_song.mp3")
	require.True(t, ok)
	assert.Equal(t, want, path)
}

func TestResolveSubdirectoryReference(t *testing.T) {
	mediaRoot := t.TempDir()
	r := NewResolver(mediaRoot, t.TempDir())

	want := filepath.Join(mediaRoot, "2024", "song.mp3")
	writeFile(t, want, []byte("ID3data"))

	path, ok := r.Resolve(filepath.Join("2024", "song.mp3"))
	require.True(t, ok)
	assert.Equal(t, want, path)
}

func TestResolveTraversalRejected(t *testing.T) {
	mediaRoot := t.TempDir()
	backendRoot := t.TempDir()
	r := NewResolver(mediaRoot, backendRoot)

	for _, ref := range []string{
		"../../etc/passwd",
		"../outside.mp3",
		"a/../../../etc/shadow",
	} {
		path, ok := r.Resolve(ref)
		assert.False(t, ok, "reference %q must be rejected", ref)
		assert.Empty(t, path)
	}
}

func TestResolveFallbackUnderBackendRoot(t *testing.T) {
	mediaRoot := t.TempDir()
	backendRoot := t.TempDir()
	r := NewResolver(mediaRoot, backendRoot)

	// File only exists under backendRoot/media, the historical layout.
	want := filepath.Join(backendRoot, "media", "old_song.mp3")
	writeFile(t, want, []byte("ID3data"))

	path, ok := r.Resolve("old_song.mp3")
	require.True(t, ok)
	assert.Equal(t, want, path)
}

func TestResolveFallbackDirectlyUnderBackendRoot(t *testing.T) {
	mediaRoot := t.TempDir()
	backendRoot := t.TempDir()
	r := NewResolver(mediaRoot, backendRoot)

	want := filepath.Join(backendRoot, "stray.mp3")
	writeFile(t, want, []byte("ID3data"))

	path, ok := r.Resolve("stray.mp3")
	require.True(t, ok)
	assert.Equal(t, want, path)
}

func TestResolvePrimaryWinsOverFallback(t *testing.T) {
	mediaRoot := t.TempDir()
	backendRoot := t.TempDir()
	r := NewResolver(mediaRoot, backendRoot)

	primary := filepath.Join(mediaRoot, "song.mp3")
	writeFile(t, primary, []byte("primary"))
	writeFile(t, filepath.Join(backendRoot, "media", "song.mp3"), []byte("fallback"))

	path, ok := r.Resolve("song.mp3")
	require.True(t, ok)
	assert.Equal(t, primary, path)
}

func TestResolveMissingReturnsPrimaryCandidate(t *testing.T) {
	mediaRoot := t.TempDir()
	r := NewResolver(mediaRoot, t.TempDir())

	// Nothing on disk: the resolver still hands back the primary candidate;
	// the caller turns absence into a 404.
	path, ok := r.Resolve("ghost.mp3")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(mediaRoot, "ghost.mp3"), path)
}

func TestResolveDirectoryIsNotAFile(t *testing.T) {
	mediaRoot := t.TempDir()
	r := NewResolver(mediaRoot, t.TempDir())

	require.NoError(t, os.MkdirAll(filepath.Join(mediaRoot, "dir.mp3"), 0755))

	// A directory never satisfies the existence check; the primary candidate
	// comes back for the caller's stat to reject.
	path, ok := r.Resolve("dir.mp3")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(mediaRoot, "dir.mp3"), path)
}

func TestResolveIdempotent(t *testing.T) {
	mediaRoot := t.TempDir()
	backendRoot := t.TempDir()
	r := NewResolver(mediaRoot, backendRoot)

	writeFile(t, filepath.Join(mediaRoot, "song.mp3"), []byte("ID3data"))

	first, ok1 := r.Resolve("song.mp3")
	second, ok2 := r.Resolve("song.mp3")
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}
