package media

import (
	"os"
	"path/filepath"
	"strings"

	"tunevault/logger"
)

// Resolver maps stored filename references to verified absolute paths on
// disk. All relative references are anchored to the media root; a small,
// fixed fallback list under the backend root absorbs historical layout drift
// between upload-time and stream-time deployments without weakening the
// traversal guard.
type Resolver struct {
	mediaRoot   string
	backendRoot string
}

// NewResolver builds a resolver for the given absolute roots.
func NewResolver(mediaRoot, backendRoot string) *Resolver {
	return &Resolver{
		mediaRoot:   filepath.Clean(mediaRoot),
		backendRoot: filepath.Clean(backendRoot),
	}
}

// Resolve computes the on-disk path for a stored reference.
//
// Rules:
//   - An absolute stored path is returned as-is; it was generated by this
//     system at upload time and the caller checks existence anyway.
//   - A relative path is joined under the media root, normalized, and must
//     remain a descendant of it. A traversal attempt reports the same
//     not-found result as a genuinely missing file, so the error shape never
//     reveals filesystem structure.
//   - If the primary candidate is missing, a deterministic fallback list
//     under the backend root is tried, each entry re-validated.
//   - When nothing exists, the primary candidate is still returned with
//     ok=true: turning "path that does not exist" into a user-facing 404 is
//     the caller's job, not the resolver's.
//
// ok=false means the reference was empty or rejected by the traversal guard.
func (r *Resolver) Resolve(storedRef string) (path string, ok bool) {
	if storedRef == "" {
		return "", false
	}

	if filepath.IsAbs(storedRef) {
		return filepath.Clean(storedRef), true
	}

	// Join collapses any "."/".." segments before the descendant check.
	candidate := filepath.Join(r.mediaRoot, storedRef)
	if !isWithin(candidate, r.mediaRoot) {
		logger.Warn("media path traversal rejected",
			logger.String("storedRef", storedRef),
			logger.String("mediaRoot", r.mediaRoot))
		return "", false
	}

	if isRegularFile(candidate) {
		return candidate, true
	}

	// Fallback search for deployments whose media root moved after upload.
	// Kept intentionally small and ordered.
	fallbacks := []string{
		filepath.Join(r.backendRoot, "media", storedRef),
		filepath.Join(r.backendRoot, storedRef),
	}
	for _, fb := range fallbacks {
		if !isWithin(fb, r.backendRoot) {
			continue
		}
		if isRegularFile(fb) {
			logger.Warn("media path fallback hit",
				logger.String("storedRef", storedRef),
				logger.String("resolved", fb),
				logger.String("mediaRoot", r.mediaRoot),
				logger.String("backendRoot", r.backendRoot))
			return fb, true
		}
	}

	// Nothing found: hand back the primary candidate and let the caller
	// convert absence into its not-found response.
	return candidate, true
}

// isWithin reports whether path is root itself or a descendant of root.
// Both arguments must already be clean.
func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
