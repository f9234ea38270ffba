package media

import (
	"regexp"
	"strings"
)

// DefaultUploadName is substituted when sanitization leaves nothing usable.
const DefaultUploadName = "upload.mp3"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a client-supplied filename to a safe form: it can
// never contain path separators or characters outside [A-Za-z0-9._-]. The
// same helper covers both the stored on-disk name and the filename embedded
// in the Content-Disposition header.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if name == "" {
		return DefaultUploadName
	}
	return name
}
