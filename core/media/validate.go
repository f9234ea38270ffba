package media

import (
	"errors"
	"strings"
)

// Upload validation errors. Handlers map these onto HTTP status codes.
var (
	ErrNotMP3         = errors.New("only .mp3 files are supported")
	ErrBadContentType = errors.New("invalid content type; expected audio/mpeg")
	ErrEmptyFile      = errors.New("empty file")
	ErrFileTooLarge   = errors.New("file too large")
	ErrNotValidAudio  = errors.New("file does not look like a valid mp3")
)

// ValidateMP3 performs basic mp3 upload validation and returns the sanitized
// filename to store under.
//
// Accepted: a .mp3 extension after sanitization; a content type containing
// audio/mpeg or application/octet-stream (some browsers send the latter), or
// none at all; and leading bytes carrying either an ID3 tag or an MPEG frame
// sync. The magic check is deliberately loose.
func ValidateMP3(filename, contentType string, content []byte, maxBytes int64) (string, error) {
	if filename == "" {
		filename = DefaultUploadName
	}
	safeName := SanitizeFilename(filename)

	if !strings.HasSuffix(strings.ToLower(safeName), ".mp3") {
		return "", ErrNotMP3
	}

	ct := strings.ToLower(contentType)
	if ct != "" && !strings.Contains(ct, "audio/mpeg") && !strings.Contains(ct, "application/octet-stream") {
		return "", ErrBadContentType
	}

	if len(content) == 0 {
		return "", ErrEmptyFile
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return "", ErrFileTooLarge
	}

	isID3 := len(content) >= 3 && string(content[:3]) == "ID3"
	isMPEGSync := len(content) >= 2 && content[0] == 0xFF && content[1]&0xE0 == 0xE0
	if !isID3 && !isMPEGSync {
		return "", ErrNotValidAudio
	}

	return safeName, nil
}
