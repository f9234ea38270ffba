package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"song.mp3", "song.mp3"},
		{"a b.mp3", "a_b.mp3"},
		{"  padded.mp3  ", "padded.mp3"},
		{"path/to/song.mp3", "path_to_song.mp3"},
		{`back\slash.mp3`, "back_slash.mp3"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"ünïcödé.mp3", "_n_c_d_.mp3"},
		{"UPPER-lower_0.9.mp3", "UPPER-lower_0.9.mp3"},
		{"", "upload.mp3"},
		{"   ", "upload.mp3"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}
}

func TestValidateMP3(t *testing.T) {
	id3 := append([]byte("ID3"), make([]byte, 7)...)
	sync := []byte{0xFF, 0xFB, 0x90, 0x00}

	t.Run("accepts ID3 header", func(t *testing.T) {
		name, err := ValidateMP3("a b.mp3", "audio/mpeg", id3, 1<<20)
		assert.NoError(t, err)
		assert.Equal(t, "a_b.mp3", name)
	})

	t.Run("accepts MPEG frame sync", func(t *testing.T) {
		_, err := ValidateMP3("song.mp3", "application/octet-stream", sync, 1<<20)
		assert.NoError(t, err)
	})

	t.Run("accepts missing content type", func(t *testing.T) {
		_, err := ValidateMP3("song.mp3", "", id3, 1<<20)
		assert.NoError(t, err)
	})

	t.Run("rejects wrong extension", func(t *testing.T) {
		_, err := ValidateMP3("song.wav", "audio/mpeg", id3, 1<<20)
		assert.ErrorIs(t, err, ErrNotMP3)
	})

	t.Run("rejects wrong content type", func(t *testing.T) {
		_, err := ValidateMP3("song.mp3", "text/html", id3, 1<<20)
		assert.ErrorIs(t, err, ErrBadContentType)
	})

	t.Run("rejects empty file", func(t *testing.T) {
		_, err := ValidateMP3("song.mp3", "audio/mpeg", nil, 1<<20)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		_, err := ValidateMP3("song.mp3", "audio/mpeg", id3, 5)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("rejects bad magic", func(t *testing.T) {
		_, err := ValidateMP3("song.mp3", "audio/mpeg", []byte("not audio at all"), 1<<20)
		assert.ErrorIs(t, err, ErrNotValidAudio)
	})
}
