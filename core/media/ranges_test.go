package media

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		fileSize int64
		want     *ByteRange
	}{
		{"empty header", "", 1000, nil},
		{"missing prefix", "0-499", 1000, nil},
		{"wrong unit", "items=0-499", 1000, nil},
		{"simple range", "bytes=0-499", 1000, &ByteRange{0, 499}},
		{"mid range", "bytes=100-199", 1000, &ByteRange{100, 199}},
		{"open ended", "bytes=100-", 1000, &ByteRange{100, 999}},
		{"suffix range", "bytes=-500", 1000, &ByteRange{500, 999}},
		{"suffix larger than file", "bytes=-5000", 1000, &ByteRange{0, 999}},
		{"suffix zero", "bytes=-0", 1000, nil},
		{"suffix negative", "bytes=--5", 1000, nil},
		{"multi range", "bytes=0-100,200-300", 1000, nil},
		{"both empty", "bytes=-", 1000, nil},
		{"bare spec", "bytes=", 1000, nil},
		{"end before start", "bytes=500-100", 1000, nil},
		{"start at size", "bytes=1000-", 1000, nil},
		{"start past size", "bytes=2000-3000", 1000, nil},
		{"end clamped", "bytes=900-5000", 1000, &ByteRange{900, 999}},
		{"negative start", "bytes=-5-10", 1000, nil},
		{"garbage start", "bytes=abc-10", 1000, nil},
		{"garbage end", "bytes=10-abc", 1000, nil},
		{"single byte", "bytes=0-0", 1000, &ByteRange{0, 0}},
		{"last byte", "bytes=999-999", 1000, &ByteRange{999, 999}},
		{"whitespace tolerated", "bytes= 0-499 ", 1000, &ByteRange{0, 499}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRange(tt.header, tt.fileSize)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Explicitly requesting the whole file yields the full window; the caller
// then answers 206 instead of 200 but with identical bytes.
func TestParseRangeFullFile(t *testing.T) {
	for _, fileSize := range []int64{1, 2, 10, 4096, 1 << 20} {
		header := fmt.Sprintf("bytes=0-%d", fileSize-1)
		got := ParseRange(header, fileSize)
		require.NotNil(t, got, "header %q", header)
		assert.Equal(t, int64(0), got.Start)
		assert.Equal(t, fileSize-1, got.End)
		assert.Equal(t, fileSize, got.Length())
	}
}

func TestParseRangeSuffixWithinFile(t *testing.T) {
	const fileSize = int64(1000)
	for _, n := range []int64{1, 10, 999, 1000} {
		header := fmt.Sprintf("bytes=-%d", n)
		got := ParseRange(header, fileSize)
		require.NotNil(t, got, "header %q", header)
		assert.Equal(t, fileSize-n, got.Start)
		assert.Equal(t, fileSize-1, got.End)
	}
}

func TestByteRangeContentRange(t *testing.T) {
	r := ByteRange{Start: 2, End: 5}
	assert.Equal(t, "bytes 2-5/10", r.ContentRange(10))
	assert.Equal(t, int64(4), r.Length())
}
