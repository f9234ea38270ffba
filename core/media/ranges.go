package media

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is an inclusive [Start, End] byte window within a file,
// 0 <= Start <= End <= fileSize-1. Computed per request, never persisted.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the window.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value for a 206 response.
func (r ByteRange) ContentRange(fileSize int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, fileSize)
}

// ParseRange parses a single HTTP Range header value ("bytes=start-end")
// against a file of the given size.
//
// It returns nil whenever the header is absent, malformed, multi-range, or
// out of bounds; the caller then serves the full content with a 200 rather
// than answering 416.
func ParseRange(header string, fileSize int64) *ByteRange {
	if header == "" {
		return nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil
	}
	spec = strings.TrimSpace(spec)

	// Only a single range is supported; multi-range requests get the whole file.
	if strings.Contains(spec, ",") {
		return nil
	}

	startPart, endPart, _ := strings.Cut(spec, "-")
	startPart = strings.TrimSpace(startPart)
	endPart = strings.TrimSpace(endPart)

	if startPart == "" && endPart == "" {
		return nil
	}

	if startPart == "" {
		// Suffix range: the last N bytes.
		suffixLen, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil || suffixLen <= 0 {
			return nil
		}
		start := fileSize - suffixLen
		if start < 0 {
			start = 0
		}
		return &ByteRange{Start: start, End: fileSize - 1}
	}

	start, err := strconv.ParseInt(startPart, 10, 64)
	if err != nil || start < 0 {
		return nil
	}

	end := fileSize - 1
	if endPart != "" {
		end, err = strconv.ParseInt(endPart, 10, 64)
		if err != nil {
			return nil
		}
	}

	if end < start {
		return nil
	}
	if start >= fileSize {
		return nil
	}
	if end > fileSize-1 {
		end = fileSize - 1
	}

	return &ByteRange{Start: start, End: end}
}
