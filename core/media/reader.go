package media

import (
	"fmt"
	"io"
	"os"
)

// RangeReader streams the inclusive byte window [Start, End] of a file as a
// finite, non-restartable sequence of chunks no larger than chunkSize.
//
// The file handle is owned by the reader: it is opened and seeked in
// OpenRange and released by Close, which is safe to call both after
// exhaustion and when the consumer abandons the stream mid-way (client
// disconnect). A short read or early EOF is treated as end-of-stream rather
// than an error, so a file shrinking under a concurrent writer cannot wedge
// a response.
type RangeReader struct {
	file      *os.File
	remaining int64
	buf       []byte
	closed    bool
}

// OpenRange opens path, seeks to r.Start and returns a reader covering
// exactly r. chunkSize bounds the size of each produced chunk.
func OpenRange(path string, r ByteRange, chunkSize int64) (*RangeReader, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", chunkSize)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open media file: %w", err)
	}
	if _, err := f.Seek(r.Start, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to seek to offset %d: %w", r.Start, err)
	}
	return &RangeReader{
		file:      f,
		remaining: r.Length(),
		buf:       make([]byte, chunkSize),
	}, nil
}

// Next returns the next chunk of the window, valid until the following call.
// It returns io.EOF once the window is covered or the underlying file ends
// early, releasing the handle either way.
func (r *RangeReader) Next() ([]byte, error) {
	if r.closed || r.remaining <= 0 {
		r.Close()
		return nil, io.EOF
	}

	toRead := int64(len(r.buf))
	if r.remaining < toRead {
		toRead = r.remaining
	}

	n, err := r.file.Read(r.buf[:toRead])
	if n > 0 {
		r.remaining -= int64(n)
		return r.buf[:n], nil
	}
	// No data: either a clean EOF (file shrank) or a real read failure.
	r.Close()
	if err == nil || err == io.EOF {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("read failed mid-stream: %w", err)
}

// Read implements io.Reader over the remaining window, so the reader can be
// consumed via io.Copy as well as the chunk-at-a-time Next.
func (r *RangeReader) Read(p []byte) (int, error) {
	if r.closed || r.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.file.Read(p)
	r.remaining -= int64(n)
	return n, err
}

// Close releases the file handle. Idempotent.
func (r *RangeReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}
