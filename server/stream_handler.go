package server

import (
	"io"
	"net/http"
	"os"
	"strconv"

	"tunevault/core/media"
	"tunevault/logger"
)

// StreamSongHandler serves a song's bytes with single-range HTTP Range
// support: 200 for full content, 206 for a valid partial window. Malformed
// or unsatisfiable Range headers silently degrade to the full file. A
// missing, non-regular or empty file and any traversal rejection all surface
// as the same JSON 404.
func (h *APIHandler) StreamSongHandler(w http.ResponseWriter, r *http.Request) {
	song, ok := h.loadSong(w, r)
	if !ok {
		return
	}

	path, resolved := h.resolver.Resolve(song.Filename)
	if !resolved {
		writeNotFound(w, "File missing on server.")
		return
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		logger.Warn("media file missing",
			logger.String("songId", song.ID),
			logger.String("path", path))
		writeNotFound(w, "File missing on server.")
		return
	}

	fileSize := info.Size()
	if fileSize <= 0 {
		// An empty media file is corrupt, not an empty-but-valid stream.
		logger.Warn("media file empty",
			logger.String("songId", song.ID),
			logger.String("path", path))
		writeNotFound(w, "File missing on server.")
		return
	}

	rangeHeader := r.Header.Get("Range")
	byteRange := media.ParseRange(rangeHeader, fileSize)

	logger.Info("streaming song",
		logger.String("songId", song.ID),
		logger.String("path", path),
		logger.Int64("fileSize", fileSize),
		logger.String("range", rangeHeader))

	dispositionName := media.SanitizeFilename(song.Title) + ".mp3"
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `inline; filename="`+dispositionName+`"`)

	status := http.StatusOK
	window := media.ByteRange{Start: 0, End: fileSize - 1}
	if byteRange != nil {
		status = http.StatusPartialContent
		window = *byteRange
		w.Header().Set("Content-Range", window.ContentRange(fileSize))
	}
	w.Header().Set("Content-Length", strconv.FormatInt(window.Length(), 10))

	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}

	reader, err := media.OpenRange(path, window, h.cfg.StreamChunkSize)
	if err != nil {
		logger.Error("stream setup failed",
			logger.String("songId", song.ID),
			logger.String("path", path),
			logger.ErrorField(err))
		writeJSONError(w, http.StatusInternalServerError, "stream_setup_failed", "Failed to open media file.")
		return
	}
	defer reader.Close()

	w.WriteHeader(status)

	flusher, _ := w.(http.Flusher)
	for {
		chunk, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			// Mid-stream read failure: the response simply ends; the client
			// retries with a fresh Range request.
			logger.Error("stream read failed",
				logger.String("songId", song.ID),
				logger.ErrorField(err))
			return
		}
		if _, err := w.Write(chunk); err != nil {
			logger.Debug("client aborted stream",
				logger.String("songId", song.ID),
				logger.ErrorField(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
