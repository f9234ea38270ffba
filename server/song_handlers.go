package server

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"tunevault/config"
	"tunevault/core/media"
	"tunevault/logger"
	"tunevault/model"
	"tunevault/repository"
	"tunevault/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// coverURLBase is the route prefix cover art is served from.
const coverURLBase = "/api/covers"

const maxCoverBytes = 5 << 20 // 5MB

// maxConcurrentUploads bounds how many uploads are processed at once.
const maxConcurrentUploads = 5

var uploadSemaphore = make(chan struct{}, maxConcurrentUploads)

// APIHandler handles all API requests. Dependencies are injected at
// construction; there is no package-level database or session state.
type APIHandler struct {
	songRepo repository.SongRepository
	userRepo repository.UserRepository
	resolver *media.Resolver
	covers   *storage.CoverStore // nil when object storage is not configured
	cfg      *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	songRepo repository.SongRepository,
	userRepo repository.UserRepository,
	resolver *media.Resolver,
	covers *storage.CoverStore,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		songRepo: songRepo,
		userRepo: userRepo,
		resolver: resolver,
		covers:   covers,
		cfg:      cfg,
	}
}

// SongUploadResponse is returned after a successful upload.
type SongUploadResponse struct {
	model.SongResponse
	Filename string `json:"filename"`
}

// UploadSongHandler accepts a multipart mp3 upload, validates it, writes the
// file under the media root and records its metadata. Public: when a valid
// bearer token is present the song is tagged with its owner, otherwise it is
// unowned.
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	logger.Info("handling upload request",
		logger.String("remoteAddr", r.RemoteAddr),
		logger.Int64("contentLength", r.ContentLength))

	if r.ContentLength > h.cfg.MaxUploadBytes {
		logger.Warn("upload rejected, request too large",
			logger.Int64("contentLength", r.ContentLength),
			logger.Int64("maxBytes", h.cfg.MaxUploadBytes))
		writeJSONError(w, http.StatusRequestEntityTooLarge, "file_too_large", "File too large.")
		return
	}

	select {
	case uploadSemaphore <- struct{}{}:
		defer func() { <-uploadSemaphore }()
	default:
		logger.Warn("upload rejected, server busy")
		writeJSONError(w, http.StatusServiceUnavailable, "server_busy", "Server is busy, please try again later.")
		return
	}

	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Missing file field.")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to read upload.")
		return
	}

	safeName, err := media.ValidateMP3(header.Filename, header.Header.Get("Content-Type"), content, h.cfg.MaxUploadBytes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, media.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSONError(w, status, "invalid_upload", err.Error())
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(safeName, filepath.Ext(safeName))
	}
	if title == "" {
		title = "Untitled"
	}
	artist := strings.TrimSpace(r.FormValue("artist"))
	if artist == "" {
		artist = "Unknown Artist"
	}

	mediaRoot := h.cfg.MediaRoot()
	if err := os.MkdirAll(mediaRoot, 0755); err != nil {
		logger.Error("failed to create media root", logger.ErrorField(err), logger.String("root", mediaRoot))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to store file.")
		return
	}

	songID := uuid.NewString()
	storedFilename := songID + "_" + safeName
	if err := os.WriteFile(filepath.Join(mediaRoot, storedFilename), content, 0644); err != nil {
		logger.Error("failed to write media file", logger.ErrorField(err), logger.String("filename", storedFilename))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to store file.")
		return
	}

	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	song := &model.Song{
		ID:          songID,
		Title:       title,
		Artist:      artist,
		Filename:    storedFilename,
		ContentType: contentType,
		SizeBytes:   int64(len(content)),
	}

	// Optional single-owner tagging: an authenticated uploader owns the song.
	if claims, err := bearerClaims(r); err == nil {
		song.UserID = sql.NullInt64{Int64: claims.UserID, Valid: true}
	}

	if err := h.songRepo.CreateSong(song); err != nil {
		logger.Error("failed to save song metadata", logger.ErrorField(err), logger.String("songId", songID))
		writeJSONError(w, http.StatusInternalServerError, "database_error", "Failed to save uploaded song metadata.")
		return
	}

	logger.Info("song uploaded",
		logger.String("songId", songID),
		logger.String("title", title),
		logger.Int64("sizeBytes", song.SizeBytes))

	writeJSON(w, http.StatusCreated, SongUploadResponse{
		SongResponse: song.ToResponse(h.coverBase()),
		Filename:     storedFilename,
	})
}

// ListSongsHandler returns all songs in the library, newest first.
func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		logger.Error("failed to list songs", logger.ErrorField(err))
		writeJSONError(w, http.StatusInternalServerError, "database_error", "Failed to load songs.")
		return
	}

	responses := make([]model.SongResponse, 0, len(songs))
	for _, song := range songs {
		responses = append(responses, song.ToResponse(h.coverBase()))
	}
	writeJSON(w, http.StatusOK, responses)
}

// GetSongHandler returns metadata for a single song.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	song, ok := h.loadSong(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, song.ToResponse(h.coverBase()))
}

// DeleteSongHandler removes a song row and best-effort removes its media
// file and cover art. Requires authentication; an owned song may only be
// deleted by its owner.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	song, ok := h.loadSong(w, r)
	if !ok {
		return
	}

	if song.UserID.Valid {
		userID, err := GetUserIDFromContext(r.Context())
		if err != nil || userID != song.UserID.Int64 {
			writeJSONError(w, http.StatusForbidden, "forbidden", "Song belongs to another user.")
			return
		}
	}

	if err := h.songRepo.DeleteSong(song.ID); err != nil {
		logger.Error("failed to delete song", logger.ErrorField(err), logger.String("songId", song.ID))
		writeJSONError(w, http.StatusInternalServerError, "database_error", "Failed to delete song.")
		return
	}

	// The row is gone; file cleanup failures only leak disk space.
	if path, resolved := h.resolver.Resolve(song.Filename); resolved {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove media file",
				logger.String("songId", song.ID),
				logger.ErrorField(err))
		}
	}
	if song.CoverPath.Valid && h.covers != nil {
		if err := h.covers.Remove(r.Context(), song.CoverPath.String); err != nil {
			logger.Warn("failed to remove cover", logger.String("songId", song.ID), logger.ErrorField(err))
		}
	}

	logger.Info("song deleted", logger.String("songId", song.ID))
	w.WriteHeader(http.StatusNoContent)
}

// UploadCoverHandler stores cover art for a song in object storage.
func (h *APIHandler) UploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	if h.covers == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "cover_storage_unavailable", "Cover storage is not configured.")
		return
	}

	song, ok := h.loadSong(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxCoverBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form.")
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Missing cover field.")
		return
	}
	defer file.Close()

	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if contentType != "image/jpeg" && contentType != "image/png" {
		writeJSONError(w, http.StatusBadRequest, "invalid_upload", "Cover must be a JPEG or PNG image.")
		return
	}
	if header.Size <= 0 || header.Size > maxCoverBytes {
		writeJSONError(w, http.StatusBadRequest, "invalid_upload", "Cover image size out of bounds.")
		return
	}

	key := song.ID + "/" + media.SanitizeFilename(header.Filename)
	if err := h.covers.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		logger.Error("failed to store cover", logger.ErrorField(err), logger.String("songId", song.ID))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to store cover.")
		return
	}

	if err := h.songRepo.UpdateSongCoverPath(song.ID, key); err != nil {
		logger.Error("failed to record cover path", logger.ErrorField(err), logger.String("songId", song.ID))
		writeJSONError(w, http.StatusInternalServerError, "database_error", "Failed to record cover.")
		return
	}

	song.CoverPath = sql.NullString{String: key, Valid: true}
	writeJSON(w, http.StatusOK, song.ToResponse(h.coverBase()))
}

// ServeCoverHandler streams cover art out of object storage.
func (h *APIHandler) ServeCoverHandler(w http.ResponseWriter, r *http.Request) {
	if h.covers == nil {
		writeNotFound(w, "Cover not found.")
		return
	}

	key := mux.Vars(r)["key"]
	obj, err := h.covers.Get(r.Context(), key)
	if err != nil {
		writeNotFound(w, "Cover not found.")
		return
	}
	defer obj.Close()

	if strings.HasSuffix(strings.ToLower(key), ".png") {
		w.Header().Set("Content-Type", "image/png")
	} else {
		w.Header().Set("Content-Type", "image/jpeg")
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if _, err := io.Copy(w, obj); err != nil {
		logger.Warn("cover transfer aborted", logger.String("key", key), logger.ErrorField(err))
	}
}

// loadSong fetches the song addressed by the route, writing the appropriate
// error response when it cannot.
func (h *APIHandler) loadSong(w http.ResponseWriter, r *http.Request) (*model.Song, bool) {
	id := mux.Vars(r)["id"]
	song, err := h.songRepo.GetSongByID(id)
	if err != nil {
		logger.Error("song lookup failed", logger.ErrorField(err), logger.String("songId", id))
		writeJSONError(w, http.StatusInternalServerError, "database_error", "Failed to load song metadata.")
		return nil, false
	}
	if song == nil {
		writeNotFound(w, "Song not found.")
		return nil, false
	}
	return song, true
}

func (h *APIHandler) coverBase() string {
	if h.covers == nil {
		return ""
	}
	return coverURLBase
}
