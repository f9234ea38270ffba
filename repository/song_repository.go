package repository

import (
	"database/sql"
	"fmt"
	"time"

	"tunevault/model"
)

// SongRepository defines the interface for song metadata operations.
type SongRepository interface {
	CreateSong(song *model.Song) error
	GetSongByID(id string) (*model.Song, error)
	GetAllSongs() ([]*model.Song, error)
	UpdateSongCoverPath(id string, coverPath string) error
	DeleteSong(id string) error
}

const songColumns = "id, user_id, title, artist, filename, content_type, size_bytes, duration_seconds, cover_path, created_at, updated_at"

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a new mysqlSongRepository.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{db: db}
}

// CreateSong inserts a new song row. The caller supplies the UUID.
func (r *mysqlSongRepository) CreateSong(song *model.Song) error {
	query := `INSERT INTO songs (` + songColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateSong: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	song.CreatedAt = now
	song.UpdatedAt = now
	_, err = stmt.Exec(song.ID, song.UserID, song.Title, song.Artist, song.Filename,
		song.ContentType, song.SizeBytes, song.DurationSecs, song.CoverPath, now, now)
	if err != nil {
		return fmt.Errorf("failed to execute CreateSong: %w", err)
	}
	return nil
}

// GetSongByID retrieves a song by its UUID. Returns (nil, nil) when absent.
func (r *mysqlSongRepository) GetSongByID(id string) (*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ?`
	row := r.db.QueryRow(query, id)

	song := &model.Song{}
	err := row.Scan(&song.ID, &song.UserID, &song.Title, &song.Artist, &song.Filename,
		&song.ContentType, &song.SizeBytes, &song.DurationSecs, &song.CoverPath,
		&song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // song not found
		}
		return nil, fmt.Errorf("failed to scan song by ID %s: %w", id, err)
	}
	return song, nil
}

// GetAllSongs retrieves every song in the library, newest first.
func (r *mysqlSongRepository) GetAllSongs() ([]*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs ORDER BY created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song := &model.Song{}
		err := rows.Scan(&song.ID, &song.UserID, &song.Title, &song.Artist, &song.Filename,
			&song.ContentType, &song.SizeBytes, &song.DurationSecs, &song.CoverPath,
			&song.CreatedAt, &song.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song in GetAllSongs: %w", err)
		}
		songs = append(songs, song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllSongs: %w", err)
	}

	return songs, nil
}

// UpdateSongCoverPath records the object key of the song's cover art.
func (r *mysqlSongRepository) UpdateSongCoverPath(id string, coverPath string) error {
	query := `UPDATE songs SET cover_path = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpdateSongCoverPath: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(coverPath, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateSongCoverPath for song %s: %w", id, err)
	}
	return nil
}

// DeleteSong removes a song row.
func (r *mysqlSongRepository) DeleteSong(id string) error {
	query := `DELETE FROM songs WHERE id = ?`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for DeleteSong: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteSong for song %s: %w", id, err)
	}
	return nil
}
