package model

import (
	"database/sql"
	"time"
)

// Song represents one uploaded track in the library.
//
// Filename is the stored reference recorded at upload time: usually a path
// relative to the media root (possibly with subdirectories), rarely an
// absolute path from older deployments. It is resolved to a real file by
// core/media.Resolver and never exposed directly over the API.
type Song struct {
	ID           string         `json:"id" gorm:"type:char(36);primaryKey"`
	UserID       sql.NullInt64  `json:"-" gorm:"index"` // optional owner tag
	Title        string         `json:"title" gorm:"size:255;not null"`
	Artist       string         `json:"artist" gorm:"size:255;not null"`
	Filename     string         `json:"-" gorm:"size:767;not null"`
	ContentType  string         `json:"contentType" gorm:"size:100;not null"`
	SizeBytes    int64          `json:"sizeBytes" gorm:"not null"`
	DurationSecs sql.NullInt64  `json:"-" gorm:"column:duration_seconds"`
	CoverPath    sql.NullString `json:"-" gorm:"size:767"` // object key in the cover bucket
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// SongResponse is the public listing shape for a song.
type SongResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
	DurationSecs *int64    `json:"durationSeconds,omitempty"`
	CoverURL     string    `json:"coverUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ToResponse converts a Song row into its public API shape. coverBase is the
// URL prefix covers are served from; empty when object storage is disabled.
func (s *Song) ToResponse(coverBase string) SongResponse {
	resp := SongResponse{
		ID:          s.ID,
		Title:       s.Title,
		Artist:      s.Artist,
		ContentType: s.ContentType,
		SizeBytes:   s.SizeBytes,
		CreatedAt:   s.CreatedAt,
	}
	if s.DurationSecs.Valid {
		d := s.DurationSecs.Int64
		resp.DurationSecs = &d
	}
	if s.CoverPath.Valid && coverBase != "" {
		resp.CoverURL = coverBase + "/" + s.CoverPath.String
	}
	return resp
}
