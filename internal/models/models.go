package models

import (
	"time"
)

type AccessLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Timestamp time.Time `gorm:"index;not null"`
	Method    string    `gorm:"type:varchar(10);not null"`
	Path      string    `gorm:"type:text;not null;index:,length:256"`
	Status    int       `gorm:"not null;index"`
	Duration  time.Duration
	ClientIP  string `gorm:"type:varchar(45);not null"`
	UserAgent string `gorm:"type:text"`
	BytesSent int    `gorm:"not null;default:0"`
}

// GeneratedImage records one successful generation. The provider URL expires
// after roughly an hour; ArchiveKey points at the S3 mirror once the archive
// worker has copied the bytes.
type GeneratedImage struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time `gorm:"index;not null"`
	PromptPreview string    `gorm:"type:varchar(32);not null"`
	PromptLength  int       `gorm:"not null"`
	URL           string    `gorm:"type:text;not null"`
	Size          string    `gorm:"type:varchar(16);not null"`
	ClientIP      string    `gorm:"type:varchar(45)"`
	ArchiveKey    string    `gorm:"type:varchar(512);index"`
}

type ArchiveEntry struct {
	Key         string    `gorm:"primaryKey;type:varchar(512);not null"`
	ContentType string    `gorm:"type:varchar(128);not null"`
	StoredAt    time.Time `gorm:"index;not null"`
	ExpiresAt   time.Time `gorm:"index;not null"`
	SizeBytes   int64     `gorm:"not null;default:-1"`
}

func (AccessLog) TableName() string {
	return "access_logs"
}

func (GeneratedImage) TableName() string {
	return "generated_images"
}

func (ArchiveEntry) TableName() string {
	return "archive_entries"
}
