package models

import "time"

// PracticeText is metadata for a typing text asset; the bytes live in
// object storage under ObjectKey.
type PracticeText struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Language  string    `json:"language" gorm:"size:16;not null;index"`
	Title     string    `json:"title" gorm:"size:140;not null"`
	ObjectKey string    `json:"-" gorm:"size:200;not null"`
	URL       string    `json:"url" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
