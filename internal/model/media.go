// Package model defines database models
package model

import "time"

// Media is a single hosted image. The hash ID doubles as the public URL
// component, so it stays short and lowercase.
type Media struct {
	HashID string `gorm:"primaryKey;size:16" json:"hash_id"`

	// File extension of the original upload, without the dot
	Extension string `gorm:"not null" json:"extension"`

	// Whether a dedicated thumbnail artifact exists for this media.
	// Small originals are served as their own thumbnail
	HasThumbnail bool `json:"has_thumbnail"`

	Private bool `json:"private"`

	Width  int `gorm:"not null" json:"width"`
	Height int `gorm:"not null" json:"height"`

	// Byte length of the original upload. Thumbnails aren't counted
	Filesize int64 `gorm:"not null" json:"filesize"`

	Comment *string `json:"comment,omitempty"`

	// Sole ordering and pagination key for listings
	Uploaded time.Time `gorm:"index;not null" json:"uploaded"`
}
