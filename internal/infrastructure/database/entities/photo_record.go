package entities

import "time"

// PhotoRecord represents the persisted photo metadata.
type PhotoRecord struct {
	ID           string    `gorm:"type:varchar(40);primaryKey"`
	ClientID     string    `gorm:"type:varchar(128);index;not null"`
	Type         string    `gorm:"type:varchar(64);not null"`
	Filename     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	OriginalName string    `gorm:"type:varchar(255)"`
	URL          string    `gorm:"type:text;not null"`
	Bytes        int64     `gorm:"not null"`
	Width        int       `gorm:"not null"`
	Height       int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (PhotoRecord) TableName() string {
	return "photo_records"
}
