package model

import "time"

// DocumentStatus is the ingestion lifecycle state of an uploaded document.
// Loading is the only non-terminal state; Success and Error are write-once.
type DocumentStatus string

const (
	StatusLoading DocumentStatus = "loading"
	StatusSuccess DocumentStatus = "success"
	StatusError   DocumentStatus = "error"
)

// Terminal reports whether the status permits no further transition.
func (s DocumentStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

type Document struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   string         `gorm:"size:64;not null;index" json:"owner_id"`
	Name      string         `gorm:"size:256;not null" json:"name"`
	Extension string         `gorm:"size:16;not null" json:"extension"`
	Path      string         `gorm:"size:512;not null" json:"path"`
	Size      int64          `gorm:"not null" json:"size"`
	Status    DocumentStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
