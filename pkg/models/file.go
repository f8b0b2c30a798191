package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is a stored content snippet usable as a templated post. Content uses a
// lightweight markup: "# Title" section headers, "---" section delimiters, and
// {@name}/{#name} tokens resolved to role/channel mentions at render time.
type File struct {
	gorm.Model
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Guild   string    `json:"guild" gorm:"index"`
	Name    string    `json:"name"`
	Content string    `json:"content"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt"`
}

func (f *File) BeforeCreate(tx *gorm.DB) (err error) {
	f.ID = uuid.New()
	return
}
