package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebGuild is one participating server shown on the companion web page.
type WebGuild struct {
	gorm.Model
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Link     string    `json:"link"`
	Name     string    `json:"name"`
	ServerID string    `json:"serverId"`
	IconHash string    `json:"iconHash"`
	Range    string    `json:"range" gorm:"column:range"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt"`
}

func (g *WebGuild) BeforeCreate(tx *gorm.DB) (err error) {
	g.ID = uuid.New()
	return
}
