package models

import (
	"gorm.io/gorm"
)

// ClassVisibility holds one row per guild: whether class categories are
// visible to users without the corresponding class role.
type ClassVisibility struct {
	gorm.Model
	Guild   string `json:"guild" gorm:"uniqueIndex"`
	Visible bool   `json:"visible" gorm:"default:false"`
}
