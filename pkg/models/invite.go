package models

import (
	"gorm.io/gorm"
)

// Invite is one ledger row per known invite code, holding the last observed
// use-count. Used only to detect count deltas when a member joins.
type Invite struct {
	gorm.Model
	Guild string `json:"guild" gorm:"index"`
	Code  string `json:"code"`
	Count int    `json:"count"`
}
