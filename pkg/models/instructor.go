package models

import (
	"gorm.io/gorm"
)

// Instructor produces one dedicated channel named {instructor}-{class-name}
// under the class's category.
type Instructor struct {
	gorm.Model
	Guild      string `json:"guild" gorm:"index"`
	ClassName  string `json:"className"`
	Instructor string `json:"instructor"`
}

// ChannelName derives the instructor channel name.
func (i *Instructor) ChannelName() string {
	return i.Instructor + "-" + i.ClassName
}
