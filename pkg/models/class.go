package models

import (
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// ClassNamePattern matches class codes like stat-3021 or math-5651H.
var ClassNamePattern = regexp.MustCompile(`^[a-zA-Z]{2,4}-\d{4}(H|W|h|w)?$`)

// Class is one course tracked for a guild. Name is the natural key within
// the guild and must match ClassNamePattern. Category, when set, overrides
// the derived UPPERCASE(name) category for this class's channels.
type Class struct {
	gorm.Model
	Guild    string `json:"guild" gorm:"index"`
	Name     string `json:"name"`
	Label    string `json:"label"`
	Emoji    string `json:"emoji" gorm:"default:''"`
	Category string `json:"category" gorm:"default:''"`
}

// CategoryName returns the category channel name for the class: the explicit
// override when present, otherwise the upper-cased class code.
func (c *Class) CategoryName() string {
	if c.Category != "" {
		return c.Category
	}
	return strings.ToUpper(c.Name)
}
