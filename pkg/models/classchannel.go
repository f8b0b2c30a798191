package models

import (
	"gorm.io/gorm"
)

// BareChannelSentinel as a template name means the channel is named after the
// class itself instead of "{template}-{class}".
const BareChannelSentinel = "-"

// ClassChannel is a channel-name template instantiated under every class's
// category, e.g. "hw" produces hw-stat-3021, hw-math-5651, and so on.
type ClassChannel struct {
	gorm.Model
	Guild string `json:"guild" gorm:"index"`
	Name  string `json:"name"`
}

// ChannelName derives the concrete channel name for a class.
func (c *ClassChannel) ChannelName(className string) string {
	if c.Name == BareChannelSentinel {
		return className
	}
	return c.Name + "-" + className
}
