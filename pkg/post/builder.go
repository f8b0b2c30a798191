package post

import (
	"regexp"

	"github.com/bwmarrin/discordgo"
)

// Embed accent colors, cycled in order across the embeds of one rendering.
var accentColors = []int{0x6A0606, 0xE6B60A}

// Palette hands out accent colors round-robin. Not safe for concurrent use;
// create one per rendering.
type Palette struct {
	next int
}

func NewPalette() *Palette {
	return &Palette{}
}

func (p *Palette) Next() int {
	c := accentColors[p.next%len(accentColors)]
	p.next++
	return c
}

var (
	sectionDelimiter = regexp.MustCompile(`(?:\r\n|\r|\n){2}---(?:\r\n|\r|\n){2}`)
	titleLine        = regexp.MustCompile(`^# (.+)(\r\n|\r|\n)*`)
	mentionToken     = regexp.MustCompile(`\{(@|#)([^}]+)\}`)
)

// Build renders stored file content into embeds. Sections are separated by a
// "---" line (blank lines on both sides); a leading "# Title" line becomes the
// embed title; {@name} and {#name} tokens resolve to role and channel mentions
// against the supplied name-to-id maps.
func Build(content string, rolesByName, channelsByName map[string]string) []*discordgo.MessageEmbed {
	palette := NewPalette()
	sections := sectionDelimiter.Split(content, -1)
	embeds := make([]*discordgo.MessageEmbed, 0, len(sections))
	for _, section := range sections {
		embed := &discordgo.MessageEmbed{Color: palette.Next()}
		if m := titleLine.FindStringSubmatch(section); m != nil {
			embed.Title = m[1]
		}
		body := titleLine.ReplaceAllString(section, "")
		embed.Description = mentionToken.ReplaceAllStringFunc(body, func(token string) string {
			m := mentionToken.FindStringSubmatch(token)
			switch m[1] {
			case "@":
				if id, ok := rolesByName[m[2]]; ok {
					return "<@&" + id + ">"
				}
				return "<@&not found>"
			default:
				if id, ok := channelsByName[m[2]]; ok {
					return "<#" + id + ">"
				}
				return "<#not found>"
			}
		})
		embeds = append(embeds, embed)
	}
	return embeds
}
