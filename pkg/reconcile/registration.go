package reconcile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
	"github.com/rossesmond/src-bot/pkg/post"
)

// RegistrationChannelName is the channel holding the class sign-up board.
const RegistrationChannelName = "class-registration"

// ClassRemovalID is the custom id of the board's class-removal helper button.
const ClassRemovalID = "class_removal"

// TogglePrefix prefixes custom ids that toggle a role by id.
const TogglePrefix = "toggle_"

const (
	headerTitle       = "**Class Channel Access**"
	headerDescription = "The following buttons **toggle** access to a class. " +
		"You may also use `/enroll in:search term` to enroll in classes."
	otherOptionsTitle = "**Other Options**"
)

// Course levels with a rendered message. An explicit set: classes whose
// leading numeral falls outside it appear on no message at all.
var courseLevels = []int{1, 2, 3, 4, 5, 6, 8}

var levelPattern = regexp.MustCompile(`^[a-z]{2,4}-(\d)\d{3}(W|H|w|h)?$`)

// ClassLevel returns the leading numeral of a class code, or -1 when the code
// does not parse.
func ClassLevel(name string) int {
	m := levelPattern.FindStringSubmatch(name)
	if m == nil {
		return -1
	}
	return int(m[1][0] - '0')
}

// RenderRegistration maintains the class-registration channel: a fixed header
// message, one message per course level with a roster and a button grid, and
// an "other options" message. Messages are matched by embed title and edited
// in place; message ids are the only persistent anchor, so re-sending would
// orphan previously issued links.
func (r *Reconciler) RenderRegistration(guildID string, progress Progress) error {
	if progress == nil {
		progress = func(string) {}
	}

	roles, err := r.gw.GuildRoles(guildID)
	if err != nil {
		return err
	}
	everyone, manager, err := r.anchorRoles(roles)
	if err != nil {
		return err
	}
	byName := rolesByName(roles, nil)

	progress("looking for classes")
	var classes []models.Class
	if err := r.db.Where("guild = ?", guildID).Find(&classes).Error; err != nil {
		return err
	}

	progress("fetching class-registration channel")
	channels, err := r.gw.GuildChannels(guildID)
	if err != nil {
		return err
	}
	var registration *discordgo.Channel
	for _, ch := range channels {
		if ch.Name == RegistrationChannelName {
			registration = ch
			break
		}
	}
	if registration == nil {
		progress("creating private class-registration channel")
		registration, err = r.gw.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
			Name: RegistrationChannelName,
			Type: discordgo.ChannelTypeGuildText,
			PermissionOverwrites: []*discordgo.PermissionOverwrite{
				{
					ID:   everyone.ID,
					Type: discordgo.PermissionOverwriteTypeRole,
					Deny: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
				},
				{
					ID:    manager.ID,
					Type:  discordgo.PermissionOverwriteTypeRole,
					Allow: discordgo.PermissionSendMessages,
				},
			},
		})
		if err != nil {
			return err
		}
	}

	messages, err := r.gw.ChannelMessages(registration.ID, 100, "", "", "")
	if err != nil {
		return err
	}
	counts, err := r.roleMemberCounts(guildID)
	if err != nil {
		return err
	}

	palette := post.NewPalette()

	progress("posting class-registration comments")
	headerColor := palette.Next()
	if findMessageByTitle(messages, headerTitle) == nil {
		if _, err := r.gw.ChannelMessageSendComplex(registration.ID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{{
				Color:       headerColor,
				Title:       headerTitle,
				Description: headerDescription,
			}},
		}); err != nil {
			return err
		}
	}

	for _, level := range courseLevels {
		levelClasses := classesAtLevel(classes, level)
		title := fmt.Sprintf("**%d000 Level Courses**", level)

		lines := make([]string, 0, len(levelClasses))
		for _, class := range levelClasses {
			lines = append(lines, fmt.Sprintf("%s %s: %s", class.Emoji, strings.ToUpper(class.Name), class.Label))
		}
		embeds := []*discordgo.MessageEmbed{{
			Color:       palette.Next(),
			Title:       title,
			Description: strings.Join(lines, "\r\n"),
		}}

		components := []discordgo.MessageComponent{}
		if len(levelClasses) > 0 {
			buttons := make([]discordgo.Button, 0, len(levelClasses))
			for _, class := range levelClasses {
				label := strings.ToUpper(class.Name)
				if role, ok := byName[class.Name]; ok && counts[role.ID] != 0 {
					label = fmt.Sprintf("[ %d ] %s", counts[role.ID], label)
				}
				button := discordgo.Button{
					Label:    label,
					Style:    discordgo.SecondaryButton,
					CustomID: class.Name,
				}
				if class.Emoji != "" {
					button.Emoji = &discordgo.ComponentEmoji{Name: class.Emoji}
				}
				buttons = append(buttons, button)
			}
			components = ButtonRows(buttons)
		}

		if existing := findMessageByTitle(messages, title); existing != nil {
			edit := discordgo.NewMessageEdit(registration.ID, existing.ID)
			edit.Embeds = &embeds
			edit.Components = &components
			if _, err := r.gw.ChannelMessageEditComplex(edit); err != nil {
				return err
			}
		} else {
			if _, err := r.gw.ChannelMessageSendComplex(registration.ID, &discordgo.MessageSend{
				Embeds:     embeds,
				Components: components,
			}); err != nil {
				return err
			}
		}
	}

	otherColor := palette.Next()
	if findMessageByTitle(messages, otherOptionsTitle) == nil {
		buttons := []discordgo.Button{{
			Label:    "Select Classes to Remove",
			Style:    discordgo.SecondaryButton,
			CustomID: ClassRemovalID,
		}}
		if omniscient, ok := byName[OmniscientRoleName]; ok {
			buttons = append(buttons, discordgo.Button{
				Label:    "See/Hide all class channels.",
				Style:    discordgo.SecondaryButton,
				CustomID: TogglePrefix + omniscient.ID,
			})
		}
		if _, err := r.gw.ChannelMessageSendComplex(registration.ID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{{
				Color: otherColor,
				Title: otherOptionsTitle,
			}},
			Components: ButtonRows(buttons),
		}); err != nil {
			return err
		}
	}

	return nil
}

func classesAtLevel(classes []models.Class, level int) []models.Class {
	matched := make([]models.Class, 0)
	for _, class := range classes {
		if ClassLevel(class.Name) == level {
			matched = append(matched, class)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return matched
}

func findMessageByTitle(messages []*discordgo.Message, title string) *discordgo.Message {
	for _, m := range messages {
		if len(m.Embeds) > 0 && strings.HasPrefix(m.Embeds[0].Title, title) {
			return m
		}
	}
	return nil
}

// roleMemberCounts tallies role membership across the guild's member list.
func (r *Reconciler) roleMemberCounts(guildID string) (map[string]int, error) {
	counts := make(map[string]int)
	after := ""
	for {
		members, err := r.gw.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, err
		}
		for _, member := range members {
			for _, roleID := range member.Roles {
				counts[roleID]++
			}
		}
		if len(members) < 1000 {
			break
		}
		after = members[len(members)-1].User.ID
	}
	return counts, nil
}
