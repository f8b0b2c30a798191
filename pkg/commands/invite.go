package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
)

func inviteURL(invite *discordgo.Invite) string {
	return "https://discord.gg/" + invite.Code
}

// InviteCommand builds /invite: a permanent unique invite for the current
// channel. When the channel belongs to a class category, joiners via this
// invite are attributed that class by the invite tracker.
func InviteCommand(deps *Deps) Command {
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:        "invite",
			Description: "creates a new invite",
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			var parent *discordgo.Channel
			if channels, err := s.GuildChannels(i.GuildID); err == nil {
				byID := make(map[string]*discordgo.Channel, len(channels))
				for _, ch := range channels {
					byID[ch.ID] = ch
				}
				if current, ok := byID[i.ChannelID]; ok && current.ParentID != "" {
					parent = byID[current.ParentID]
				}
			}

			invite, err := s.ChannelInviteCreate(i.ChannelID, discordgo.Invite{
				MaxAge:  0,
				MaxUses: 0,
				Unique:  true,
			})
			if err != nil {
				deps.Log.Errorf("Error creating invite in channel %s: %v", i.ChannelID, err)
				replyEphemeral(s, i, "Failed to create an invite.")
				return
			}

			if parent != nil && models.ClassNamePattern.MatchString(parent.Name) {
				reply(s, i, fmt.Sprintf(
					"Here's your invite!\r\n> %s\r\nUsers who join with this invite will automatically be able to see channels for %s.",
					inviteURL(invite), parent.Name))
			} else {
				replyEphemeral(s, i, fmt.Sprintf(
					"Here's your invite!\r\n> %s\r\nIf this invite is intended to be shared with a class, you should consider running `/invite` from a class channel. That way the invite will automatically give users permission to see those channels.",
					inviteURL(invite)))
			}
		},
	}
}
