package commands

import (
	"github.com/bwmarrin/discordgo"
)

// CleanCommand builds /clean: lists text channels that have never held a
// message, deleting them (and then any childless categories) when commit is
// set.
func CleanCommand(deps *Deps) Command {
	var manageChannels int64 = discordgo.PermissionManageChannels
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:                     "clean",
			Description:              "deletes empty channels",
			DefaultMemberPermissions: &manageChannels,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "commit",
					Description: "WARNING: actually delete the channels.",
				},
			},
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !hasPermission(i, discordgo.PermissionManageChannels) {
				return
			}
			channels, err := s.GuildChannels(i.GuildID)
			if err != nil {
				deps.Log.Errorf("Error fetching channels for guild %s: %v", i.GuildID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}
			empty := []*discordgo.Channel{}
			for _, ch := range channels {
				if ch.Type == discordgo.ChannelTypeGuildText && ch.LastMessageID == "" {
					empty = append(empty, ch)
				}
			}

			if boolOption(i, "commit") {
				for _, ch := range empty {
					if _, err := s.ChannelDelete(ch.ID); err != nil {
						deps.Log.Errorf("Error deleting channel %s: %v", ch.Name, err)
					}
				}
				remaining, err := s.GuildChannels(i.GuildID)
				if err != nil {
					deps.Log.Errorf("Error refetching channels for guild %s: %v", i.GuildID, err)
				} else {
					keep := map[string]bool{}
					for _, ch := range remaining {
						if ch.ParentID != "" {
							keep[ch.ParentID] = true
						}
					}
					for _, ch := range remaining {
						if ch.Type == discordgo.ChannelTypeGuildCategory && !keep[ch.ID] {
							if _, err := s.ChannelDelete(ch.ID); err != nil {
								deps.Log.Errorf("Error deleting category %s: %v", ch.Name, err)
							}
						}
					}
				}
			}

			names := make([]string, 0, len(empty))
			for _, ch := range empty {
				names = append(names, ch.Name)
			}
			bigList(s, i, names)
		},
	}
}

// CleanRolesCommand builds /clean-roles: lists roles with no members,
// deleting them when commit is set. Per-role delete failures (managed roles,
// @everyone) are logged and skipped.
func CleanRolesCommand(deps *Deps) Command {
	var manageRoles int64 = discordgo.PermissionManageRoles
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:                     "clean-roles",
			Description:              "deletes unused roles",
			DefaultMemberPermissions: &manageRoles,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "commit",
					Description: "WARNING: actually delete the roles.",
				},
			},
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !hasPermission(i, discordgo.PermissionManageRoles) {
				return
			}
			roles, err := s.GuildRoles(i.GuildID)
			if err != nil {
				deps.Log.Errorf("Error fetching roles for guild %s: %v", i.GuildID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}
			counts := map[string]int{}
			after := ""
			for {
				members, err := s.GuildMembers(i.GuildID, after, 1000)
				if err != nil {
					deps.Log.Errorf("Error fetching members for guild %s: %v", i.GuildID, err)
					replyEphemeral(s, i, "Something went wrong")
					return
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

			unused := []*discordgo.Role{}
			for _, role := range roles {
				if role.Name == "@everyone" {
					continue
				}
				if counts[role.ID] == 0 {
					unused = append(unused, role)
				}
			}

			if boolOption(i, "commit") {
				for _, role := range unused {
					if err := s.GuildRoleDelete(i.GuildID, role.ID); err != nil {
						deps.Log.Errorf("Error deleting role %s: %v", role.Name, err)
					}
				}
			}

			names := make([]string, 0, len(unused))
			for _, role := range unused {
				names = append(names, role.Name)
			}
			bigList(s, i, names)
		},
	}
}
