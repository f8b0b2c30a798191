package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/reconcile"
	"github.com/rossesmond/src-bot/pkg/search"
)

// qualityBand is the multiplicative score band around the best match. It is
// deliberately loose: in practice every match the index returns survives it.
const qualityBand = 1000.0

// EnrollCommand builds /enroll: approximate-text self-enrollment. One match
// grants the role immediately with an undo button; several become selectable
// buttons; none is a polite shrug.
func EnrollCommand(deps *Deps) Command {
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:        "enroll",
			Description: "searches for and enrolls you in class",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "in",
					Description: "the text to search for",
					Required:    true,
				},
			},
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			index := deps.Reconciler.Index()
			if !index.Ready(i.GuildID) {
				replyEphemeral(s, i, "Sorry, classes are not set up at the moment.")
				return
			}
			matches := search.Quality(index.Search(i.GuildID, stringOption(i, "in")), qualityBand)
			if len(matches) == 0 {
				replyEphemeral(s, i, "Couldn't find a match.")
				return
			}

			if len(matches) == 1 {
				match := matches[0]
				role := findRoleByName(s, i.GuildID, match.Name)
				if role == nil {
					replyEphemeral(s, i, fmt.Sprintf("There was no %s. How weird...", match.Name))
					return
				}
				if err := s.GuildMemberRoleAdd(i.GuildID, i.Member.User.ID, role.ID); err != nil {
					deps.Log.Errorf("Error enrolling member %s in %s: %v", i.Member.User.ID, match.Name, err)
					replyEphemeral(s, i, fmt.Sprintf("Failed to add you to %s.", match.Name))
					return
				}
				s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
					Type: discordgo.InteractionResponseChannelMessageWithSource,
					Data: &discordgo.InteractionResponseData{
						Content: fmt.Sprintf("You are now enrolled in **%s: %s**", match.Name, match.Label),
						Flags:   discordgo.MessageFlagsEphemeral,
						Components: reconcile.ButtonRows([]discordgo.Button{{
							Label:    "undo",
							Style:    discordgo.PrimaryButton,
							CustomID: removeClassPrefix + role.ID,
						}}),
					},
				})
				deps.RegSync.Schedule(i.GuildID)
				return
			}

			note := ""
			if len(matches) > 5 {
				note = " Showing top five."
			}
			buttons := make([]discordgo.Button, 0, 5)
			for index, match := range matches {
				if index == 5 {
					break
				}
				buttons = append(buttons, discordgo.Button{
					Label:    fmt.Sprintf("%s: %s", match.Name, match.Label),
					Style:    discordgo.PrimaryButton,
					CustomID: match.Name,
				})
			}
			// One button per row, matching the board's tall list layout.
			components := make([]discordgo.MessageComponent, 0, len(buttons))
			for _, b := range buttons {
				components = append(components, discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{b},
				})
			}
			s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content:    fmt.Sprintf("I found %d results.%s", len(matches), note),
					Flags:      discordgo.MessageFlagsEphemeral,
					Components: components,
				},
			})
		},
	}
}

func findRoleByName(s *discordgo.Session, guildID, name string) *discordgo.Role {
	roles, err := s.GuildRoles(guildID)
	if err != nil {
		return nil
	}
	for _, role := range roles {
		if role.Name == name {
			return role
		}
	}
	return nil
}
