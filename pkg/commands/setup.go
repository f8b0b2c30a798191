package commands

import (
	"github.com/bwmarrin/discordgo"
)

// SetupCommand builds /setup-classes: the explicit reconciliation trigger.
// Progress lines are appended to the deferred reply as each phase runs.
func SetupCommand(deps *Deps) Command {
	var manageChannels int64 = discordgo.PermissionManageChannels
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:                     "setup-classes",
			Description:              "Sets up class channels.",
			DefaultMemberPermissions: &manageChannels,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "full",
					Description: "Also sorts the class roles. WARNING: Slow.",
				},
			},
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !hasPermission(i, discordgo.PermissionManageChannels) {
				return
			}
			s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			})

			loglist := ""
			progress := func(line string) {
				loglist += line + "...\r\n"
				content := loglist
				s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
					Content: &content,
				})
			}

			full := boolOption(i, "full")
			if err := deps.Reconciler.Reconcile(i.GuildID, full, progress); err != nil {
				deps.Log.Errorf("Error reconciling guild %s: %v", i.GuildID, err)
				progress("ERROR: " + err.Error())
				s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
					Content: "Class setup failed.",
				})
				return
			}
			done := "Classes are ready. Don't forget to make class-registration public."
			s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
				Content: &done,
			})
		},
	}
}
