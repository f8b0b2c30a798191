package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
)

// VisibilityCommand builds /set-class-visibility: whether class categories
// are visible to users without the class role. Takes effect on the next
// reconcile, which is scheduled automatically.
func VisibilityCommand(deps *Deps) Command {
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:        "set-class-visibility",
			Description: "will toggle the visibility of classes for users without the class role",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "show-classes",
					Description: "TRUE to show classes to everyone, regardless of role",
					Required:    true,
				},
			},
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !hasPermission(i, discordgo.PermissionAdministrator) {
				notAllowed(s, i)
				return
			}
			visible := boolOption(i, "show-classes")

			var setting models.ClassVisibility
			if err := deps.DB.Where(models.ClassVisibility{Guild: i.GuildID}).FirstOrCreate(&setting).Error; err != nil {
				deps.Log.Errorf("Error loading visibility for guild %s: %v", i.GuildID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}
			setting.Visible = visible
			if err := deps.DB.Save(&setting).Error; err != nil {
				deps.Log.Errorf("Error saving visibility for guild %s: %v", i.GuildID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}
			replyEphemeral(s, i, fmt.Sprintf("Visibility of classes set to %t.", visible))
			deps.Resync.Schedule(i.GuildID)
		},
	}
}
