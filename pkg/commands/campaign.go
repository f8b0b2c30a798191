package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
	"github.com/rossesmond/src-bot/pkg/reconcile"
)

const launchCampaignPrefix = "launch_campaign_"

// pendingCampaign is a previewed invite campaign waiting on its launch button.
type pendingCampaign struct {
	Content string
	Channel string
}

// prepInviteContents fills a campaign template: {class} and {invite} are
// replaced, and a literal \r becomes a line break.
func prepInviteContents(content, name, url string) string {
	content = strings.ReplaceAll(content, "{class}", name)
	content = strings.ReplaceAll(content, "{invite}", url)
	return strings.ReplaceAll(content, `\r`, "\r")
}

// CampaignCommand builds /invite-campaign: previews a templated invite
// message, then posts one fresh invite per matching class channel once the
// launch button is pressed.
func CampaignCommand(deps *Deps) Command {
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:        "invite-campaign",
			Description: "will add an invite message to every class when run with `commit:True`",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "content",
					Description: "A template to use for the message contents. {class} and {invite} will be replaced.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "channel",
					Description: "the class channel to use. `general` will target general-math-1001, general-math1-1002, etc",
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
			content := stringOption(i, "content")
			channel := stringOption(i, "channel")

			var templates []models.ClassChannel
			if err := deps.DB.Where("guild = ?", i.GuildID).Find(&templates).Error; err != nil {
				deps.Log.Errorf("Error loading channel templates for guild %s: %v", i.GuildID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}
			known := false
			for _, t := range templates {
				if t.Name == channel {
					known = true
					break
				}
			}
			if !known {
				replyEphemeral(s, i, fmt.Sprintf("Could not find %s.", channel))
				return
			}
			if !strings.Contains(content, "{invite}") {
				replyEphemeral(s, i, "Use {invite} to add the invite url to your message contents.")
				return
			}

			deps.Campaigns.Put(i.ID, pendingCampaign{Content: content, Channel: channel})

			replyEphemeral(s, i, fmt.Sprintf("If launched, users in the %s channels will see the following:", channel))
			s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
				Content: prepInviteContents(content, "FAKE-1234: Intro to Fauxology", "https://discord.gg/abcd1234567"),
				Flags:   discordgo.MessageFlagsEphemeral,
				Components: reconcile.ButtonRows([]discordgo.Button{{
					Label:    "Launch Campaign",
					Style:    discordgo.DangerButton,
					CustomID: launchCampaignPrefix + i.ID,
				}}),
			})
		},
	}
}

// launchCampaign runs a previously previewed campaign. Per-channel failures
// are logged and skipped; the campaign keeps going.
func launchCampaign(deps *Deps, s *discordgo.Session, i *discordgo.InteractionCreate, campaignID string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Components: reconcile.ButtonRows([]discordgo.Button{{
				Label:    "Launch Campaign",
				Style:    discordgo.DangerButton,
				CustomID: launchCampaignPrefix + "disabled",
				Disabled: true,
			}}),
		},
	})

	value, ok := deps.Campaigns.Get(campaignID)
	if !ok {
		s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
			Content: "That campaign preview has expired. Run /invite-campaign again.",
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		return
	}
	deps.Campaigns.Delete(campaignID)
	campaign := value.(pendingCampaign)

	var classes []models.Class
	if err := deps.DB.Where("guild = ?", i.GuildID).Find(&classes).Error; err != nil {
		deps.Log.Errorf("Error loading classes for guild %s: %v", i.GuildID, err)
		return
	}
	channels, err := s.GuildChannels(i.GuildID)
	if err != nil {
		deps.Log.Errorf("Error fetching channels for guild %s: %v", i.GuildID, err)
		return
	}
	byName := make(map[string]*discordgo.Channel, len(channels))
	for _, ch := range channels {
		byName[ch.Name] = ch
	}

	for _, class := range classes {
		target, ok := byName[campaign.Channel+"-"+class.Name]
		if !ok {
			continue
		}
		invite, err := s.ChannelInviteCreate(target.ID, discordgo.Invite{
			MaxAge:  0,
			MaxUses: 0,
			Unique:  true,
		})
		if err != nil {
			deps.Log.Errorf("Error creating campaign invite in %s: %v", target.Name, err)
			continue
		}
		content := prepInviteContents(campaign.Content, fmt.Sprintf("%s: %s", class.Name, class.Label), inviteURL(invite))
		if _, err := s.ChannelMessageSend(target.ID, content); err != nil {
			deps.Log.Errorf("Error posting campaign message in %s: %v", target.Name, err)
		}
	}

	s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: "Campaign was successful.",
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}
