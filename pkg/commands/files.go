package commands

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
	"github.com/rossesmond/src-bot/pkg/post"
	"gorm.io/gorm"
)

// AbsorbFileCommand builds /absorb-file: stores the text attachment of an
// existing message under a name for later templated posting.
func AbsorbFileCommand(deps *Deps) Command {
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:        "absorb-file",
			Description: "adds a file message to the database for later use",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "a name with which to identify this entry",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "the message id of the message with the attached file to add",
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
			messageID := stringOption(i, "message")
			message, err := s.ChannelMessage(i.ChannelID, messageID)
			if err != nil || message == nil {
				reply(s, i, "Couldn't find the message.")
				return
			}
			if len(message.Attachments) == 0 {
				reply(s, i, "No attachments found.")
				return
			}

			body, err := fetchAttachment(message.Attachments[0].URL)
			if err != nil {
				deps.Log.Errorf("Error downloading attachment from message %s: %v", messageID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}

			name := stringOption(i, "name")
			var file models.File
			err = deps.DB.Where("guild = ? AND name = ?", i.GuildID, name).First(&file).Error
			if err != nil {
				if err != gorm.ErrRecordNotFound {
					deps.Log.Errorf("Error looking up file %s for guild %s: %v", name, i.GuildID, err)
					replyEphemeral(s, i, "Something went wrong")
					return
				}
				file = models.File{Guild: i.GuildID, Name: name}
			}
			file.Content = string(body)
			if err := deps.DB.Save(&file).Error; err != nil {
				deps.Log.Errorf("Error saving file %s for guild %s: %v", name, i.GuildID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}
			reply(s, i, "Saved file contents to database.")
		},
	}
}

func fetchAttachment(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FileListCommand builds /file-list.
func FileListCommand(deps *Deps) Command {
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:        "file-list",
			Description: "lists all absorbed files",
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !hasPermission(i, discordgo.PermissionAdministrator) {
				notAllowed(s, i)
				return
			}
			var files []models.File
			if err := deps.DB.Where("guild = ?", i.GuildID).Find(&files).Error; err != nil {
				deps.Log.Errorf("Error listing files for guild %s: %v", i.GuildID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}
			lines := make([]string, 0, len(files))
			for _, f := range files {
				lines = append(lines, f.Name)
			}
			bigList(s, i, lines)
		},
	}
}

// GetFileCommand builds /get-file: returns the stored content as a .txt
// attachment.
func GetFileCommand(deps *Deps) Command {
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:        "get-file",
			Description: "returns a file from the database",
			Options:     fileNameOption(),
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !hasPermission(i, discordgo.PermissionAdministrator) {
				notAllowed(s, i)
				return
			}
			name := stringOption(i, "file-name")
			var file models.File
			if err := deps.DB.Where("guild = ? AND name = ?", i.GuildID, name).First(&file).Error; err != nil {
				replyEphemeral(s, i, fmt.Sprintf("Could not find %s.", name))
				return
			}
			s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: "Here's your file.",
					Files: []*discordgo.File{{
						Name:        file.Name + ".txt",
						ContentType: "text/plain",
						Reader:      strings.NewReader(file.Content),
					}},
				},
			})
		},
	}
}

// DeleteFileCommand builds /delete-file.
func DeleteFileCommand(deps *Deps) Command {
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:        "delete-file",
			Description: "deletes a file",
			Options:     fileNameOption(),
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !hasPermission(i, discordgo.PermissionAdministrator) {
				notAllowed(s, i)
				return
			}
			name := stringOption(i, "file-name")
			if err := deps.DB.Where("guild = ? AND name = ?", i.GuildID, name).Delete(&models.File{}).Error; err != nil {
				deps.Log.Errorf("Error deleting file %s for guild %s: %v", name, i.GuildID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}
			replyEphemeral(s, i, fmt.Sprintf("%s was deleted", name))
		},
	}
}

// PostCommand builds /post: renders a stored file into embeds and sends them
// to the current channel.
func PostCommand(deps *Deps) Command {
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:        "post",
			Description: "posts a message using a file",
			Options:     fileNameOption(),
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !hasPermission(i, discordgo.PermissionAdministrator) {
				notAllowed(s, i)
				return
			}
			embeds, ok := renderFile(deps, s, i)
			if !ok {
				return
			}
			if _, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{Embeds: embeds}); err != nil {
				deps.Log.Errorf("Error posting file in channel %s: %v", i.ChannelID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}
			replyEphemeral(s, i, "done")
		},
	}
}

// EditCommand builds /edit: re-renders a stored file over an existing message
// in the current channel.
func EditCommand(deps *Deps) Command {
	options := append(fileNameOption(), &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "message",
		Description: "the id of the message",
		Required:    true,
	})
	return Command{
		Command: &discordgo.ApplicationCommand{
			Name:        "edit",
			Description: "edits a message in the current channel using a file",
			Options:     options,
		},
		GuildsOnly: true,
		Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !hasPermission(i, discordgo.PermissionAdministrator) {
				notAllowed(s, i)
				return
			}
			messageID := stringOption(i, "message")
			message, err := s.ChannelMessage(i.ChannelID, messageID)
			if err != nil || message == nil {
				replyEphemeral(s, i, "Message not found.")
				return
			}
			embeds, ok := renderFile(deps, s, i)
			if !ok {
				return
			}
			edit := discordgo.NewMessageEdit(i.ChannelID, messageID)
			edit.Embeds = &embeds
			if _, err := s.ChannelMessageEditComplex(edit); err != nil {
				deps.Log.Errorf("Error editing message %s in channel %s: %v", messageID, i.ChannelID, err)
				replyEphemeral(s, i, "Something went wrong")
				return
			}
			replyEphemeral(s, i, "done")
		},
	}
}

// renderFile looks up the requested file and renders its markup against the
// guild's current role and channel names.
func renderFile(deps *Deps, s *discordgo.Session, i *discordgo.InteractionCreate) ([]*discordgo.MessageEmbed, bool) {
	name := stringOption(i, "file-name")
	var file models.File
	if err := deps.DB.Where("guild = ? AND name = ?", i.GuildID, name).First(&file).Error; err != nil {
		replyEphemeral(s, i, fmt.Sprintf("Could not find %s.", name))
		return nil, false
	}

	rolesByName := map[string]string{}
	if roles, err := s.GuildRoles(i.GuildID); err == nil {
		for _, role := range roles {
			rolesByName[role.Name] = role.ID
		}
	}
	channelsByName := map[string]string{}
	if channels, err := s.GuildChannels(i.GuildID); err == nil {
		for _, ch := range channels {
			channelsByName[ch.Name] = ch.ID
		}
	}
	return post.Build(file.Content, rolesByName, channelsByName), true
}

func fileNameOption() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "file-name",
			Description: "the name of the file",
			Required:    true,
		},
	}
}
