package commands

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/reconcile"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CommandExecutor func(s *discordgo.Session, i *discordgo.InteractionCreate)

type Command struct {
	Command    *discordgo.ApplicationCommand
	GuildsOnly bool
	Executor   CommandExecutor
}

func (c *Command) Execute(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if c.GuildsOnly && i.GuildID == "" {
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "This command can not be used in DMs.",
			},
		})
		return
	}
	c.Executor(s, i)
}

// Deps is the shared state handed to every command constructor.
type Deps struct {
	Log        *zap.SugaredLogger
	DB         *gorm.DB
	Reconciler *reconcile.Reconciler

	// RegSync re-renders a guild's registration page after a debounce;
	// Resync runs a full reconcile after administrative record mutations.
	RegSync *reconcile.Scheduler
	Resync  *reconcile.Scheduler

	// Campaigns holds previewed invite campaigns awaiting launch; Removals
	// holds each member's pending class-removal picker.
	Campaigns *PendingStore
	Removals  *PendingStore
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	byName := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, option := range options {
		byName[option.Name] = option
	}
	return byName
}

func stringOption(i *discordgo.InteractionCreate, name string) string {
	if option, ok := optionMap(i)[name]; ok {
		return option.StringValue()
	}
	return ""
}

func boolOption(i *discordgo.InteractionCreate, name string) bool {
	if option, ok := optionMap(i)[name]; ok {
		return option.BoolValue()
	}
	return false
}

func hasPermission(i *discordgo.InteractionCreate, perm int64) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&(perm|discordgo.PermissionAdministrator) != 0
}

func replyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

func notAllowed(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := "Dave"
	if i.Member != nil && i.Member.User != nil {
		name = i.Member.User.Username
	}
	replyEphemeral(s, i, "I'm afraid I can't do that, "+name+".")
}

// maxMessageLength is Discord's per-message content cap.
const maxMessageLength = 2000

// chunkLines packs lines into as few messages as possible without crossing
// the length cap.
func chunkLines(lines []string) []string {
	chunks := []string{}
	current := ""
	for _, line := range lines {
		if current != "" && len(current)+1+len(line) > maxMessageLength {
			chunks = append(chunks, current)
			current = ""
		}
		if current == "" {
			current = line
		} else {
			current += "\r" + line
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// bigList replies with the lines split across however many messages it takes,
// using followups past the first.
func bigList(s *discordgo.Session, i *discordgo.InteractionCreate, lines []string) {
	if len(lines) == 0 {
		reply(s, i, "Nothing to display.")
		return
	}
	for index, chunk := range chunkLines(lines) {
		if index == 0 {
			reply(s, i, chunk)
		} else {
			s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
				Content: chunk,
			})
		}
	}
}
