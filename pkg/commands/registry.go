package commands

import (
	"github.com/bwmarrin/discordgo"
)

// Registry holds every command and routes interactions to them. The dispatch
// boundary is also the error boundary: a panicking handler is logged and
// turned into a generic failure notice, never a crashed process.
type Registry struct {
	deps     *Deps
	commands []Command
	handlers map[string]*Command
}

func NewRegistry(deps *Deps) *Registry {
	commands := []Command{}
	commands = append(commands, CRUDCommands(deps, ClassEntity())...)
	commands = append(commands, CRUDCommands(deps, ClassChannelEntity())...)
	commands = append(commands, CRUDCommands(deps, InstructorEntity())...)
	commands = append(commands,
		SetupCommand(deps),
		EnrollCommand(deps),
		InviteCommand(deps),
		CampaignCommand(deps),
		VisibilityCommand(deps),
		AbsorbFileCommand(deps),
		FileListCommand(deps),
		GetFileCommand(deps),
		DeleteFileCommand(deps),
		PostCommand(deps),
		EditCommand(deps),
		CleanCommand(deps),
		CleanRolesCommand(deps),
	)

	handlers := make(map[string]*Command, len(commands))
	for index := range commands {
		handlers[commands[index].Command.Name] = &commands[index]
	}
	return &Registry{deps: deps, commands: commands, handlers: handlers}
}

// ApplicationCommands returns the schemas to register with Discord.
func (r *Registry) ApplicationCommands() []*discordgo.ApplicationCommand {
	schemas := make([]*discordgo.ApplicationCommand, 0, len(r.commands))
	for _, c := range r.commands {
		schemas = append(schemas, c.Command)
	}
	return schemas
}

// HandleInteraction is the single InteractionCreate entry point.
func (r *Registry) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer func() {
		if p := recover(); p != nil {
			r.deps.Log.Errorf("Panic handling interaction: %v", p)
			replyEphemeral(s, i, "This interaction failed. Someone will be in shortly to clean up the mess.")
		}
	}()

	switch i.Type {
	case discordgo.InteractionMessageComponent:
		HandleButton(r.deps, s, i)
	case discordgo.InteractionApplicationCommand:
		if c, ok := r.handlers[i.ApplicationCommandData().Name]; ok {
			c.Execute(s, i)
		}
	}
}
