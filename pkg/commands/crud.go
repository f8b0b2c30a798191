package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
	"gorm.io/gorm"
)

// Field describes one attribute of a stored entity: its slash-command option
// name, its database column, and whether it is the natural key.
type Field struct {
	Name     string
	Column   string
	Primary  bool
	Optional bool
}

// Entity is the declarative description a single generic builder turns into
// new-/update-/forget-/list commands. Update is only generated for entities
// with a primary field.
type Entity struct {
	Name     string // command noun, e.g. "class"
	Table    string
	Fields   []Field
	Validate func(values map[string]string) error
}

func (e Entity) primary() (Field, bool) {
	for _, f := range e.Fields {
		if f.Primary {
			return f, true
		}
	}
	return Field{}, false
}

func (e Entity) column(optionName string) string {
	for _, f := range e.Fields {
		if f.Name == optionName {
			return f.Column
		}
	}
	return optionName
}

// ClassEntity: one course per row. The name is the per-guild natural key and
// must look like a class code.
func ClassEntity() Entity {
	return Entity{
		Name:  "class",
		Table: "classes",
		Fields: []Field{
			{Name: "name", Column: "name", Primary: true},
			{Name: "label", Column: "label"},
			{Name: "emoji", Column: "emoji", Optional: true},
			{Name: "category", Column: "category", Optional: true},
		},
		Validate: func(values map[string]string) error {
			if !models.ClassNamePattern.MatchString(values["name"]) {
				return errors.New("Class must be formatted like subj-1234.")
			}
			return nil
		},
	}
}

// ClassChannelEntity: channel-name templates instantiated under every class.
func ClassChannelEntity() Entity {
	return Entity{
		Name:  "class-channel",
		Table: "class_channels",
		Fields: []Field{
			{Name: "name", Column: "name"},
		},
	}
}

// InstructorEntity: one dedicated channel per (class, instructor) pair.
func InstructorEntity() Entity {
	return Entity{
		Name:  "instructor",
		Table: "instructors",
		Fields: []Field{
			{Name: "class-name", Column: "class_name"},
			{Name: "instructor", Column: "instructor"},
		},
	}
}

// gatherValues pulls the entity's option values off the interaction,
// lower-casing the primary field so lookups stay case-insensitive.
func gatherValues(e Entity, i *discordgo.InteractionCreate) map[string]string {
	options := optionMap(i)
	values := make(map[string]string)
	for _, f := range e.Fields {
		option, ok := options[f.Name]
		if !ok {
			continue
		}
		value := option.StringValue()
		if f.Primary {
			value = strings.ToLower(value)
		}
		values[f.Name] = value
	}
	return values
}

// findCurrent looks up existing rows by guild plus the primary key when the
// entity has one, otherwise by every supplied value.
func findCurrent(db *gorm.DB, e Entity, guildID string, values map[string]string) ([]map[string]interface{}, error) {
	query := db.Table(e.Table).Where("guild = ?", guildID)
	if pk, ok := e.primary(); ok {
		query = query.Where(pk.Column+" = ?", values[pk.Name])
	} else {
		for name, value := range values {
			query = query.Where(e.column(name)+" = ?", value)
		}
	}
	var rows []map[string]interface{}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type entityHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, values map[string]string, current []map[string]interface{})

func adminEntityExecutor(deps *Deps, e Entity, handle entityHandler) CommandExecutor {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if !hasPermission(i, discordgo.PermissionAdministrator) {
			reply(s, i, "Sorry, you must be Verified to use this command.")
			return
		}
		values := gatherValues(e, i)
		current, err := findCurrent(deps.DB, e, i.GuildID, values)
		if err != nil {
			deps.Log.Errorf("Error looking up %s for guild %s: %v", e.Name, i.GuildID, err)
			replyEphemeral(s, i, "Something went wrong")
			return
		}
		handle(s, i, values, current)
	}
}

func entityOptions(e Entity, describe func(Field) string, required func(Field) bool) []*discordgo.ApplicationCommandOption {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(e.Fields))
	for _, f := range e.Fields {
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        f.Name,
			Description: describe(f),
			Required:    required(f),
		})
	}
	return options
}

// CRUDCommands builds the command set for one entity.
func CRUDCommands(deps *Deps, e Entity) []Command {
	commands := []Command{
		{
			Command: &discordgo.ApplicationCommand{
				Name:        "new-" + e.Name,
				Description: fmt.Sprintf("Adds a new %s.", e.Name),
				Options: entityOptions(e,
					func(f Field) string { return fmt.Sprintf("The %s value for %s.", f.Name, e.Name) },
					func(f Field) bool { return !f.Optional }),
			},
			GuildsOnly: true,
			Executor: adminEntityExecutor(deps, e, func(s *discordgo.Session, i *discordgo.InteractionCreate, values map[string]string, current []map[string]interface{}) {
				if e.Validate != nil {
					if err := e.Validate(values); err != nil {
						reply(s, i, err.Error())
						return
					}
				}
				if len(current) != 0 {
					reply(s, i, fmt.Sprintf("%s already exists.", e.Name))
					return
				}
				row := map[string]interface{}{"guild": i.GuildID}
				for _, f := range e.Fields {
					row[f.Column] = values[f.Name]
				}
				if err := deps.DB.Table(e.Table).Create(row).Error; err != nil {
					deps.Log.Errorf("Error creating %s for guild %s: %v", e.Name, i.GuildID, err)
					replyEphemeral(s, i, "Something went wrong")
					return
				}
				reply(s, i, fmt.Sprintf("Added %s.", e.Name))
				deps.Resync.Schedule(i.GuildID)
			}),
		},
		{
			Command: &discordgo.ApplicationCommand{
				Name:        "forget-" + e.Name,
				Description: fmt.Sprintf("Remove a %s from SRC Bot. Channels will not be deleted.", e.Name),
				Options: entityOptions(e,
					func(f Field) string { return fmt.Sprintf("The %s value for %s.", f.Name, e.Name) },
					func(f Field) bool { return true }),
			},
			GuildsOnly: true,
			Executor: adminEntityExecutor(deps, e, func(s *discordgo.Session, i *discordgo.InteractionCreate, values map[string]string, current []map[string]interface{}) {
				if len(current) == 0 {
					reply(s, i, fmt.Sprintf("%s does not exist.", e.Name))
					return
				}
				query := "DELETE FROM " + e.Table + " WHERE guild = ?"
				args := []interface{}{i.GuildID}
				if pk, ok := e.primary(); ok {
					query += " AND " + pk.Column + " = ?"
					args = append(args, values[pk.Name])
				} else {
					for name, value := range values {
						query += " AND " + e.column(name) + " = ?"
						args = append(args, value)
					}
				}
				if err := deps.DB.Exec(query, args...).Error; err != nil {
					deps.Log.Errorf("Error deleting %s for guild %s: %v", e.Name, i.GuildID, err)
					replyEphemeral(s, i, "Something went wrong")
					return
				}
				reply(s, i, fmt.Sprintf("Removed %s.", e.Name))
				deps.Resync.Schedule(i.GuildID)
			}),
		},
		{
			Command: &discordgo.ApplicationCommand{
				Name:        e.Name + "-list",
				Description: fmt.Sprintf("List all %s entries.", e.Name),
			},
			GuildsOnly: true,
			Executor: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
				var rows []map[string]interface{}
				if err := deps.DB.Table(e.Table).Where("guild = ?", i.GuildID).Find(&rows).Error; err != nil {
					deps.Log.Errorf("Error listing %s for guild %s: %v", e.Name, i.GuildID, err)
					replyEphemeral(s, i, "Something went wrong")
					return
				}
				lines := make([]string, 0, len(rows))
				for _, row := range rows {
					parts := make([]string, 0, len(e.Fields))
					for _, f := range e.Fields {
						parts = append(parts, fmt.Sprintf("%v", row[f.Column]))
					}
					lines = append(lines, "["+strings.Join(parts, ",")+"]")
				}
				bigList(s, i, lines)
			},
		},
	}

	if pk, ok := e.primary(); ok {
		commands = append(commands, Command{
			Command: &discordgo.ApplicationCommand{
				Name:        "update-" + e.Name,
				Description: fmt.Sprintf("Update the attributes of some %s.", e.Name),
				Options: entityOptions(e,
					func(f Field) string {
						if f.Primary {
							return fmt.Sprintf("The %s to change.", e.Name)
						}
						return fmt.Sprintf("Change %s for %s.", f.Name, e.Name)
					},
					func(f Field) bool { return f.Primary }),
			},
			GuildsOnly: true,
			Executor: adminEntityExecutor(deps, e, func(s *discordgo.Session, i *discordgo.InteractionCreate, values map[string]string, current []map[string]interface{}) {
				if len(current) == 0 {
					reply(s, i, fmt.Sprintf("Couldn't find %s.", e.Name))
					return
				}
				updates := map[string]interface{}{}
				for name, value := range values {
					if name == pk.Name {
						continue
					}
					updates[e.column(name)] = value
				}
				if len(updates) > 0 {
					err := deps.DB.Table(e.Table).
						Where("guild = ? AND "+pk.Column+" = ?", i.GuildID, values[pk.Name]).
						Updates(updates).Error
					if err != nil {
						deps.Log.Errorf("Error updating %s for guild %s: %v", e.Name, i.GuildID, err)
						replyEphemeral(s, i, "Something went wrong")
						return
					}
				}
				reply(s, i, fmt.Sprintf("Updated %s.", e.Name))
				deps.Resync.Schedule(i.GuildID)
			}),
		})
	}

	return commands
}
