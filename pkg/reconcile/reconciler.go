package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
	"github.com/rossesmond/src-bot/pkg/search"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DividerRoleName visually separates class roles from the rest of the role
// list; class roles are sorted directly below it.
const DividerRoleName = "---------------Classes----------------"

const dividerRoleColor = 0x2f3136

// EveryoneRoleName is the fixed name Discord gives a guild's base role.
const EveryoneRoleName = "@everyone"

// OmniscientRoleName, when present in a guild, is granted view access to every
// class category.
const OmniscientRoleName = "Omniscient"

// Progress receives one human-readable line per reconciliation phase.
type Progress func(string)

// Reconciler brings a guild's live role/category/channel/message state into
// agreement with its persisted class, channel-template, instructor, and
// visibility records. Records are only ever read here; every mutation targets
// the gateway, and every step is idempotent so a partial failure is repaired
// by simply running again.
type Reconciler struct {
	log           *zap.SugaredLogger
	db            *gorm.DB
	gw            Gateway
	index         *search.Index
	managerPrefix string
}

func New(log *zap.SugaredLogger, db *gorm.DB, gw Gateway, index *search.Index, managerPrefix string) *Reconciler {
	return &Reconciler{
		log:           log,
		db:            db,
		gw:            gw,
		index:         index,
		managerPrefix: managerPrefix,
	}
}

// Index exposes the per-guild search index the reconciler rebuilds.
func (r *Reconciler) Index() *search.Index {
	return r.index
}

// Reconcile runs the full synchronization pass for one guild. With full set,
// class roles are also repositioned under the divider role, which is slow.
// Any error aborts the pass; nothing already applied is rolled back.
func (r *Reconciler) Reconcile(guildID string, full bool, progress Progress) error {
	if progress == nil {
		progress = func(string) {}
	}

	progress("looking for classes")
	var classes []models.Class
	if err := r.db.Where("guild = ?", guildID).Find(&classes).Error; err != nil {
		return err
	}
	progress("looking for channels")
	var templates []models.ClassChannel
	if err := r.db.Where("guild = ?", guildID).Find(&templates).Error; err != nil {
		return err
	}
	progress("looking for instructors")
	var instructors []models.Instructor
	if err := r.db.Where("guild = ?", guildID).Find(&instructors).Error; err != nil {
		return err
	}

	progress("fetching guild categories")
	channels, err := r.gw.GuildChannels(guildID)
	if err != nil {
		return err
	}
	categories := make(map[string]*discordgo.Channel)
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			categories[ch.Name] = ch
		}
	}

	progress("creating search index")
	r.index.Rebuild(guildID, classes)

	progress("fetching guild roles")
	roles, err := r.gw.GuildRoles(guildID)
	if err != nil {
		return err
	}
	everyone, manager, err := r.anchorRoles(roles)
	if err != nil {
		return err
	}

	divider := findRole(roles, DividerRoleName)
	if divider == nil {
		progress("creating class header")
		color := dividerRoleColor
		divider, err = r.gw.GuildRoleCreate(guildID, &discordgo.RoleParams{
			Name:  DividerRoleName,
			Color: &color,
		})
		if err != nil {
			return err
		}
		divider.Position = manager.Position - 1
		if _, err := r.gw.GuildRoleReorder(guildID, []*discordgo.Role{divider}); err != nil {
			return err
		}
	}

	progress("creating class roles")
	byName := rolesByName(roles, nil)
	for _, class := range classes {
		if _, ok := byName[class.Name]; ok {
			continue
		}
		if _, err := r.gw.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: class.Name}); err != nil {
			return err
		}
	}

	roles, err = r.gw.GuildRoles(guildID)
	if err != nil {
		return err
	}
	byName = rolesByName(roles, progress)

	if full {
		progress("sorting class roles")
		names := make([]string, 0, len(classes))
		for _, class := range classes {
			names = append(names, class.Name)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
		pos := byName[DividerRoleName].Position
		for _, name := range names {
			role, ok := byName[name]
			if !ok {
				continue
			}
			role.Position = pos - 1
			// The gateway can reject a position; one bad role must not
			// abort the others.
			if _, err := r.gw.GuildRoleReorder(guildID, []*discordgo.Role{role}); err != nil {
				r.log.Warnf("Error repositioning role %s in guild %s: %v", name, guildID, err)
			}
		}
	}

	var visibility models.ClassVisibility
	if err := r.db.Where(models.ClassVisibility{Guild: guildID}).FirstOrCreate(&visibility).Error; err != nil {
		return err
	}

	perms := func(roleName string) []*discordgo.PermissionOverwrite {
		return classPermissions(roleName, everyone, manager, byName, visibility.Visible)
	}

	progress("creating class categories")
	for _, class := range classes {
		if class.Category != "" {
			// Explicit-category classes manage their own category
			// permissions; the reconciler never touches them.
			continue
		}
		name := strings.ToUpper(class.Name)
		if existing, ok := categories[name]; ok {
			if _, err := r.gw.ChannelEdit(existing.ID, &discordgo.ChannelEdit{
				PermissionOverwrites: perms(class.Name),
			}); err != nil {
				return err
			}
		} else {
			if _, err := r.gw.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
				Name:                 name,
				Type:                 discordgo.ChannelTypeGuildCategory,
				PermissionOverwrites: perms(class.Name),
			}); err != nil {
				return err
			}
		}
	}

	channels, err = r.gw.GuildChannels(guildID)
	if err != nil {
		return err
	}
	existing := make(map[string]*discordgo.Channel)
	categories = make(map[string]*discordgo.Channel)
	for _, ch := range channels {
		existing[ch.Name] = ch
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			categories[ch.Name] = ch
		}
	}

	progress("creating class channels")
	for _, class := range classes {
		for _, template := range templates {
			channelName := template.ChannelName(class.Name)
			parent := categories[class.CategoryName()]
			ch, ok := existing[channelName]
			if !ok {
				parentID := ""
				if parent != nil {
					parentID = parent.ID
				}
				ch, err = r.gw.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
					Name:                 channelName,
					Type:                 discordgo.ChannelTypeGuildText,
					ParentID:             parentID,
					PermissionOverwrites: perms(class.Name),
				})
				if err != nil {
					return err
				}
				existing[channelName] = ch
			} else {
				if _, err := r.gw.ChannelEdit(ch.ID, &discordgo.ChannelEdit{
					PermissionOverwrites: perms(class.Name),
				}); err != nil {
					return err
				}
			}
			if class.Category == "" && parent != nil {
				r.inheritPermissions(ch, parent)
			}
		}
	}

	progress("creating instructor channels")
	for _, instructor := range instructors {
		channelName := instructor.ChannelName()
		parent := categories[strings.ToUpper(instructor.ClassName)]
		ch, ok := existing[channelName]
		if !ok {
			parentID := ""
			if parent != nil {
				parentID = parent.ID
			}
			ch, err = r.gw.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
				Name:     channelName,
				Type:     discordgo.ChannelTypeGuildText,
				ParentID: parentID,
			})
			if err != nil {
				return err
			}
			existing[channelName] = ch
		}
		if parent != nil {
			r.inheritPermissions(ch, parent)
		}
	}

	return r.RenderRegistration(guildID, progress)
}

// inheritPermissions re-synchronizes a channel's overwrites to its category's.
// Best-effort: a rejection here is a gateway anomaly, not a reconcile failure.
func (r *Reconciler) inheritPermissions(ch, parent *discordgo.Channel) {
	if _, err := r.gw.ChannelEdit(ch.ID, &discordgo.ChannelEdit{
		PermissionOverwrites: parent.PermissionOverwrites,
	}); err != nil {
		r.log.Warnf("Error syncing permissions for channel %s: %v", ch.Name, err)
	}
}

// anchorRoles resolves @everyone and the manager role. A missing manager role
// is a configuration precondition failure and aborts the reconcile.
func (r *Reconciler) anchorRoles(roles []*discordgo.Role) (everyone, manager *discordgo.Role, err error) {
	for _, role := range roles {
		if role.Name == EveryoneRoleName {
			everyone = role
		}
		if manager == nil && strings.HasPrefix(role.Name, r.managerPrefix) {
			manager = role
		}
	}
	if everyone == nil {
		return nil, nil, fmt.Errorf("no %s role found", EveryoneRoleName)
	}
	if manager == nil {
		return nil, nil, fmt.Errorf("no role with prefix %q found", r.managerPrefix)
	}
	return everyone, manager, nil
}

// classPermissions computes the overwrite set for one class's category and
// channels: @everyone loses view access unless the guild-wide visibility
// setting is on, the class role and the optional Omniscient role can view,
// and the manager role can view and manage.
func classPermissions(roleName string, everyone, manager *discordgo.Role, byName map[string]*discordgo.Role, visible bool) []*discordgo.PermissionOverwrite {
	var everyoneDeny int64
	if !visible {
		everyoneDeny = discordgo.PermissionViewChannel
	}
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   everyone.ID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: everyoneDeny,
		},
	}
	if classRole, ok := byName[roleName]; ok {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    classRole.ID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel,
		})
	}
	overwrites = append(overwrites, &discordgo.PermissionOverwrite{
		ID:    manager.ID,
		Type:  discordgo.PermissionOverwriteTypeRole,
		Allow: discordgo.PermissionViewChannel | discordgo.PermissionManageChannels,
	})
	if omniscient, ok := byName[OmniscientRoleName]; ok {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    omniscient.ID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel,
		})
	}
	return overwrites
}

// rolesByName maps roles by name. Duplicate role names are a gateway anomaly;
// the first occurrence wins and a warning is surfaced when a progress sink is
// supplied.
func rolesByName(roles []*discordgo.Role, progress Progress) map[string]*discordgo.Role {
	byName := make(map[string]*discordgo.Role, len(roles))
	for _, role := range roles {
		if _, ok := byName[role.Name]; ok {
			if progress != nil {
				progress(fmt.Sprintf("WARNING: Multiple %q role found.", role.Name))
			}
			continue
		}
		byName[role.Name] = role
	}
	return byName
}

func findRole(roles []*discordgo.Role, name string) *discordgo.Role {
	for _, role := range roles {
		if role.Name == name {
			return role
		}
	}
	return nil
}
