package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
	"github.com/rossesmond/src-bot/pkg/reconcile"
)

const removeClassPrefix = "remove_class_"

// memberClassRoles resolves the member's role ids to roles whose names look
// like class codes.
func memberClassRoles(s *discordgo.Session, i *discordgo.InteractionCreate) []*discordgo.Role {
	roles, err := s.GuildRoles(i.GuildID)
	if err != nil {
		return nil
	}
	byID := make(map[string]*discordgo.Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
	}
	classRoles := []*discordgo.Role{}
	for _, roleID := range i.Member.Roles {
		if role, ok := byID[roleID]; ok && models.ClassNamePattern.MatchString(role.Name) {
			classRoles = append(classRoles, role)
		}
	}
	return classRoles
}

func removalButtons(saved []*discordgo.Role, current []*discordgo.Role, removed string) []discordgo.MessageComponent {
	stillHas := make(map[string]bool, len(current))
	for _, role := range current {
		stillHas[role.ID] = true
	}
	buttons := make([]discordgo.Button, 0, len(saved))
	for _, role := range saved {
		buttons = append(buttons, discordgo.Button{
			Label:    role.Name,
			Style:    discordgo.PrimaryButton,
			CustomID: removeClassPrefix + role.ID,
			Disabled: !stillHas[role.ID] || role.ID == removed,
		})
	}
	return reconcile.ButtonRows(buttons)
}

// HandleButton routes a button click by its custom id. Unrecognized ids fall
// through to the registration board's convention: the id is a class name and
// the click toggles membership in the same-named role.
func HandleButton(deps *Deps, s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch {
	case customID == reconcile.ClassRemovalID:
		classRoles := memberClassRoles(s, i)
		if len(classRoles) == 0 {
			replyEphemeral(s, i, "You're not in any classes dingaling.")
			return
		}
		deps.Removals.Put(i.Member.User.ID, classRoles)
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    "Which classes would you like to hide?",
				Flags:      discordgo.MessageFlagsEphemeral,
				Components: removalButtons(classRoles, classRoles, ""),
			},
		})
		return

	case strings.HasPrefix(customID, removeClassPrefix):
		target := strings.TrimPrefix(customID, removeClassPrefix)
		if err := s.GuildMemberRoleRemove(i.GuildID, i.Member.User.ID, target); err != nil {
			deps.Log.Errorf("Error removing role %s from member %s: %v", target, i.Member.User.ID, err)
		}
		if value, ok := deps.Removals.Get(i.Member.User.ID); ok {
			saved := value.([]*discordgo.Role)
			current := memberClassRoles(s, i)
			s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseUpdateMessage,
				Data: &discordgo.InteractionResponseData{
					Content:    "Which classes would you like to hide?",
					Components: removalButtons(saved, current, target),
				},
			})
		} else {
			replyEphemeral(s, i, "You have been removed from the class.")
		}
		deps.RegSync.Schedule(i.GuildID)
		return

	case strings.HasPrefix(customID, reconcile.TogglePrefix):
		target := strings.TrimPrefix(customID, reconcile.TogglePrefix)
		has := false
		for _, roleID := range i.Member.Roles {
			if roleID == target {
				has = true
				break
			}
		}
		if has {
			if err := s.GuildMemberRoleRemove(i.GuildID, i.Member.User.ID, target); err != nil {
				deps.Log.Errorf("Error removing role %s from member %s: %v", target, i.Member.User.ID, err)
			}
			replyEphemeral(s, i, "Role removed.")
		} else {
			if err := s.GuildMemberRoleAdd(i.GuildID, i.Member.User.ID, target); err != nil {
				deps.Log.Errorf("Error adding role %s to member %s: %v", target, i.Member.User.ID, err)
			}
			replyEphemeral(s, i, "Role added.")
		}
		deps.RegSync.Schedule(i.GuildID)
		return

	case strings.HasPrefix(customID, launchCampaignPrefix):
		launchCampaign(deps, s, i, strings.TrimPrefix(customID, launchCampaignPrefix))
		return
	}

	// Registration board class buttons carry the bare class name.
	role := findRoleByName(s, i.GuildID, customID)
	if role == nil {
		replyEphemeral(s, i, fmt.Sprintf("There was no %s. How weird...", customID))
		return
	}
	has := false
	for _, roleID := range i.Member.Roles {
		if roleID == role.ID {
			has = true
			break
		}
	}
	if has {
		if err := s.GuildMemberRoleRemove(i.GuildID, i.Member.User.ID, role.ID); err != nil {
			replyEphemeral(s, i, fmt.Sprintf("Failed to remove you from %s. Likely due to a misplaced Student-Run Bot role.", role.Name))
		} else {
			replyEphemeral(s, i, fmt.Sprintf("You have been removed from %s.", role.Name))
		}
	} else {
		if err := s.GuildMemberRoleAdd(i.GuildID, i.Member.User.ID, role.ID); err != nil {
			replyEphemeral(s, i, fmt.Sprintf("Failed to add you to %s. Likely due to a misplaced Student-Run Bot role.", role.Name))
		} else {
			replyEphemeral(s, i, fmt.Sprintf("Welcome to %s.", role.Name))
		}
	}
	deps.RegSync.Schedule(i.GuildID)
}
