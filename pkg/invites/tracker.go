package invites

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Gateway is the slice of the Discord API the tracker consumes. Satisfied by
// *discordgo.Session.
type Gateway interface {
	GuildInvites(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Invite, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// Tracker owns the invite-use ledger. It attributes new members to the invite
// they used by diffing live use-counts against stored counts, and keeps the
// ledger fresh with a periodic sweep over every guild.
type Tracker struct {
	log      *zap.SugaredLogger
	db       *gorm.DB
	gw       Gateway
	guilds   func() []string
	interval time.Duration

	stop chan struct{}
	kick chan struct{}
}

func NewTracker(log *zap.SugaredLogger, db *gorm.DB, gw Gateway, guilds func() []string, interval time.Duration) *Tracker {
	return &Tracker{
		log:      log,
		db:       db,
		gw:       gw,
		guilds:   guilds,
		interval: interval,
		stop:     make(chan struct{}),
		kick:     make(chan struct{}, 1),
	}
}

// Start launches the background sweep loop. A sweep failure only delays the
// next sweep, never halts the loop.
func (t *Tracker) Start() {
	go t.run()
}

func (t *Tracker) Stop() {
	close(t.stop)
}

func (t *Tracker) run() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	t.SweepAll()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		case <-t.kick:
		}
		t.SweepAll()
	}
}

// requestSweep asks the loop for an immediate sweep without blocking.
func (t *Tracker) requestSweep() {
	select {
	case t.kick <- struct{}{}:
	default:
	}
}

// SweepAll refreshes the ledger for every known guild.
func (t *Tracker) SweepAll() {
	for _, guildID := range t.guilds() {
		if err := t.Sweep(guildID); err != nil {
			t.log.Errorf("Error sweeping invites for guild %s: %v", guildID, err)
		}
	}
}

// Sweep upserts the ledger from a fresh fetch of the guild's invites: unseen
// codes are inserted, changed counts are updated.
func (t *Tracker) Sweep(guildID string) error {
	live, err := t.gw.GuildInvites(guildID)
	if err != nil {
		return err
	}
	for _, invite := range live {
		var saved models.Invite
		err := t.db.Where("guild = ? AND code = ?", guildID, invite.Code).First(&saved).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			saved = models.Invite{Guild: guildID, Code: invite.Code, Count: invite.Uses}
			if err := t.db.Create(&saved).Error; err != nil {
				return err
			}
			continue
		}
		if saved.Count != invite.Uses {
			saved.Count = invite.Uses
			if err := t.db.Save(&saved).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// HandleInviteCreate eagerly inserts a ledger row for a brand-new invite, so
// its first use does not look ambiguous against a missing baseline.
func (t *Tracker) HandleInviteCreate(guildID, code string, uses int) {
	invite := models.Invite{Guild: guildID, Code: code, Count: uses}
	if err := t.db.Create(&invite).Error; err != nil {
		t.log.Errorf("Error recording new invite %s for guild %s: %v", code, guildID, err)
	}
}

// HandleMemberAdd infers which invite the joining member used and, when the
// invite originates from a class category, grants the matching class role.
// Attribution is best-effort: zero or multiple +1 candidates grant nothing.
// The ledger is refreshed afterwards regardless of the outcome.
func (t *Tracker) HandleMemberAdd(guildID, userID string) error {
	defer t.requestSweep()

	live, err := t.gw.GuildInvites(guildID)
	if err != nil {
		return err
	}
	var prior []models.Invite
	if err := t.db.Where("guild = ?", guildID).Find(&prior).Error; err != nil {
		return err
	}
	counts := make(map[string]int, len(prior))
	for _, p := range prior {
		counts[p.Code] = p.Count
	}

	var candidates []*discordgo.Invite
	for _, invite := range live {
		if count, ok := counts[invite.Code]; ok && count == invite.Uses-1 {
			candidates = append(candidates, invite)
		}
	}
	if len(candidates) != 1 {
		return nil
	}
	candidate := candidates[0]
	if candidate.Channel == nil {
		return nil
	}

	channels, err := t.gw.GuildChannels(guildID)
	if err != nil {
		return err
	}
	byID := make(map[string]*discordgo.Channel, len(channels))
	for _, ch := range channels {
		byID[ch.ID] = ch
	}
	origin, ok := byID[candidate.Channel.ID]
	if !ok || origin.ParentID == "" {
		return nil
	}
	category, ok := byID[origin.ParentID]
	if !ok || !models.ClassNamePattern.MatchString(category.Name) {
		return nil
	}

	roles, err := t.gw.GuildRoles(guildID)
	if err != nil {
		return err
	}
	roleName := strings.ToLower(category.Name)
	for _, role := range roles {
		if role.Name == roleName {
			return t.gw.GuildMemberRoleAdd(guildID, userID, role.ID)
		}
	}
	return nil
}
