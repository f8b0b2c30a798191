package invites

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

const testGuild = "guild-1"

type fakeGateway struct {
	invites  []*discordgo.Invite
	channels []*discordgo.Channel
	roles    []*discordgo.Role
	grants   []string // "userID:roleID"
}

func (f *fakeGateway) GuildInvites(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Invite, error) {
	return f.invites, nil
}

func (f *fakeGateway) GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	return f.channels, nil
}

func (f *fakeGateway) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.roles, nil
}

func (f *fakeGateway) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.grants = append(f.grants, userID+":"+roleID)
	return nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	if err := db.AutoMigrate(&models.Invite{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func testTracker(t *testing.T, db *gorm.DB, gw Gateway) *Tracker {
	t.Helper()
	guilds := func() []string { return []string{testGuild} }
	return NewTracker(zap.NewNop().Sugar(), db, gw, guilds, time.Minute)
}

// classGateway wires one invite pointing into a channel under the STAT-3021
// category, with a matching lowercase class role.
func classGateway() *fakeGateway {
	return &fakeGateway{
		channels: []*discordgo.Channel{
			{ID: "cat", Name: "STAT-3021", Type: discordgo.ChannelTypeGuildCategory},
			{ID: "ch", Name: "hw-stat-3021", ParentID: "cat"},
			{ID: "lobby", Name: "lobby"},
		},
		roles: []*discordgo.Role{
			{ID: "role-stat", Name: "stat-3021"},
			{ID: "role-other", Name: "csci-1133"},
		},
	}
}

func TestSweepUpsertsLedger(t *testing.T) {
	db := testDB(t)
	db.Create(&models.Invite{Guild: testGuild, Code: "codeB", Count: 2})

	gw := &fakeGateway{invites: []*discordgo.Invite{
		{Code: "codeA", Uses: 5},
		{Code: "codeB", Uses: 3},
	}}
	tr := testTracker(t, db, gw)

	if err := tr.Sweep(testGuild); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	var saved []models.Invite
	db.Where("guild = ?", testGuild).Order("code").Find(&saved)
	if len(saved) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(saved))
	}
	if saved[0].Code != "codeA" || saved[0].Count != 5 {
		t.Errorf("codeA not inserted: %+v", saved[0])
	}
	if saved[1].Code != "codeB" || saved[1].Count != 3 {
		t.Errorf("codeB not updated: %+v", saved[1])
	}
}

func TestHandleInviteCreateRecordsBaseline(t *testing.T) {
	db := testDB(t)
	tr := testTracker(t, db, &fakeGateway{})

	tr.HandleInviteCreate(testGuild, "codeNew", 0)

	var saved models.Invite
	if err := db.Where("guild = ? AND code = ?", testGuild, "codeNew").First(&saved).Error; err != nil {
		t.Fatalf("baseline row missing: %v", err)
	}
	if saved.Count != 0 {
		t.Errorf("baseline count = %d, want 0", saved.Count)
	}
}

func TestHandleMemberAddGrantsClassRole(t *testing.T) {
	db := testDB(t)
	db.Create(&models.Invite{Guild: testGuild, Code: "codeA", Count: 4})
	db.Create(&models.Invite{Guild: testGuild, Code: "codeB", Count: 7})

	gw := classGateway()
	gw.invites = []*discordgo.Invite{
		{Code: "codeA", Uses: 4, Channel: &discordgo.Channel{ID: "lobby"}},
		{Code: "codeB", Uses: 8, Channel: &discordgo.Channel{ID: "ch"}},
	}
	tr := testTracker(t, db, gw)

	if err := tr.HandleMemberAdd(testGuild, "user-1"); err != nil {
		t.Fatalf("member add: %v", err)
	}
	if len(gw.grants) != 1 || gw.grants[0] != "user-1:role-stat" {
		t.Errorf("grants = %v, want exactly user-1:role-stat", gw.grants)
	}
}

func TestHandleMemberAddAmbiguousGrantsNothing(t *testing.T) {
	db := testDB(t)
	db.Create(&models.Invite{Guild: testGuild, Code: "codeA", Count: 4})
	db.Create(&models.Invite{Guild: testGuild, Code: "codeB", Count: 7})

	gw := classGateway()
	gw.invites = []*discordgo.Invite{
		{Code: "codeA", Uses: 5, Channel: &discordgo.Channel{ID: "ch"}},
		{Code: "codeB", Uses: 8, Channel: &discordgo.Channel{ID: "ch"}},
	}
	tr := testTracker(t, db, gw)

	if err := tr.HandleMemberAdd(testGuild, "user-1"); err != nil {
		t.Fatalf("member add: %v", err)
	}
	if len(gw.grants) != 0 {
		t.Errorf("ambiguous attribution granted roles: %v", gw.grants)
	}
}

func TestHandleMemberAddNonClassCategoryGrantsNothing(t *testing.T) {
	db := testDB(t)
	db.Create(&models.Invite{Guild: testGuild, Code: "codeA", Count: 4})

	gw := &fakeGateway{
		channels: []*discordgo.Channel{
			{ID: "cat", Name: "GENERAL", Type: discordgo.ChannelTypeGuildCategory},
			{ID: "ch", Name: "chatter", ParentID: "cat"},
		},
		invites: []*discordgo.Invite{
			{Code: "codeA", Uses: 5, Channel: &discordgo.Channel{ID: "ch"}},
		},
	}
	tr := testTracker(t, db, gw)

	if err := tr.HandleMemberAdd(testGuild, "user-1"); err != nil {
		t.Fatalf("member add: %v", err)
	}
	if len(gw.grants) != 0 {
		t.Errorf("non-class invite granted roles: %v", gw.grants)
	}
}

func TestHandleMemberAddSchedulesSweep(t *testing.T) {
	db := testDB(t)
	gw := &fakeGateway{}
	tr := testTracker(t, db, gw)

	if err := tr.HandleMemberAdd(testGuild, "user-1"); err != nil {
		t.Fatalf("member add: %v", err)
	}
	select {
	case <-tr.kick:
	default:
		t.Error("expected a pending sweep request")
	}
}
