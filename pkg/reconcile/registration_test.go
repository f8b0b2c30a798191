package reconcile

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rossesmond/src-bot/pkg/models"
)

func TestClassLevel(t *testing.T) {
	cases := []struct {
		name  string
		level int
	}{
		{"stat-3021", 3},
		{"csci-1133", 1},
		{"xyz-8001", 8},
		{"phys-1301W", 1},
		{"math-5651h", 5},
		{"MATH-5651", -1}, // codes are stored lowercase
		{"ab-999", -1},
		{"seminar", -1},
		{"a-1000", -1},
	}
	for _, c := range cases {
		if got := ClassLevel(c.name); got != c.level {
			t.Errorf("ClassLevel(%q) = %d, want %d", c.name, got, c.level)
		}
	}
}

func TestClassesAtLevelFiltersAndSorts(t *testing.T) {
	classes := []models.Class{
		{Name: "stat-3021"},
		{Name: "csci-3081W"},
		{Name: "ab-9999"}, // level 9 has no message
		{Name: "math-1001"},
	}
	got := classesAtLevel(classes, 3)
	if len(got) != 2 || got[0].Name != "csci-3081W" || got[1].Name != "stat-3021" {
		t.Fatalf("unexpected level-3 classes: %v", got)
	}
	if len(classesAtLevel(classes, 9)) != 1 {
		t.Error("level filtering should be purely numeric")
	}
	if len(classesAtLevel(classes, 2)) != 0 {
		t.Error("expected no level-2 classes")
	}
}

func TestButtonRowsChunksAtFive(t *testing.T) {
	buttons := make([]discordgo.Button, 12)
	for i := range buttons {
		buttons[i] = discordgo.Button{CustomID: fmt.Sprintf("b%d", i)}
	}
	rows := ButtonRows(buttons)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	widths := []int{5, 5, 2}
	for i, row := range rows {
		actions, ok := row.(discordgo.ActionsRow)
		if !ok {
			t.Fatalf("row %d is not an ActionsRow", i)
		}
		if len(actions.Components) != widths[i] {
			t.Errorf("row %d has %d buttons, want %d", i, len(actions.Components), widths[i])
		}
	}
	if len(ButtonRows(nil)) != 0 {
		t.Error("no buttons should produce no rows")
	}
}

func TestRenderRegistrationEditsMessagesInPlace(t *testing.T) {
	db := testDB(t)
	db.Create(&models.Class{Guild: testGuild, Name: "stat-3021", Label: "Intro Stats"})

	gw := preparedGateway()
	r := testReconciler(t, db, gw)

	if err := r.RenderRegistration(testGuild, nil); err != nil {
		t.Fatalf("first render: %v", err)
	}
	registration := gw.channel(RegistrationChannelName)
	if registration == nil {
		t.Fatal("expected registration channel")
	}
	// Header, one message per course level, other options.
	if got := len(gw.messages[registration.ID]); got != len(courseLevels)+2 {
		t.Fatalf("expected %d messages, got %d", len(courseLevels)+2, got)
	}

	db.Create(&models.Class{Guild: testGuild, Name: "stat-3701", Label: "Statistical Computing"})
	sends := gw.msgSends
	if err := r.RenderRegistration(testGuild, nil); err != nil {
		t.Fatalf("second render: %v", err)
	}
	if gw.msgSends != sends {
		t.Errorf("second render sent %d new messages instead of editing", gw.msgSends-sends)
	}

	level3 := findMessageByTitle(gw.messages[registration.ID], "**3000 Level Courses**")
	if level3 == nil {
		t.Fatal("expected a 3000-level message")
	}
	desc := level3.Embeds[0].Description
	if !strings.Contains(desc, "STAT-3021: Intro Stats") || !strings.Contains(desc, "STAT-3701: Statistical Computing") {
		t.Errorf("3000-level roster incomplete: %q", desc)
	}
}

func TestRenderRegistrationCountsEnrolledMembers(t *testing.T) {
	db := testDB(t)
	db.Create(&models.Class{Guild: testGuild, Name: "stat-3021", Label: "Intro Stats"})

	gw := preparedGateway()
	role := gw.addRole("stat-3021", 1)
	gw.members = []*discordgo.Member{
		{User: &discordgo.User{ID: "u1"}, Roles: []string{role.ID}},
		{User: &discordgo.User{ID: "u2"}, Roles: []string{role.ID}},
		{User: &discordgo.User{ID: "u3"}},
	}
	r := testReconciler(t, db, gw)

	if err := r.RenderRegistration(testGuild, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	registration := gw.channel(RegistrationChannelName)
	level3 := findMessageByTitle(gw.messages[registration.ID], "**3000 Level Courses**")
	if level3 == nil {
		t.Fatal("expected a 3000-level message")
	}
	row := level3.Components[0].(discordgo.ActionsRow)
	button := row.Components[0].(discordgo.Button)
	if button.Label != "[ 2 ] STAT-3021" {
		t.Errorf("button label = %q, want enrollment count prefix", button.Label)
	}
	if button.CustomID != "stat-3021" {
		t.Errorf("button custom id = %q, want class name", button.CustomID)
	}
}

func TestRenderRegistrationOtherOptions(t *testing.T) {
	db := testDB(t)
	gw := preparedGateway()
	omniscient := gw.addRole(OmniscientRoleName, 3)
	r := testReconciler(t, db, gw)

	if err := r.RenderRegistration(testGuild, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	registration := gw.channel(RegistrationChannelName)
	other := findMessageByTitle(gw.messages[registration.ID], otherOptionsTitle)
	if other == nil {
		t.Fatal("expected the other-options message")
	}
	row := other.Components[0].(discordgo.ActionsRow)
	if len(row.Components) != 2 {
		t.Fatalf("expected removal and omniscient buttons, got %d", len(row.Components))
	}
	if id := row.Components[0].(discordgo.Button).CustomID; id != ClassRemovalID {
		t.Errorf("first button custom id = %q", id)
	}
	if id := row.Components[1].(discordgo.Button).CustomID; id != TogglePrefix+omniscient.ID {
		t.Errorf("omniscient toggle custom id = %q", id)
	}
}
