package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestChunkLinesPacksUnderMessageCap(t *testing.T) {
	long := strings.Repeat("x", 900)
	chunks := chunkLines([]string{long, long, long})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > maxMessageLength {
			t.Errorf("chunk %d is %d characters", i, len(chunk))
		}
	}
	if chunks[0] != long+"\r"+long {
		t.Error("first chunk should pack two lines")
	}
	if chunks[1] != long {
		t.Error("second chunk should hold the overflow line")
	}
}

func TestChunkLinesEmpty(t *testing.T) {
	if chunks := chunkLines(nil); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %v", chunks)
	}
}

func TestHasPermission(t *testing.T) {
	interaction := func(perms int64) *discordgo.InteractionCreate {
		return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			Member: &discordgo.Member{Permissions: perms},
		}}
	}
	if !hasPermission(interaction(discordgo.PermissionManageChannels), discordgo.PermissionManageChannels) {
		t.Error("holder of the exact permission should pass")
	}
	if !hasPermission(interaction(discordgo.PermissionAdministrator), discordgo.PermissionManageChannels) {
		t.Error("administrators should pass any check")
	}
	if hasPermission(interaction(discordgo.PermissionSendMessages), discordgo.PermissionManageChannels) {
		t.Error("unrelated permissions should not pass")
	}
	if hasPermission(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}, discordgo.PermissionManageChannels) {
		t.Error("a DM interaction has no member and should not pass")
	}
}

func TestPendingStoreRoundTrip(t *testing.T) {
	store := NewPendingStore(time.Minute)
	store.Put("k", "v")
	if value, ok := store.Get("k"); !ok || value.(string) != "v" {
		t.Fatalf("Get = %v, %t", value, ok)
	}
	store.Delete("k")
	if _, ok := store.Get("k"); ok {
		t.Error("deleted entry should be gone")
	}
}

func TestPendingStoreExpiry(t *testing.T) {
	store := NewPendingStore(-time.Second)
	store.Put("k", "v")
	if _, ok := store.Get("k"); ok {
		t.Error("expired entry should be rejected on read")
	}
	// Writes purge dead entries too.
	store.Put("other", "w")
	store.mu.Lock()
	_, stillThere := store.entries["k"]
	store.mu.Unlock()
	if stillThere {
		t.Error("expired entry should be purged on write")
	}
}

func TestPrepInviteContents(t *testing.T) {
	template := `Join {class} here: {invite}\rSee you soon.`
	got := prepInviteContents(template, "stat-3021", "https://discord.gg/abc")
	want := "Join stat-3021 here: https://discord.gg/abc\rSee you soon."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClassEntityValidate(t *testing.T) {
	entity := ClassEntity()
	valid := []string{"stat-3021", "csci-1133", "phys-1301W", "math-5651h", "ab-1234"}
	for _, name := range valid {
		if err := entity.Validate(map[string]string{"name": name}); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", name, err)
		}
	}
	invalid := []string{"statistics", "stat3021", "s-3021", "stat-302", "stat-30211"}
	for _, name := range invalid {
		if err := entity.Validate(map[string]string{"name": name}); err == nil {
			t.Errorf("Validate(%q) = nil, want error", name)
		}
	}
}

func TestEntityPrimaryAndColumns(t *testing.T) {
	class := ClassEntity()
	pk, ok := class.primary()
	if !ok || pk.Name != "name" {
		t.Errorf("class primary = %+v, %t", pk, ok)
	}
	if _, ok := ClassChannelEntity().primary(); ok {
		t.Error("class-channel should have no primary field")
	}
	instructor := InstructorEntity()
	if got := instructor.column("class-name"); got != "class_name" {
		t.Errorf("class-name column = %q", got)
	}
	if got := instructor.column("unknown"); got != "unknown" {
		t.Errorf("unknown option should map to itself, got %q", got)
	}
}
