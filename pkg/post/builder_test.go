package post

import (
	"strings"
	"testing"
)

func TestPaletteCycles(t *testing.T) {
	p := NewPalette()
	got := []int{p.Next(), p.Next(), p.Next(), p.Next()}
	want := []int{0x6A0606, 0xE6B60A, 0x6A0606, 0xE6B60A}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("color %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestBuildSingleSection(t *testing.T) {
	embeds := Build("# Welcome\nRead the rules first.", nil, nil)
	if len(embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(embeds))
	}
	if embeds[0].Title != "Welcome" {
		t.Errorf("title = %q", embeds[0].Title)
	}
	if embeds[0].Description != "Read the rules first." {
		t.Errorf("description = %q", embeds[0].Description)
	}
	if embeds[0].Color != 0x6A0606 {
		t.Errorf("color = %#x", embeds[0].Color)
	}
}

func TestBuildSplitsSections(t *testing.T) {
	content := "# First\nbody one\n\n---\n\n# Second\nbody two\n\n---\n\nno title here"
	embeds := Build(content, nil, nil)
	if len(embeds) != 3 {
		t.Fatalf("expected 3 embeds, got %d", len(embeds))
	}
	if embeds[0].Title != "First" || embeds[1].Title != "Second" {
		t.Errorf("titles = %q, %q", embeds[0].Title, embeds[1].Title)
	}
	if embeds[2].Title != "" {
		t.Errorf("untitled section got title %q", embeds[2].Title)
	}
	if embeds[2].Description != "no title here" {
		t.Errorf("third description = %q", embeds[2].Description)
	}
	// Colors cycle across sections.
	if embeds[0].Color == embeds[1].Color || embeds[0].Color != embeds[2].Color {
		t.Error("accent colors should alternate per section")
	}
}

func TestBuildHandlesWindowsLineEndings(t *testing.T) {
	content := "# Title\r\nbody\r\n\r\n---\r\n\r\nsecond"
	embeds := Build(content, nil, nil)
	if len(embeds) != 2 {
		t.Fatalf("expected 2 embeds, got %d", len(embeds))
	}
	if embeds[0].Title != "Title" {
		t.Errorf("title = %q", embeds[0].Title)
	}
}

func TestBuildResolvesMentions(t *testing.T) {
	roles := map[string]string{"stat-3021": "111"}
	channels := map[string]string{"class-registration": "222"}
	embeds := Build("Join {@stat-3021} and visit {#class-registration}.", roles, channels)
	want := "Join <@&111> and visit <#222>."
	if embeds[0].Description != want {
		t.Errorf("description = %q, want %q", embeds[0].Description, want)
	}
}

func TestBuildUnknownMentionsFallBack(t *testing.T) {
	embeds := Build("Ping {@nobody} in {#nowhere}.", nil, nil)
	desc := embeds[0].Description
	if !strings.Contains(desc, "<@&not found>") || !strings.Contains(desc, "<#not found>") {
		t.Errorf("description = %q, want not-found placeholders", desc)
	}
}

func TestBuildDashesInsideTextAreNotDelimiters(t *testing.T) {
	content := "a --- b\n---\nc"
	embeds := Build(content, nil, nil)
	if len(embeds) != 1 {
		t.Fatalf("inline dashes split into %d embeds", len(embeds))
	}
}
