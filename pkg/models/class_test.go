package models

import "testing"

func TestCategoryName(t *testing.T) {
	derived := Class{Name: "stat-3021"}
	if got := derived.CategoryName(); got != "STAT-3021" {
		t.Errorf("CategoryName() = %q, want STAT-3021", got)
	}
	explicit := Class{Name: "math-5000", Category: "MATHSTAT"}
	if got := explicit.CategoryName(); got != "MATHSTAT" {
		t.Errorf("CategoryName() = %q, want MATHSTAT", got)
	}
}

func TestClassChannelName(t *testing.T) {
	template := ClassChannel{Name: "hw"}
	if got := template.ChannelName("stat-3021"); got != "hw-stat-3021" {
		t.Errorf("ChannelName = %q", got)
	}
	bare := ClassChannel{Name: BareChannelSentinel}
	if got := bare.ChannelName("stat-3021"); got != "stat-3021" {
		t.Errorf("bare ChannelName = %q", got)
	}
}

func TestInstructorChannelName(t *testing.T) {
	instructor := Instructor{ClassName: "stat-3021", Instructor: "gauss"}
	if got := instructor.ChannelName(); got != "gauss-stat-3021" {
		t.Errorf("ChannelName = %q", got)
	}
}
