package service

import (
	"strings"
	"testing"
)

func TestCleanGroups(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		want   []string
	}{
		{
			name:   "strips leading slash",
			groups: []string{"/engineering", "/hr"},
			want:   []string{"engineering", "hr"},
		},
		{
			name:   "keeps plain names",
			groups: []string{"engineering"},
			want:   []string{"engineering"},
		},
		{
			name:   "drops empty entries",
			groups: []string{"/", "", "finance"},
			want:   []string{"finance"},
		},
		{
			name:   "nil input",
			groups: nil,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanGroups(tt.groups)
			if len(got) != len(tt.want) {
				t.Fatalf("cleanGroups(%v) = %v, want %v", tt.groups, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("cleanGroups(%v)[%d] = %q, want %q", tt.groups, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSessionTitle(t *testing.T) {
	if got := sessionTitle("  What is our leave policy?  "); got != "What is our leave policy?" {
		t.Errorf("sessionTitle trimmed = %q", got)
	}

	long := strings.Repeat("a", 200)
	got := sessionTitle(long)
	if len([]rune(got)) != 80 {
		t.Errorf("sessionTitle long length = %d, want 80", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("sessionTitle long should end with ellipsis, got %q", got)
	}
}

func TestIsSupportRequest(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"Please CONTACT SUPPORT about my account", true},
		{"can you send email to the team?", true},
		{"email support please", true},
		{"what is the leave policy?", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isSupportRequest(tt.message); got != tt.want {
			t.Errorf("isSupportRequest(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestContains(t *testing.T) {
	if !contains([]string{"a", "b"}, "b") {
		t.Error("expected contains to find element")
	}
	if contains([]string{"a", "b"}, "c") {
		t.Error("expected contains to miss element")
	}
	if contains(nil, "a") {
		t.Error("expected contains on nil to be false")
	}
}
