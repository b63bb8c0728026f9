package collection

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		want   []string
	}{
		{
			name:   "reserved groups removed",
			groups: []string{"default", "engineering", "pod_admin", "sales"},
			want:   []string{"engineering", "sales"},
		},
		{
			name:   "order preserved",
			groups: []string{"sales", "engineering"},
			want:   []string{"sales", "engineering"},
		},
		{
			name:   "only reserved yields empty",
			groups: []string{"default", "pod_admin"},
			want:   []string{},
		},
		{
			name:   "empty input",
			groups: nil,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.groups)
			if len(got) != len(tt.want) {
				t.Fatalf("Resolve(%v) = %v, want %v", tt.groups, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Resolve(%v)[%d] = %q, want %q", tt.groups, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestInitialIndex(t *testing.T) {
	tests := []struct {
		name         string
		collections  []string
		primaryGroup string
		want         int
	}{
		{"primary present", []string{"engineering", "sales"}, "sales", 1},
		{"primary absent falls back to zero", []string{"engineering", "sales"}, "hr", 0},
		{"empty collections", []string{}, "sales", 0},
		{"empty primary", []string{"engineering"}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InitialIndex(tt.collections, tt.primaryGroup); got != tt.want {
				t.Errorf("InitialIndex(%v, %q) = %d, want %d", tt.collections, tt.primaryGroup, got, tt.want)
			}
		})
	}
}
