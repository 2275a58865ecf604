// ABOUTME: Tests for positional argument classification
// ABOUTME: Covers the .json-wins rule and the folder-shape fallback

package contextgen

import "testing"

func TestClassifyArg(t *testing.T) {
	tests := []struct {
		arg  string
		want ArgKind
	}{
		{"014-stateless-alignment", ArgDirectMode},
		{"001-auth/002-tokens", ArgDirectMode},
		{"session-data.json", ArgDataFile},
		{"/tmp/out.json", ArgDataFile},
		{"014-stateless-alignment.json", ArgDataFile},
		{"notes.txt", ArgDataFile},
		{"Stateless-Alignment", ArgDataFile},
		{"", ArgDataFile},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got := ClassifyArg(tt.arg)
			if got.Kind != tt.want {
				t.Errorf("ClassifyArg(%q).Kind = %v, want %v", tt.arg, got.Kind, tt.want)
			}
			if got.Value != tt.arg {
				t.Errorf("ClassifyArg(%q).Value = %q, want argument preserved", tt.arg, got.Value)
			}
		})
	}
}
