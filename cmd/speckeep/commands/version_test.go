// ABOUTME: Tests for the version command
// ABOUTME: Verifies output includes version, commit, and build date

package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd_Output(t *testing.T) {
	SetVersion("1.2.3", "abc1234", "2026-08-01")
	defer SetVersion("dev", "none", "unknown")

	cmd := NewVersionCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := output.String()
	for _, want := range []string{"speckeep 1.2.3", "abc1234", "2026-08-01"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}
