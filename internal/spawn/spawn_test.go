package spawn

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSplit_QuotesAndEnv(t *testing.T) {
	t.Setenv("TILEWM_TEST_DIR", "/srv/data")

	argv, err := Split(`xterm -T "my term" -e 'ls -l' $TILEWM_TEST_DIR`)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	want := []string{"xterm", "-T", "my term", "-e", "ls -l", "/srv/data"}
	if len(argv) != len(want) {
		t.Fatalf("argv = %q, want %q", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestSplit_UnterminatedQuote(t *testing.T) {
	if _, err := Split(`xterm -T "oops`); err == nil {
		t.Fatalf("expected error for unterminated quote")
	}
}

func TestStart_EmptyCommand(t *testing.T) {
	if err := Start("   "); !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("err = %v, want ErrEmptyCommand", err)
	}
}

func TestRun_WaitsForScript(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	script := filepath.Join(dir, "startup.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\ntouch \"$1\"\n"), 0755); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := Run(script + " " + marker); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("script did not run before Run returned: %v", err)
	}
}
