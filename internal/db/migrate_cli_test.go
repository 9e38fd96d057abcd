package db

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.db")

	var out bytes.Buffer
	if err := RunMigrateCommand([]string{"status"}, path, &out); err != nil {
		t.Fatalf("status on empty DB failed: %v", err)
	}
	if !strings.Contains(out.String(), "Schema version: 0") {
		t.Errorf("status output = %q", out.String())
	}

	out.Reset()
	if err := RunMigrateCommand([]string{"up"}, path, &out); err != nil {
		t.Fatalf("up failed: %v", err)
	}
	if !strings.Contains(out.String(), "Schema version: 1") {
		t.Errorf("up output = %q", out.String())
	}

	out.Reset()
	if err := RunMigrateCommand([]string{"down"}, path, &out); err != nil {
		t.Fatalf("down failed: %v", err)
	}
	if !strings.Contains(out.String(), "Schema version: 0") {
		t.Errorf("down output = %q", out.String())
	}
}

func TestRunMigrateCommand_BadArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.db")
	var out bytes.Buffer

	if err := RunMigrateCommand(nil, path, &out); err == nil {
		t.Error("expected error with no action")
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Errorf("help not printed: %q", out.String())
	}

	out.Reset()
	if err := RunMigrateCommand([]string{"sideways"}, path, &out); err == nil || !strings.Contains(err.Error(), "sideways") {
		t.Errorf("err = %v, want unknown action", err)
	}

	out.Reset()
	if err := RunMigrateCommand([]string{"help"}, path, &out); err != nil {
		t.Errorf("help failed: %v", err)
	}
}
