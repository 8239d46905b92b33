package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the root command with args and stdin and captures its
// output.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tork.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestHashCommand(t *testing.T) {
	out, _, err := execute(t, "", "hash", "test")
	if err != nil {
		t.Fatalf("hash error = %v", err)
	}
	want := "sha256:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08\n"
	if out != want {
		t.Errorf("hash output = %q, want %q", out, want)
	}

	if _, _, err := execute(t, "", "hash"); err == nil {
		t.Error("hash without an argument should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()
	Version = "0.1.0-test"
	GitCommit = "abc123"

	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	for _, want := range []string{"Tork Governance 0.1.0-test", "Git Commit: abc123", "Go Version:"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"govern", "detect", "hash", "patterns", "serve", "receipts", "version"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootOptions_LoadConfig(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: warn\n")

	tests := []struct {
		name      string
		opts      rootOptions
		wantLevel string
		wantErr   bool
	}{
		{"defaults", rootOptions{}, "info", false},
		{"file", rootOptions{configPath: path}, "warn", false},
		{"verbose", rootOptions{configPath: path, verbose: true}, "debug", false},
		{"explicit level wins", rootOptions{configPath: path, verbose: true, logLevel: "error"}, "error", false},
		{"missing file", rootOptions{configPath: filepath.Join(t.TempDir(), "nope.yaml")}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.opts.loadConfig()
			if tt.wantErr {
				if err == nil {
					t.Fatal("loadConfig() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			if cfg.Logging.Level != tt.wantLevel {
				t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, tt.wantLevel)
			}
		})
	}
}
