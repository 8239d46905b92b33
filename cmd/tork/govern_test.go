package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tork-hq/governance/pkg/cli"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/pii/scan"
	"tork-hq/governance/pkg/policy/engine"
	"tork-hq/governance/pkg/tork"
)

func TestGovernCommand(t *testing.T) {
	inputFile := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(inputFile, []byte("Emirates ID: 784-1234-1234567-1"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		stdin      string
		args       []string
		wantAction engine.Action
		wantOutput string
		wantPolicy string
	}{
		{
			name:       "stdin with trailing newline",
			stdin:      "My SSN is 123-45-6789\n",
			args:       []string{"govern"},
			wantAction: engine.ActionRedact,
			wantOutput: "My SSN is [SSN_REDACTED]",
			wantPolicy: "1.0.0",
		},
		{
			name:       "positional text",
			args:       []string{"govern", "Hello world"},
			wantAction: engine.ActionAllow,
			wantOutput: "Hello world",
			wantPolicy: "1.0.0",
		},
		{
			name:       "deny with policy version",
			args:       []string{"govern", "--deny", "--policy-version", "2.1.0", "SSN 123-45-6789"},
			wantAction: engine.ActionDeny,
			wantOutput: "",
			wantPolicy: "2.1.0",
		},
		{
			name:       "file with region pack",
			args:       []string{"govern", "--region", "ae", "--file", inputFile},
			wantAction: engine.ActionRedact,
			wantOutput: "Emirates ID: [EMIRATES_ID_REDACTED]",
			wantPolicy: "1.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("govern error = %v", err)
			}

			var res tork.GovernanceResult
			if err := json.Unmarshal([]byte(out), &res); err != nil {
				t.Fatalf("output is not a GovernanceResult: %v\n%s", err, out)
			}
			if res.Action != tt.wantAction {
				t.Errorf("Action = %v, want %v", res.Action, tt.wantAction)
			}
			if res.Output != tt.wantOutput {
				t.Errorf("Output = %q, want %q", res.Output, tt.wantOutput)
			}
			if res.Receipt.PolicyVersion != tt.wantPolicy {
				t.Errorf("PolicyVersion = %q, want %q", res.Receipt.PolicyVersion, tt.wantPolicy)
			}
			if !strings.HasPrefix(res.Receipt.ReceiptID, "rcpt_") {
				t.Errorf("ReceiptID = %q", res.Receipt.ReceiptID)
			}
		})
	}
}

func TestGovernCommand_ConfigRegions(t *testing.T) {
	path := writeConfig(t, "governance:\n  regions: [ae]\n")

	out, _, err := execute(t, "", "govern", "--config", path, "Emirates ID: 784-1234-1234567-1")
	if err != nil {
		t.Fatalf("govern error = %v", err)
	}
	var res tork.GovernanceResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Receipt.HasType(pii.TypeEmiratesID) {
		t.Errorf("configured region not applied: %v", res.Receipt.DetectedTypes)
	}

	// An explicit --region replaces the configured selection.
	out, _, err = execute(t, "", "govern", "--config", path, "--region", "in", "Emirates ID: 784-1234-1234567-1")
	if err != nil {
		t.Fatalf("govern error = %v", err)
	}
	res = tork.GovernanceResult{}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res.Receipt.HasType(pii.TypeEmiratesID) {
		t.Error("--region did not replace the configured regions")
	}
}

func TestGovernCommand_Errors(t *testing.T) {
	badAction := writeConfig(t, "governance:\n  default_action: allow\n")

	tests := []struct {
		name     string
		stdin    string
		args     []string
		wantCode int
	}{
		{"invalid utf-8", "abc\xff", []string{"govern"}, cli.ExitInput},
		{"invalid config", "", []string{"govern", "--config", badAction, "x"}, cli.ExitConfig},
		{"store without sink", "", []string{"govern", "--store", "x"}, cli.ExitConfig},
		{"missing input file", "", []string{"govern", "--file", "/nonexistent/prompt.txt"}, cli.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.stdin, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := cli.ExitCode(err); got != tt.wantCode {
				t.Errorf("ExitCode(%v) = %d, want %d", err, got, tt.wantCode)
			}
		})
	}
}

func TestGovernCommand_InvalidEncodingIsTyped(t *testing.T) {
	_, _, err := execute(t, "abc\xff", "govern")
	var encErr *pii.InputEncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("error = %v, want *pii.InputEncodingError", err)
	}
	if encErr.Offset != 3 {
		t.Errorf("Offset = %d, want 3", encErr.Offset)
	}
}

func TestDetectCommand(t *testing.T) {
	out, _, err := execute(t, "", "detect", "Contact john@example.com")
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}

	var res scan.DetectionResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not a DetectionResult: %v\n%s", err, out)
	}
	if !res.HasPII || res.Count != 1 {
		t.Fatalf("HasPII = %v, Count = %d", res.HasPII, res.Count)
	}
	if m := res.Matches[0]; m.Type != pii.TypeEmail || m.Start != 8 || m.Value != "john@example.com" {
		t.Errorf("Matches[0] = %+v", m)
	}
	if res.RedactedText != "Contact [EMAIL_REDACTED]" {
		t.Errorf("RedactedText = %q", res.RedactedText)
	}
}

func TestReadInput(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"args joined", []string{"a", "b"}, "ignored", "a b"},
		{"stdin newline", nil, "text\n", "text"},
		{"stdin crlf", nil, "text\r\n", "text"},
		{"stdin keeps inner newlines", nil, "one\ntwo\n\n", "one\ntwo\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readInput(tt.args, "", strings.NewReader(tt.stdin))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("readInput() = %q, want %q", got, tt.want)
			}
		})
	}
}
