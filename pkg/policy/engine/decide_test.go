package engine

import (
	"errors"
	"testing"
)

func TestDecide(t *testing.T) {
	const (
		original = "My SSN is 123-45-6789"
		redacted = "My SSN is [SSN_REDACTED]"
	)

	tests := []struct {
		name       string
		hasPII     bool
		action     Action
		wantAction Action
		wantOutput string
	}{
		{"no pii with redact", false, ActionRedact, ActionAllow, original},
		{"no pii with deny", false, ActionDeny, ActionAllow, original},
		{"pii with redact", true, ActionRedact, ActionRedact, redacted},
		{"pii with deny", true, ActionDeny, ActionDeny, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig().WithDefaultAction(tt.action)
			got := Decide(tt.hasPII, cfg, original, redacted)
			if got.Action != tt.wantAction {
				t.Errorf("Decide() Action = %v, want %v", got.Action, tt.wantAction)
			}
			if got.Output != tt.wantOutput {
				t.Errorf("Decide() Output = %q, want %q", got.Output, tt.wantOutput)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PolicyVersion != "1.0.0" {
		t.Errorf("PolicyVersion = %q, want %q", cfg.PolicyVersion, "1.0.0")
	}
	if cfg.DefaultAction != ActionRedact {
		t.Errorf("DefaultAction = %v, want %v", cfg.DefaultAction, ActionRedact)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{"redact", ActionRedact, false},
		{"deny", ActionDeny, false},
		{"allow rejected", ActionAllow, true},
		{"empty rejected", "", true},
		{"unknown rejected", "escalate", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Config{PolicyVersion: "2.0", DefaultAction: tt.action}.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_WithersCopy(t *testing.T) {
	base := DefaultConfig()
	derived := base.WithPolicyVersion("2024.1").WithDefaultAction(ActionDeny)

	if base.PolicyVersion != DefaultPolicyVersion || base.DefaultAction != ActionRedact {
		t.Errorf("base config was modified: %+v", base)
	}
	if derived.PolicyVersion != "2024.1" || derived.DefaultAction != ActionDeny {
		t.Errorf("derived config = %+v", derived)
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		input   string
		want    Action
		wantErr bool
	}{
		{"redact", ActionRedact, false},
		{"Redact", ActionRedact, false},
		{" DENY ", ActionDeny, false},
		{"allow", ActionAllow, false},
		{"block", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAction(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAction(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAction(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
