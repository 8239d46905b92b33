package patterns

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tork-hq/governance/pkg/pii"
)

func TestNewRegistry_Builtins(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	for _, tag := range BuiltinTags() {
		if len(r.Pack(tag)) == 0 {
			t.Errorf("pack %q has no patterns", tag)
		}
	}

	total := 0
	for _, tag := range BuiltinTags() {
		total += len(r.Pack(tag))
	}
	if r.Len() != total {
		t.Errorf("Len() = %d, want %d", r.Len(), total)
	}
}

func TestNewRegistry_EveryTypeHasDetector(t *testing.T) {
	r := MustNewRegistry()

	covered := pii.TypeSet{}
	for _, tag := range BuiltinTags() {
		for _, p := range r.Pack(tag) {
			covered.Add(p.Type)
		}
	}
	for _, typ := range pii.AllTypes() {
		if !covered.Has(typ) {
			t.Errorf("type %q has no detector in any pack", typ)
		}
	}
}

func TestRegistry_Active(t *testing.T) {
	r := MustNewRegistry()
	core := r.Pack(pii.TagCore)

	tests := []struct {
		name     string
		opts     pii.GovernOptions
		wantTags []string
	}{
		{
			name:     "zero options is core only",
			opts:     pii.GovernOptions{},
			wantTags: []string{"core"},
		},
		{
			name:     "single region",
			opts:     pii.GovernOptions{Regions: []string{"ae"}},
			wantTags: []string{"ae", "core"},
		},
		{
			name:     "industry before regions",
			opts:     pii.GovernOptions{Regions: []string{"in", "eu"}, Industry: "finance"},
			wantTags: []string{"finance", "in", "eu", "core"},
		},
		{
			name:     "duplicate and unknown regions ignored",
			opts:     pii.GovernOptions{Regions: []string{"ae", "zz", "AE", "ae"}},
			wantTags: []string{"ae", "core"},
		},
		{
			name:     "unknown industry ignored",
			opts:     pii.GovernOptions{Industry: "aerospace"},
			wantTags: []string{"core"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Active(tt.opts)

			var want []*Pattern
			for _, tag := range tt.wantTags {
				want = append(want, r.Pack(tag)...)
			}
			if len(got) != len(want) {
				t.Fatalf("Active() returned %d patterns, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("Active()[%d] = %s, want %s", i, got[i].ID, want[i].ID)
				}
			}
			if got[len(got)-1] != core[len(core)-1] {
				t.Error("Active() must end with the core pack")
			}
		})
	}
}

func TestRegistry_TierOrdering(t *testing.T) {
	r := MustNewRegistry()
	active := r.Active(pii.GovernOptions{Regions: pii.SupportedRegions, Industry: "healthcare"})

	// Priorities never increase across a tier boundary.
	for i := 1; i < len(active); i++ {
		prev, cur := active[i-1], active[i]
		if cur.Tier > prev.Tier {
			t.Errorf("tier increased from %s (%d) to %s (%d)", prev.ID, prev.Tier, cur.ID, cur.Tier)
		}
		if cur.Tier < prev.Tier && cur.Priority() >= prev.Priority() {
			t.Errorf("%s priority %d should be below %s priority %d", cur.ID, cur.Priority(), prev.ID, prev.Priority())
		}
	}
}

func TestPattern_Priority(t *testing.T) {
	r := MustNewRegistry()

	for _, tt := range []struct {
		tag  string
		tier pii.Tier
	}{
		{"core", pii.TierCore},
		{"ae", pii.TierRegion},
		{"legal", pii.TierIndustry},
	} {
		for _, p := range r.Pack(tt.tag) {
			if p.Tier != tt.tier {
				t.Errorf("%s tier = %d, want %d", p.ID, p.Tier, tt.tier)
			}
			if p.Priority() < int(tt.tier)*pii.TierWeight || p.Priority() >= int(tt.tier+1)*pii.TierWeight {
				t.Errorf("%s priority %d outside its tier band", p.ID, p.Priority())
			}
			if p.Placeholder() != p.Type.Placeholder() {
				t.Errorf("%s placeholder = %q, want %q", p.ID, p.Placeholder(), p.Type.Placeholder())
			}
		}
	}
}

func TestNewRegistry_ExtraPack(t *testing.T) {
	data := []byte(`
pack: us
patterns:
  - id: us.employee_id
    type: us_itin
    priority: 100
    regex: '\bEMP-\d{6}\b'
`)
	r, err := NewRegistry(WithPackData("custom", data))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	var found *Pattern
	for _, p := range r.Active(pii.GovernOptions{Regions: []string{"us"}}) {
		if p.ID == "us.employee_id" {
			found = p
		}
	}
	if found == nil {
		t.Fatal("extra pattern not active for region us")
	}
	if locs := found.FindAll("badge EMP-123456"); len(locs) != 1 {
		t.Errorf("FindAll() returned %d locations, want 1", len(locs))
	}

	for _, p := range r.Active(pii.GovernOptions{}) {
		if p.ID == "us.employee_id" {
			t.Error("extra region pattern must not be active without its region")
		}
	}
}

func TestNewRegistry_PackFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	content := "pack: legal\npatterns:\n  - id: legal.docket\n    type: case_number\n    priority: 10\n    regex: 'DKT-\\d{5}'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	r, err := NewRegistry(WithPackFile(path))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if got := len(r.Pack("legal")); got != len(MustNewRegistry().Pack("legal"))+1 {
		t.Errorf("legal pack has %d patterns after extra file", got)
	}
}

func TestNewRegistry_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantPattern string
		wantMsg     string
	}{
		{
			name:    "malformed yaml",
			data:    "pack: [core",
			wantMsg: "parsing pack YAML",
		},
		{
			name:    "unknown field",
			data:    "pack: core\nbogus: true\npatterns: []\n",
			wantMsg: "bogus",
		},
		{
			name:    "unknown tag",
			data:    "pack: mars\npatterns: []\n",
			wantMsg: "unknown pack tag",
		},
		{
			name:        "invalid regex",
			data:        "pack: core\npatterns:\n  - id: x.bad\n    type: ssn\n    priority: 1\n    regex: '[unclosed'\n",
			wantPattern: "x.bad",
			wantMsg:     "compiling regex",
		},
		{
			name:        "unknown type",
			data:        "pack: core\npatterns:\n  - id: x.type\n    type: shoe_size\n    priority: 1\n    regex: 'x'\n",
			wantPattern: "x.type",
			wantMsg:     "unknown PII type",
		},
		{
			name:        "unknown kind",
			data:        "pack: core\npatterns:\n  - id: x.kind\n    type: ssn\n    kind: fuzzy\n    priority: 1\n    regex: 'x'\n",
			wantPattern: "x.kind",
			wantMsg:     "unknown kind",
		},
		{
			name:        "unknown validator",
			data:        "pack: core\npatterns:\n  - id: x.val\n    type: ssn\n    kind: checksum\n    validator: crc32\n    priority: 1\n    regex: 'x'\n",
			wantPattern: "x.val",
			wantMsg:     "unknown validator",
		},
		{
			name:        "context without keywords",
			data:        "pack: core\npatterns:\n  - id: x.ctx\n    type: ssn\n    kind: context\n    priority: 1\n    regex: 'x'\n",
			wantPattern: "x.ctx",
			wantMsg:     "context keywords",
		},
		{
			name:        "regex kind with validator",
			data:        "pack: core\npatterns:\n  - id: x.rv\n    type: ssn\n    validator: luhn\n    priority: 1\n    regex: 'x'\n",
			wantPattern: "x.rv",
			wantMsg:     "no validator",
		},
		{
			name:        "priority out of range",
			data:        "pack: core\npatterns:\n  - id: x.prio\n    type: ssn\n    priority: 1000\n    regex: 'x'\n",
			wantPattern: "x.prio",
			wantMsg:     "out of range",
		},
		{
			name:        "duplicate id",
			data:        "pack: core\npatterns:\n  - id: core.ssn\n    type: ssn\n    priority: 1\n    regex: 'x'\n",
			wantPattern: "core.ssn",
			wantMsg:     "duplicate pattern id",
		},
		{
			name:    "missing id",
			data:    "pack: core\npatterns:\n  - type: ssn\n    priority: 1\n    regex: 'x'\n",
			wantMsg: "pattern id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(WithPackData("extra", []byte(tt.data)))
			if err == nil {
				t.Fatal("NewRegistry() expected error")
			}
			if r != nil {
				t.Error("NewRegistry() must not return a partial registry")
			}
			if !errors.Is(err, pii.ErrConfiguration) {
				t.Errorf("errors.Is(err, ErrConfiguration) = false for %v", err)
			}
			var cfgErr *pii.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error is not a *ConfigurationError: %T", err)
			}
			if cfgErr.PatternID != tt.wantPattern {
				t.Errorf("PatternID = %q, want %q", cfgErr.PatternID, tt.wantPattern)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestNewRegistry_MissingPackFile(t *testing.T) {
	_, err := NewRegistry(WithPackFile(filepath.Join(t.TempDir(), "missing.yaml")))
	if !errors.Is(err, pii.ErrConfiguration) {
		t.Errorf("NewRegistry() error = %v, want configuration error", err)
	}
}

func TestNewRegistry_DisabledPattern(t *testing.T) {
	data := []byte("pack: core\npatterns:\n  - id: x.off\n    type: ssn\n    priority: 1\n    enabled: false\n    regex: '[broken'\n")
	r, err := NewRegistry(WithPackData("extra", data))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if r.Len() != MustNewRegistry().Len() {
		t.Error("disabled pattern must not be registered")
	}
}
