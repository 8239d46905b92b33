package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPatternsCommand_PriorityOrder(t *testing.T) {
	out, _, err := execute(t, "", "patterns", "--region", "ae", "--industry", "finance", "--output", "json")
	if err != nil {
		t.Fatalf("patterns error = %v", err)
	}

	var rows []patternRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("output is not a pattern list: %v\n%s", err, out)
	}
	if len(rows) == 0 {
		t.Fatal("no patterns listed")
	}

	packs := map[string]bool{}
	for i, r := range rows {
		packs[r.Pack] = true
		if i > 0 && r.Priority > rows[i-1].Priority {
			t.Errorf("row %d (%s, %d) outranks row %d (%s, %d)", i, r.ID, r.Priority, i-1, rows[i-1].ID, rows[i-1].Priority)
		}
	}
	for _, want := range []string{"core", "ae", "finance"} {
		if !packs[want] {
			t.Errorf("pack %q missing from listing", want)
		}
	}
	if rows[0].Pack != "finance" {
		t.Errorf("first pattern pack = %q, want finance", rows[0].Pack)
	}
	if rows[len(rows)-1].Pack != "core" {
		t.Errorf("last pattern pack = %q, want core", rows[len(rows)-1].Pack)
	}
}

func TestPatternsCommand_CoreOnly(t *testing.T) {
	out, _, err := execute(t, "", "patterns", "--output", "csv")
	if err != nil {
		t.Fatalf("patterns error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "ID,TYPE,PACK,KIND,PRIORITY" {
		t.Errorf("header = %q", lines[0])
	}
	for _, line := range lines[1:] {
		if fields := strings.Split(line, ","); fields[2] != "core" {
			t.Errorf("non-core pattern without pack flags: %q", line)
		}
	}
}

func TestPatternsCommand_BadFormat(t *testing.T) {
	if _, _, err := execute(t, "", "patterns", "--output", "yaml"); err == nil {
		t.Error("unknown output format should fail")
	}
}
