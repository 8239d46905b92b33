package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestBar(t *testing.T) {
	tests := []struct {
		name    string
		unit    string
		run     func(p ProgressReporter)
		want    []string
		notWant []string
	}{
		{
			name: "known total finishes at 100%",
			unit: "receipts",
			run: func(p ProgressReporter) {
				p.Start(4)
				p.Update(2)
				p.Finish()
			},
			want: []string{"Progress:", "100.0%", "(4/4)", "receipts/s"},
		},
		{
			name: "overshoot is clamped",
			unit: "receipts",
			run: func(p ProgressReporter) {
				p.Start(4)
				p.Update(9)
				p.Finish()
			},
			want:    []string{"(4/4)"},
			notWant: []string{"225.0%"},
		},
		{
			name: "unknown total shows a count",
			unit: "items",
			run: func(p ProgressReporter) {
				p.Start(0)
				p.Update(7)
				p.Finish()
			},
			want:    []string{"0 items", "items/s"},
			notWant: []string{"Progress:"},
		},
		{
			name: "error ends the bar",
			unit: "items",
			run: func(p ProgressReporter) {
				p.Start(10)
				p.Error(errors.New("disk full"))
				p.Finish()
			},
			want:    []string{"✗ Error: disk full"},
			notWant: []string{"100.0%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.run(NewProgressReporterWithUnit(&buf, tt.unit))
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output %q contains %q", out, w)
				}
			}
		})
	}
}

func TestBar_UpdateIsMonotonic(t *testing.T) {
	var buf bytes.Buffer
	b := NewProgressReporter(&buf).(*Bar)
	b.Start(100)
	b.Update(50)
	b.Update(20)
	if b.current != 50 {
		t.Errorf("current = %d after a stale update, want 50", b.current)
	}
}

func TestBar_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)
	p.Start(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Update(int64(start*100 + j))
			}
		}(i)
	}
	wg.Wait()
	p.Finish()

	if !strings.Contains(buf.String(), "(1000/1000)") {
		t.Errorf("final output %q", buf.String())
	}
}

func TestNewProgressReporter_NilWriter(t *testing.T) {
	b, ok := NewProgressReporter(nil).(*Bar)
	if !ok || b.w == nil {
		t.Fatal("NewProgressReporter(nil) did not default the writer")
	}
}
