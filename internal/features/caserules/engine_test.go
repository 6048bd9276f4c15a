package caserules

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestCalculateOffsetsFromTrigger(t *testing.T) {
	e := NewEngine()
	trigger := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	script := `
deadlines := [
  {title: "File statement of defence", days: 20},
  {title: "Reply to defence", days: 30}
]
`
	got, err := e.Calculate(context.Background(), script, trigger, nil)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d deadlines, want 2", len(got))
	}
	if got[0].Title != "File statement of defence" {
		t.Errorf("title = %q", got[0].Title)
	}
	if want := trigger.AddDate(0, 0, 20); !got[0].DueDate.Equal(want) {
		t.Errorf("due date = %v, want %v", got[0].DueDate, want)
	}
	if want := trigger.AddDate(0, 0, 30); !got[1].DueDate.Equal(want) {
		t.Errorf("due date = %v, want %v", got[1].DueDate, want)
	}
}

func TestCalculateReadsParams(t *testing.T) {
	e := NewEngine()
	trigger := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	script := `
offset := 10
if params.expedited {
  offset = 5
}
deadlines := [{title: "Serve notice", days: offset}]
`
	got, err := e.Calculate(context.Background(), script, trigger, map[string]interface{}{"expedited": true})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if want := trigger.AddDate(0, 0, 5); !got[0].DueDate.Equal(want) {
		t.Errorf("due date = %v, want %v", got[0].DueDate, want)
	}
}

func TestCalculateRejectsBadScripts(t *testing.T) {
	e := NewEngine()
	trigger := time.Now()

	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{"empty script", "", "empty"},
		{"syntax error", `deadlines := [`, "failed"},
		{"no deadlines assigned", `x := 1`, "must assign"},
		{"deadline missing title", `deadlines := [{days: 5}]`, "missing a title"},
		{"deadline missing days", `deadlines := [{title: "x"}]`, "missing a days offset"},
		{"entry not a map", `deadlines := [42]`, "not a map"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Calculate(context.Background(), tt.script, trigger, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestCalculateTimesOutRunawayScripts(t *testing.T) {
	e := &Engine{timeout: 50 * time.Millisecond}
	script := `
i := 0
for {
  i += 1
}
deadlines := []
`
	start := time.Now()
	_, err := e.Calculate(context.Background(), script, time.Now(), nil)
	if err == nil {
		t.Fatal("expected a runaway script to fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %v, want well under the request deadline", elapsed)
	}
}
