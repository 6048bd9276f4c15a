package caserules

import (
	"context"
	"fmt"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// ComputedDeadline is one date produced by a rule script.
type ComputedDeadline struct {
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

// Engine evaluates deadline rule scripts. A script receives the trigger date
// and caller parameters and must assign `deadlines`: an array of maps with
// `title` (string) and `days` (int offset from the trigger date).
//
//	deadlines := [
//	  {title: "File defence", days: 28},
//	  {title: "Reply to defence", days: 42}
//	]
type Engine struct {
	timeout time.Duration
}

func NewEngine() *Engine {
	return &Engine{timeout: 2 * time.Second}
}

func (e *Engine) Calculate(ctx context.Context, scriptSource string, trigger time.Time, params map[string]interface{}) ([]ComputedDeadline, error) {
	if scriptSource == "" {
		return nil, fmt.Errorf("rule script is empty")
	}

	script := tengo.NewScript([]byte(scriptSource))
	script.SetImports(stdlib.GetModuleMap("math", "text", "times"))

	if err := script.Add("trigger_date", trigger.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	if err := script.Add("params", params); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	compiled, err := script.RunContext(runCtx)
	if err != nil {
		return nil, fmt.Errorf("rule script failed: %w", err)
	}

	raw := compiled.Get("deadlines")
	entries, ok := raw.Value().([]interface{})
	if !ok {
		return nil, fmt.Errorf("rule script must assign a deadlines array")
	}

	results := make([]ComputedDeadline, 0, len(entries))
	for i, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("deadlines[%d] is not a map", i)
		}
		title, _ := m["title"].(string)
		if title == "" {
			return nil, fmt.Errorf("deadlines[%d] is missing a title", i)
		}
		days, ok := toInt(m["days"])
		if !ok {
			return nil, fmt.Errorf("deadlines[%d] is missing a days offset", i)
		}
		results = append(results, ComputedDeadline{
			Title:   title,
			DueDate: trigger.AddDate(0, 0, days),
		})
	}
	return results, nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
