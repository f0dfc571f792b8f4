// Package eval replays scenario fixtures against a dispatcher and scores the outcomes.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/wilhg/toolsrv/pkg/tool"
)

// Fixture is one scenario: an ordered list of calls against a fresh dispatcher.
type Fixture struct {
	Name  string         `json:"name"`
	Vars  map[string]any `json:"vars,omitempty"`
	Steps []Step         `json:"steps"`
}

// Step is one call and what its envelope must look like.
type Step struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
	Expect Expectation    `json:"expect"`
}

type Expectation struct {
	IsError     *bool    `json:"isError,omitempty"`
	Contains    []string `json:"contains,omitempty"`
	NotContains []string `json:"not_contains,omitempty"`
}

// Report summarizes a fixture run. Score is passed/total in [0,1].
type Report struct {
	Score   float64  `json:"score"`
	Total   int      `json:"total"`
	Passed  int      `json:"passed"`
	Details []string `json:"details,omitempty"`
}

// DispatcherFactory builds an isolated dispatcher (fresh task store, own workspace).
type DispatcherFactory func() (*tool.Dispatcher, error)

// EvaluateScenarios loads fixtures from an fs.FS directory (json files), replays each
// against a fresh dispatcher and checks every step's expectations.
func EvaluateScenarios(ctx context.Context, fsys fs.FS, dir string, newDispatcher DispatcherFactory) (Report, error) {
	fixtures, err := loadFixtures(fsys, dir)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Total: len(fixtures)}
	if rep.Total == 0 {
		rep.Score = 1
		return rep, nil
	}
	for _, fx := range fixtures {
		d, err := newDispatcher()
		if err != nil {
			return Report{}, err
		}
		failures := evaluateFixture(ctx, d, fx)
		if len(failures) == 0 {
			rep.Passed++
			continue
		}
		for _, f := range failures {
			rep.Details = append(rep.Details, fx.Name+": "+f)
		}
	}
	rep.Score = float64(rep.Passed) / float64(rep.Total)
	return rep, nil
}

func evaluateFixture(ctx context.Context, d *tool.Dispatcher, fx Fixture) []string {
	results, err := Replay(ctx, d, fx.Steps, fx.Vars)
	if err != nil {
		return []string{err.Error()}
	}
	var failures []string
	for i, res := range results {
		exp := fx.Steps[i].Expect
		prefix := fmt.Sprintf("step %d (%s)", i+1, fx.Steps[i].Tool)
		text := allText(res)
		if exp.IsError != nil && res.IsError != *exp.IsError {
			failures = append(failures, fmt.Sprintf("%s: isError=%v want %v: %s", prefix, res.IsError, *exp.IsError, text))
		}
		for _, s := range exp.Contains {
			if !strings.Contains(text, s) {
				failures = append(failures, prefix+": missing contains: "+s)
			}
		}
		for _, s := range exp.NotContains {
			if strings.Contains(text, s) {
				failures = append(failures, prefix+": unexpected contains: "+s)
			}
		}
	}
	return failures
}

func allText(res tool.Result) string {
	var b strings.Builder
	for _, c := range res.Content {
		if t, ok := c.(tool.TextContent); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

func loadFixtures(fsys fs.FS, dir string) ([]Fixture, error) {
	var out []Fixture
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var fx Fixture
		if err := json.Unmarshal(b, &fx); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if fx.Name == "" {
			fx.Name = strings.TrimSuffix(e.Name(), ".json")
		}
		out = append(out, fx)
	}
	return out, nil
}
