package eval

import (
	"context"
	"strings"
	"testing"
)

func TestReplayRendersArguments(t *testing.T) {
	d, err := newFactory(t)()
	if err != nil {
		t.Fatal(err)
	}
	steps := []Step{
		{Tool: "create-task", Args: map[string]any{"title": "Ship {{.version}}", "description": "release"}},
		{Tool: "generate-readme", Args: map[string]any{
			"projectName": "{{.name}}",
			"description": "plain",
			"features":    []any{"v{{.version}}", "stable"},
		}},
	}
	vars := map[string]any{"version": "1.2", "name": "widget"}
	results, err := Replay(context.Background(), d, steps, vars)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results=%d", len(results))
	}
	if !strings.Contains(results[0].FirstText(), `"title": "Ship 1.2"`) {
		t.Fatalf("task=%s", results[0].FirstText())
	}
	readme := results[1].FirstText()
	if !strings.HasPrefix(readme, "# widget\n") || !strings.Contains(readme, "- v1.2\n") {
		t.Fatalf("readme=%s", readme)
	}
}

func TestReplayStopsOnRenderError(t *testing.T) {
	d, err := newFactory(t)()
	if err != nil {
		t.Fatal(err)
	}
	_, err = Replay(context.Background(), d, []Step{
		{Tool: "list-tasks"},
		{Tool: "read-file", Args: map[string]any{"path": "{{.nope}}"}},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "step 2 (read-file)") {
		t.Fatalf("err=%v", err)
	}
}

func TestReplayKeepsFailedCalls(t *testing.T) {
	d, err := newFactory(t)()
	if err != nil {
		t.Fatal(err)
	}
	results, err := Replay(context.Background(), d, []Step{
		{Tool: "nope"},
		{Tool: "list-tasks"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].IsError || results[1].IsError {
		t.Fatalf("results=%+v", results)
	}
}
