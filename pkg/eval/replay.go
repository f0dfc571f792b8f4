package eval

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/wilhg/toolsrv/pkg/tool"
)

// Replay dispatches steps in order and returns one envelope per step. String
// arguments are rendered as text/template with vars; a render error aborts the replay.
func Replay(ctx context.Context, d *tool.Dispatcher, steps []Step, vars map[string]any) ([]tool.Result, error) {
	out := make([]tool.Result, 0, len(steps))
	for i, st := range steps {
		args, err := renderArgs(st.Args, vars)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): render error: %w", i+1, st.Tool, err)
		}
		m, _ := args.(map[string]any)
		out = append(out, d.Call(ctx, st.Tool, m))
	}
	return out, nil
}

func renderArgs(v any, vars map[string]any) (any, error) {
	switch t := v.(type) {
	case string:
		if !strings.Contains(t, "{{") {
			return t, nil
		}
		return renderTemplate(t, vars)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			r, err := renderArgs(x, vars)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			r, err := renderArgs(x, vars)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

func renderTemplate(tpl string, vars map[string]any) (string, error) {
	t, err := template.New("arg").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, vars); err != nil {
		return "", err
	}
	return b.String(), nil
}
