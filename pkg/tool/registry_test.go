package tool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func echoTool(name string) Tool {
	in := Object(Prop("msg", String("message to echo")))
	in.Required = []string{"msg"}
	return New(ToolDescriptor{Name: name, Description: "echoes a message", InputSchema: in},
		func(_ context.Context, args Arguments) ([]Content, error) {
			return []Content{TextContent{Text: args.String("msg")}}, nil
		})
}

func TestRegistryKeepsDeclarationOrder(t *testing.T) {
	r, err := NewRegistry(echoTool("b"), echoTool("a"), echoTool("c"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range r.List() {
		names = append(names, d.Name)
	}
	if strings.Join(names, ",") != "b,a,c" {
		t.Fatalf("order=%v", names)
	}
	var ranged []string
	r.Range(func(name string, _ Tool) { ranged = append(ranged, name) })
	if strings.Join(ranged, ",") != "b,a,c" || r.Len() != 3 {
		t.Fatalf("range=%v len=%d", ranged, r.Len())
	}
}

func TestRegistryFind(t *testing.T) {
	r, err := NewRegistry(echoTool("echo"))
	if err != nil {
		t.Fatal(err)
	}
	tl, ok := r.Find("echo")
	if !ok || DescribeTool(tl).Name != "echo" {
		t.Fatal("tool not resolved")
	}
	if _, ok := r.Find("Echo"); ok {
		t.Fatal("lookup must be exact")
	}
	var nilReg *Registry
	if _, ok := nilReg.Find("echo"); ok {
		t.Fatal("nil registry resolved a tool")
	}
}

func TestRegistryRejectsBadTools(t *testing.T) {
	cases := map[string][]Tool{
		"duplicate":  {echoTool("x"), echoTool("x")},
		"empty name": {echoTool("")},
		"nil tool":   {nil},
		"non-object": {New(ToolDescriptor{Name: "s", InputSchema: String("")}, nil)},
	}
	for name, tools := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewRegistry(tools...); err == nil {
				t.Fatal("expected registration error")
			}
		})
	}
}

func TestDescriptorSchemaRendersAsJSONSchema(t *testing.T) {
	d := DescribeTool(echoTool("echo"))
	b, err := json.Marshal(d.InputSchema)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["type"] != "object" {
		t.Fatalf("schema=%s", b)
	}
	props, _ := doc["properties"].(map[string]any)
	if _, ok := props["msg"]; !ok {
		t.Fatalf("schema=%s", b)
	}
	req, _ := doc["required"].([]any)
	if len(req) != 1 || req[0] != "msg" {
		t.Fatalf("schema=%s", b)
	}
}
