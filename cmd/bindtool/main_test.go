package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("%v: %s", args, err)
	}
	return out.String()
}

func TestSanitizeCmd(t *testing.T) {
	out := run(t, "sanitize", "a + b.c")
	var r struct {
		Properties []string `json:"properties"`
	}
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b.c"}, r.Properties); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTokensCmd(t *testing.T) {
	out := run(t, "tokens", "a + 1")
	if !strings.Contains(out, `"a"`) || !strings.Contains(out, `"1"`) {
		t.Fatal(out)
	}
}

func TestEvalCmd(t *testing.T) {
	out := run(t, "eval", "a + 1", "--data", `{"a":2}`)
	if strings.TrimSpace(out) != "3" {
		t.Fatal(out)
	}
}

func TestEvalGlobals(t *testing.T) {
	out := run(t, "eval", "$globals.theme", "--globals", `{"theme":"dark"}`)
	if strings.TrimSpace(out) != `"dark"` {
		t.Fatal(out)
	}
}

func TestGraphCmd(t *testing.T) {
	out := run(t, "graph", "--format", "mermaid", "../../sheet/testdata/person.yaml")
	if !strings.HasPrefix(out, "graph LR") {
		t.Fatal(out)
	}
	if !strings.Contains(out, "firstName") {
		t.Fatal(out)
	}
}

func TestAnalyzeCmd(t *testing.T) {
	out := run(t, "analyze", "../../sheet/testdata/person.yaml")
	if !strings.Contains(out, "tags") {
		t.Fatal(out)
	}
}

func TestConfig(t *testing.T) {
	cfg, err := ReadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Language != "en" {
		t.Fatal(cfg.Language)
	}
	if _, closer, err := cfg.Translator(context.Background(), nil); err != nil {
		t.Fatal(err)
	} else if err = closer(); err != nil {
		t.Fatal(err)
	}
}
