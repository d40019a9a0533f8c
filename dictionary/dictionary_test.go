package dictionary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Comcast/binder/compiler"
	"github.com/google/go-cmp/cmp"
)

var sample = []byte(`
en:
  greeting: Hello
  bye: Goodbye
fr:
  greeting: Bonjour
`)

func TestParseYAML(t *testing.T) {
	ls, err := ParseYAML(sample)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"en", "fr"}, ls.Names()); diff != "" {
		t.Fatal(diff)
	}
	want := Map{"greeting": "Bonjour"}
	if diff := cmp.Diff(want, ls["fr"]); diff != "" {
		t.Fatal(diff)
	}

	if _, err = ParseYAML([]byte("en: [")); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestReadYAML(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "translations.yaml")
	if err := os.WriteFile(filename, sample, 0644); err != nil {
		t.Fatal(err)
	}
	ls, err := ReadYAML(filename)
	if err != nil {
		t.Fatal(err)
	}
	if ls["en"]["bye"] != "Goodbye" {
		t.Fatalf("got %#v", ls)
	}
}

func TestTranslator(t *testing.T) {
	ctx := context.Background()
	ls, err := ParseYAML(sample)
	if err != nil {
		t.Fatal(err)
	}

	// French first, then English.
	tr := NewTranslator(nil, ls["fr"], ls["en"])

	tests := []struct {
		key  string
		want string
	}{
		{"greeting", "Bonjour"},
		{"bye", "Goodbye"},
		{"missing", "missing"},
	}
	for _, tt := range tests {
		got, err := tr.Translate(ctx, tt.key)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %q, wanted %q", tt.key, got, tt.want)
		}
	}

	tr.Strict = true
	_, err = tr.Translate(ctx, "missing")
	var mt *MissingTranslation
	if !errors.As(err, &mt) || mt.Key != "missing" {
		t.Fatalf("surprised by %v", err)
	}
}

func TestTranslatorCompiled(t *testing.T) {
	ctx := context.Background()
	c := compiler.New(compiler.WithTranslator(NewTranslator(nil, Map{"greeting": "Hi"})))

	e, err := c.Compile(ctx, "&{greeting}, ${name}!", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	x, err := e.Call(ctx, map[string]interface{}{"name": "Ann"})
	if err != nil {
		t.Fatal(err)
	}
	if x != "Hi, Ann!" {
		t.Fatalf("got %#v", x)
	}
}
