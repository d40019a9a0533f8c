package sheet

import (
	"errors"
	"strings"
	"testing"
)

func TestInline(t *testing.T) {
	input := `
a: %inline("tacos")
b: %inline ("queso")
`
	want := `
a: "TACOS \"AL PASTOR\""
b: "QUESO"
`

	find := func(name string) ([]byte, error) {
		if name == "tacos" {
			return []byte("TACOS \"AL PASTOR\"\n"), nil
		}
		return []byte(strings.ToUpper(name)), nil
	}

	got, err := Inline([]byte(input), find)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Fatalf("got %s", got)
	}
}

func TestInlineError(t *testing.T) {
	broken := errors.New("broken")
	_, err := Inline([]byte(`x: %inline("y")`), func(string) ([]byte, error) {
		return nil, broken
	})
	if !errors.Is(err, broken) {
		t.Fatal(err)
	}
}

func TestReadInlined(t *testing.T) {
	s, err := Read("testdata/inlined.yaml")
	if err != nil {
		t.Fatal(err)
	}
	b := s.Contexts[0].Bindings[0]
	if b.Expression != "volume > 5 ? 'loud' : 'quiet'" {
		t.Fatalf("%q", b.Expression)
	}
}
