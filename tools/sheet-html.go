package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"

	"github.com/Comcast/binder/compiler"
	"github.com/Comcast/binder/core"
	"github.com/Comcast/binder/providers"
	"github.com/Comcast/binder/sheet"
	. "github.com/Comcast/binder/util/testutil"

	md "github.com/russross/blackfriday/v2"
)

// RenderSheetHTML writes an HTML fragment describing the sheet: its
// docs (Markdown), each context's data and bindings, and the
// analysis.
func RenderSheetHTML(s *sheet.Sheet, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	a, err := Analyze(s)
	if err != nil {
		return err
	}

	f(`<div class="sheetDoc doc">%s</div>`, md.Run([]byte(s.Doc)))

	if 0 < len(s.Globals) {
		f(`<div class="globals"><span class="contextName">globals</span>`)
		f(`<div class="data"><code>%s</code></div>`, html.EscapeString(JS(s.Globals)))
		f(`</div>`)
	}

	f(`<div class="contexts"><table>`)
	for _, c := range s.Contexts {
		f(`<tr class="context"><td><span id="%s" class="contextName">%s</span></td><td>`, c.Name, c.Name)
		if c.Doc != "" {
			f(`<div class="contextDoc doc">%s</div>`, md.Run([]byte(c.Doc)))
		}
		if 0 < len(c.Data) {
			f(`<div class="data"><code>%s</code></div>`, html.EscapeString(JS(c.Data)))
		}
		if 0 < len(c.Bindings) {
			f(`<div class="bindings">`)
			f(`<table>`)
			for _, b := range c.Bindings {
				f(`<tr><td><span class="element">%s</span></td>`, html.EscapeString(b.Element))
				f(`<td><span class="provider">%s</span></td>`, b.ProviderKey())
				f(`<td><div class="code"><pre>%s</pre></div></td></tr>`, html.EscapeString(b.Expression))
			}
			f(`</table>`)
			f(`</div>`)
		}
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	f(`<div class="analysis">`)
	f(`<div>%d contexts, %d bindings (%d literal, %d HTML)</div>`, a.Contexts, a.Bindings, a.Literals, a.HTML)
	list := func(title string, xs []string) {
		if len(xs) == 0 {
			return
		}
		f(`<div class="%s">%s<ul>`, title, title)
		for _, x := range xs {
			f(`<li><code>%s</code></li>`, html.EscapeString(x))
		}
		f(`</ul></div>`)
	}
	list("errors", a.Errors)
	list("unknownPaths", a.UnknownPaths)
	list("unused", a.Unused)
	list("duplicateElements", a.DuplicateElements)
	f(`</div>`)

	return nil
}

// RenderSheetPage writes a complete HTML page for the sheet.
//
// With includeGraph, the page also shows the dependency graph (via
// Mermaid) of the sheet loaded into a fresh Store.
func RenderSheetPage(ctx context.Context, s *sheet.Sheet, out io.Writer, cssFiles []string, includeGraph bool) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/sheet-html.css"}
	}

	js, err := json.Marshal(s)
	if err != nil {
		return err
	}

	var graph string
	if includeGraph {
		if graph, err = SheetMermaid(ctx, s); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, html.EscapeString(s.Name))

	if includeGraph {
		fmt.Fprintf(out, `
  <script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script>
  <script>
  var thisSheet = %s;
  mermaid.initialize({startOnLoad:true});
  </script>
`, js)
	}

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(s.Name))

	if includeGraph {
		fmt.Fprintf(out, "<div id=\"graph\" class=\"mermaid\">\n%s</div>\n", html.EscapeString(graph))
	}

	if err = RenderSheetHTML(s, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderSheetPage reads a sheet file and renders its page.
func ReadAndRenderSheetPage(ctx context.Context, filename string, cssFiles []string, out io.Writer, includeGraph bool) error {
	s, err := sheet.Read(filename)
	if err != nil {
		return err
	}
	return RenderSheetPage(ctx, s, out, cssFiles, includeGraph)
}

// LoadGraph loads the sheet into a fresh Store and returns the
// dependency graph with elements labeled by name.
func LoadGraph(ctx context.Context, s *sheet.Sheet) (*Graph, error) {
	m := providers.NewMap()
	st := core.NewStore(core.WithDispatcher(m))
	c := compiler.New(compiler.WithData(st))
	m.Loader = providers.Standard(st, c, nil, nil)

	l, err := s.Load(ctx, st, m)
	if err != nil {
		return nil, err
	}
	return BuildGraph(st, l.Elements)
}

// SheetMermaid returns the Mermaid source for the sheet's dependency
// graph.
func SheetMermaid(ctx context.Context, s *sheet.Sheet) (string, error) {
	g, err := LoadGraph(ctx, s)
	if err != nil {
		return "", err
	}
	var buf closingBuffer
	if err = Mermaid(g, &buf, nil, ""); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type closingBuffer struct {
	bytes.Buffer
}

func (b *closingBuffer) Close() error {
	return nil
}
