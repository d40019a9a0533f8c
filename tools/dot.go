/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"gopkg.in/yaml.v2"
)

// Dot makes a Graphviz dot file for the dependency graph.
//
// Each binding context points at its dependency paths, and each path
// points at its subscribers.  If highlight is not empty, paths with
// that text are red.
func Dot(g *Graph, w io.WriteCloser, highlight string) error {

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=LR,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	elements := make(map[string]string)
	element := func(gs *GraphSubscriber) string {
		if nid, have := elements[gs.Label]; have {
			return nid
		}
		nid := fmt.Sprintf("e%d", len(elements)+1)
		elements[gs.Label] = nid

		fillcolor := "#99ddc8"
		shape := "box"
		label := escape(gs.Label)
		if gs.Callback {
			fillcolor = "#dddddd"
			shape = "ellipse"
		} else if 0 < len(gs.Providers) {
			label += `<BR/><FONT POINT-SIZE="8">` + escape(strings.Join(gs.Providers, ", ")) + `</FONT>`
		}
		fmt.Fprintf(w, "  %s [shape=\"%s\", style=\"filled\", fillcolor=\"%s\", label=<%s> ]\n",
			nid, shape, fillcolor, label)
		return nid
	}

	for _, gc := range g.Contexts {
		cid := fmt.Sprintf("c%d", gc.ID)

		label := fmt.Sprintf("%s (%d)", escape(gc.Name), gc.ID)
		if 0 < len(gc.Data) {
			var src string
			bs, err := yaml.Marshal(gc.Data)
			if err != nil {
				src = err.Error()
			} else {
				src = string(bs)
			}
			label += `<FONT POINT-SIZE="8">` +
				`<BR/>` + strings.Replace(escape(src), "\n", `<BR ALIGN="LEFT"/>`, -1) +
				`</FONT>`
		}
		fmt.Fprintf(w, "  %s [shape=\"note\", style=\"filled,bold\", fillcolor=\"#2d93ad\", label=<%s> ]\n",
			cid, label)

		for i, gp := range gc.Paths {
			pid := fmt.Sprintf("%sp%d", cid, i)
			color := "black"
			fillcolor := "#52aa5e"
			if highlight != "" && gp.Path == highlight {
				color = "red"
				fillcolor = "#f98b8b"
			}
			fmt.Fprintf(w, "  %s [shape=\"record\", style=\"rounded,filled\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
				pid, color, fillcolor, escape(gp.Path))
			fmt.Fprintf(w, "  %s -> %s [ color=\"%s\" ]\n", cid, pid, color)

			for _, gs := range gp.Subscribers {
				fmt.Fprintf(w, "  %s -> %s [ color=\"%s\" ]\n", pid, element(gs), color)
			}
		}
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(g *Graph, basename string, highlight string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(g, dotfile, highlight); err != nil {
		return pngname, err
	}
	cmd := "dot -Tpng -Gstart=1 " + dotname + " > " + pngname
	if err := exec.Command("bash", "-c", cmd).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

// escape makes text safe for a Graphviz HTML label.
func escape(s string) string {
	s = strings.Replace(s, "&", `&amp;`, -1)
	s = strings.Replace(s, "<", `&lt;`, -1)
	s = strings.Replace(s, ">", `&gt;`, -1)
	return s
}
