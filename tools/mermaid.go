/* Copyright 2018 Comcast Cable Communications Management, LLC
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

import (
	"fmt"
	"io"
	"strings"
)

type MermaidOpts struct {
	// ShowProviders adds the provider keys to element labels.
	ShowProviders bool `json:"showProviders"`

	// ContextFill is the fill color of binding context nodes.
	ContextFill string `json:"contextFill,omitempty"`

	// HighlightFill is the fill color of the highlighted path.
	HighlightFill string `json:"highlightFill,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the dependency graph.
func Mermaid(g *Graph, w io.WriteCloser, opts *MermaidOpts, highlight string) error {

	if opts == nil {
		opts = &MermaidOpts{
			ShowProviders: true,
			ContextFill:   "#bcf2db",
			HighlightFill: "#f98b8b",
		}
	}

	fmt.Fprintf(w, "graph LR\n")

	nids := make(map[string]string)
	num := 0
	node := func(key string) (string, bool) {
		if nid, already := nids[key]; already {
			return nid, false
		}
		num++
		nid := fmt.Sprintf("n%d", num)
		nids[key] = nid
		return nid, true
	}

	for _, gc := range g.Contexts {
		cid, _ := node(fmt.Sprintf("context %d", gc.ID))
		fmt.Fprintf(w, "  %s[\"%s (%d)\"]\n", cid, quote(gc.Name), gc.ID)
		if opts.ContextFill != "" {
			fmt.Fprintf(w, "  style %s fill:%s\n", cid, opts.ContextFill)
		}

		for _, gp := range gc.Paths {
			pid, _ := node(fmt.Sprintf("path %d %s", gc.ID, gp.Path))
			fmt.Fprintf(w, "  %s(\"%s\")\n", pid, quote(gp.Path))
			if highlight != "" && gp.Path == highlight && opts.HighlightFill != "" {
				fmt.Fprintf(w, "  style %s fill:%s\n", pid, opts.HighlightFill)
			}
			fmt.Fprintf(w, "  %s --> %s\n", cid, pid)

			for _, gs := range gp.Subscribers {
				eid, fresh := node("element " + gs.Label)
				if fresh {
					label := quote(gs.Label)
					if opts.ShowProviders && 0 < len(gs.Providers) {
						label += "<br/><small>" + quote(strings.Join(gs.Providers, ", ")) + "</small>"
					}
					if gs.Callback {
						fmt.Fprintf(w, "  %s((\"%s\"))\n", eid, label)
					} else {
						fmt.Fprintf(w, "  %s[/\"%s\"/]\n", eid, label)
					}
				}
				fmt.Fprintf(w, "  %s --> %s\n", pid, eid)
			}
		}
	}

	fmt.Fprintf(w, "\n")

	return w.Close()
}

func quote(s string) string {
	return strings.Replace(s, `"`, `'`, -1)
}
