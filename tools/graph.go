// Package tools renders and analyzes binding state: dependency graphs
// (Graphviz dot and Mermaid), sheet analysis and HTML reports.
package tools

import (
	"sort"

	"github.com/Comcast/binder/core"
)

// Graph is a snapshot of the Store's dependency registrations.
type Graph struct {
	Contexts []*GraphContext `json:"contexts"`
}

// GraphContext is one binding context in a Graph.
type GraphContext struct {
	ID    int                    `json:"id"`
	Name  string                 `json:"name"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Paths []*GraphPath           `json:"paths,omitempty"`
}

// GraphPath is one dependency path and its subscribers.
type GraphPath struct {
	Path        string             `json:"path"`
	Subscribers []*GraphSubscriber `json:"subscribers"`
}

// GraphSubscriber is an element (with the keys of the providers that
// bound it) or a callback.
type GraphSubscriber struct {
	Label     string   `json:"label"`
	Callback  bool     `json:"callback,omitempty"`
	Providers []string `json:"providers,omitempty"`
}

// BuildGraph takes a snapshot of the Store.  Labels maps handles to
// element names; a handle without a label is shown as is.
//
// Contexts without paths are included only if they have data.
func BuildGraph(s *core.Store, labels map[string]string) (*Graph, error) {
	g := &Graph{}
	for _, id := range s.IDs() {
		data, err := s.Snapshot(id)
		if err != nil {
			return nil, err
		}
		gc := &GraphContext{
			ID:   id,
			Name: s.Name(id),
			Data: data,
		}
		for _, p := range s.Paths(id) {
			gp := &GraphPath{
				Path: p,
			}
			for _, sub := range s.Subscribers(id, p) {
				gs := &GraphSubscriber{}
				if sub.IsHandle() {
					gs.Label = sub.Handle
					if label, have := labels[sub.Handle]; have {
						gs.Label = label
					}
					gs.Providers = s.Providers(sub.Handle)
				} else {
					gs.Label = "callback"
					gs.Callback = true
				}
				gp.Subscribers = append(gp.Subscribers, gs)
			}
			gc.Paths = append(gc.Paths, gp)
		}
		if len(gc.Paths) == 0 && len(gc.Data) == 0 {
			continue
		}
		g.Contexts = append(g.Contexts, gc)
	}
	return g, nil
}

// Elements returns the distinct subscriber labels in order.
func (g *Graph) Elements() []string {
	seen := make(map[string]bool)
	for _, gc := range g.Contexts {
		for _, gp := range gc.Paths {
			for _, gs := range gp.Subscribers {
				if !gs.Callback {
					seen[gs.Label] = true
				}
			}
		}
	}
	return keysToStringSlice(seen)
}

// keysToStringSlice returns the sorted keys of the map or, if the map
// is empty, the default value (if given).
func keysToStringSlice(m map[string]bool, defaultValue ...string) []string {
	var list []string
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)

	if len(list) == 0 && len(defaultValue) > 0 {
		return []string{defaultValue[0]}
	}

	return list
}
