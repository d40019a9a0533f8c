package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/Comcast/binder/compiler"
	"github.com/Comcast/binder/core"
	"github.com/Comcast/binder/providers"
	"github.com/Comcast/binder/providers/text"
	"github.com/Comcast/binder/sheet"
	"github.com/Comcast/binder/tools"
	. "github.com/Comcast/binder/util/testutil"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newReplCmd() *cobra.Command {
	var echo bool
	cmd := &cobra.Command{
		Use:   "repl [sheet]",
		Short: "Interactive shell over a reactive store",
		Long: `Reads commands from stdin, one per line.  Type "help" for the
commands.  The optional sheet is loaded first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			tr, closer, err := cfg.Translator(ctx, logger)
			if err != nil {
				return err
			}
			defer closer()

			h := NewHost(cfg, logger, tr, cmd.OutOrStdout())
			if 0 < len(args) {
				if err = h.Load(ctx, args[0]); err != nil {
					return err
				}
			}
			return h.Run(ctx, cmd.InOrStdin(), echo)
		},
	}
	cmd.Flags().BoolVarP(&echo, "echo", "e", false, "echo input")
	return cmd
}

// Host is the state of a repl session.
type Host struct {
	store     *core.Store
	compiler  *compiler.Compiler
	providers *providers.Map
	text      *text.Provider
	logger    *zap.Logger

	// labels maps handles to element names, and handles maps
	// element names to handles.
	labels  map[string]string
	handles map[string]string

	watches map[string]*core.Callback

	opts *compiler.Options

	// pending labels a handle that Bind hasn't returned yet.
	pending string

	// quiet suppresses rendering output.
	quiet bool

	out          io.Writer
	outputPrefix string
}

// NewHost makes a Host with an empty Store.  The Translator can be
// nil.
func NewHost(cfg *Config, logger *zap.Logger, tr compiler.Translator, out io.Writer) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Host{
		providers:    providers.NewMap(providers.WithLogger(logger)),
		logger:       logger,
		labels:       make(map[string]string),
		handles:      make(map[string]string),
		watches:      make(map[string]*core.Callback),
		out:          out,
		opts:         &compiler.Options{ContextName: cfg.ContextName},
		outputPrefix: "# ",
	}
	h.store = core.NewStore(core.WithLogger(logger), core.WithDispatcher(h.providers))
	if 0 < cfg.MaxUpdateDepth {
		h.store.MaxUpdateDepth = cfg.MaxUpdateDepth
	}
	h.compiler = compiler.New(
		compiler.WithLogger(logger),
		compiler.WithData(h.store),
		compiler.WithTranslator(tr))
	h.text = text.New(h.store, h.compiler, h.render, text.WithLogger(logger))
	h.providers.Add(text.Key, h.text)
	h.providers.Loader = providers.Standard(h.store, h.compiler, h.render, logger)
	return h
}

func (h *Host) say(format string, args ...interface{}) {
	fmt.Fprintf(h.out, h.outputPrefix+format+"\n", args...)
}

func (h *Host) protest(format string, args ...interface{}) {
	h.say("error: "+format, args...)
}

// render is the text provider's sink.
func (h *Host) render(ctx context.Context, handle, s string) error {
	if h.quiet {
		return nil
	}
	h.say("%s = %q", h.label(handle), s)
	return nil
}

func (h *Host) label(handle string) string {
	if l, have := h.labels[handle]; have {
		return l
	}
	if h.pending != "" {
		return h.pending
	}
	return handle
}

// Load loads a sheet into the Store.
func (h *Host) Load(ctx context.Context, filename string) error {
	s, err := sheet.Read(filename)
	if err != nil {
		return err
	}
	h.quiet = true
	l, err := s.Load(ctx, h.store, h.providers)
	h.quiet = false
	if err != nil {
		return err
	}
	for handle, element := range l.Elements {
		h.labels[handle] = element
		h.handles[element] = handle
	}
	h.say("loaded %d contexts", len(l.IDs))
	return nil
}

// id finds a binding context by id or by name.
func (h *Host) id(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if h.store.Container(n) == nil {
			return 0, fmt.Errorf("no context %d", n)
		}
		return n, nil
	}
	for _, id := range h.store.IDs() {
		if h.store.Name(id) == s {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no context named '%s'", s)
}

func doc() string {
	return `Commands:

  add NAME [JSON]              add a binding context
  load FILENAME                load a sheet
  set CTX PATH JSON            set a property
  get CTX PATH                 get a property
  push CTX PATH JSON           push onto an array property
  bind CTX ELEMENT EXPRESSION  bind an element to an expression
  unbind ELEMENT               remove an element
  watch CTX PATH               report changes to a path
  unwatch CTX PATH             stop reporting
  update CTX [PATH]            replay updates without changing data
  remove CTX                   remove a binding context
  print [CTX]                  print data and dependencies
  graph [dot|mermaid]          print the dependency graph
  help                         this

CTX is a context id or name.  "globals" is context 0.`
}

var (
	addRx     = regexp.MustCompile(`^add +([-a-zA-Z0-9_]+)( +(.*))?$`)
	loadRx    = regexp.MustCompile(`^load +(.*)`)
	setRx     = regexp.MustCompile(`^set +([-a-zA-Z0-9_]+) +([^ ]+) +(.*)`)
	getRx     = regexp.MustCompile(`^get +([-a-zA-Z0-9_]+) +([^ ]+)$`)
	pushRx    = regexp.MustCompile(`^push +([-a-zA-Z0-9_]+) +([^ ]+) +(.*)`)
	bindRx    = regexp.MustCompile(`^bind +([-a-zA-Z0-9_]+) +([-a-zA-Z0-9_]+) +(.*)`)
	unbindRx  = regexp.MustCompile(`^unbind +([-a-zA-Z0-9_]+)$`)
	watchRx   = regexp.MustCompile(`^watch +([-a-zA-Z0-9_]+) +([^ ]+)$`)
	unwatchRx = regexp.MustCompile(`^unwatch +([-a-zA-Z0-9_]+) +([^ ]+)$`)
	updateRx  = regexp.MustCompile(`^update +([-a-zA-Z0-9_]+)( +([^ ]+))?$`)
	removeRx  = regexp.MustCompile(`^(rem|del|remove|delete) +([-a-zA-Z0-9_]+)$`)
	printRx   = regexp.MustCompile(`^print( +([-a-zA-Z0-9_]+))?$`)
	graphRx   = regexp.MustCompile(`^graph( +(dot|mermaid))?$`)
	helpRx    = regexp.MustCompile(`^(help|h|\?)$`)
)

// Run reads commands until EOF.
//
// Errors in commands are reported and the session continues.
func (h *Host) Run(ctx context.Context, in io.Reader, echo bool) error {
	r := bufio.NewReader(in)
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		done := err == io.EOF

		line = strings.TrimSpace(line)
		if echo && line != "" {
			fmt.Fprintln(h.out, line)
		}
		if line != "" && !strings.HasPrefix(line, "#") {
			if err := h.Do(ctx, line); err != nil {
				h.protest("%s", err)
			}
		}

		if done {
			return nil
		}
	}
}

// Do executes one command.
func (h *Host) Do(ctx context.Context, line string) error {
	var ss []string

	if ss = helpRx.FindStringSubmatch(line); 0 < len(ss) {
		for _, s := range strings.Split(doc(), "\n") {
			h.say("%s", s)
		}
		return nil
	}

	if ss = addRx.FindStringSubmatch(line); 0 < len(ss) {
		data := make(map[string]interface{})
		if ss[3] != "" {
			if err := json.Unmarshal([]byte(ss[3]), &data); err != nil {
				return fmt.Errorf("couldn't parse data %s: %w", ss[3], err)
			}
		}
		id := h.store.AddObject(ss[1], nil)
		for k, v := range data {
			if err := h.store.SetProperty(ctx, id, k, v); err != nil {
				return err
			}
		}
		h.say("added %s as %d", ss[1], id)
		return nil
	}

	if ss = loadRx.FindStringSubmatch(line); 0 < len(ss) {
		return h.Load(ctx, ss[1])
	}

	if ss = setRx.FindStringSubmatch(line); 0 < len(ss) {
		id, err := h.id(ss[1])
		if err != nil {
			return err
		}
		var x interface{}
		if err = json.Unmarshal([]byte(ss[3]), &x); err != nil {
			return fmt.Errorf("couldn't parse value %s: %w", ss[3], err)
		}
		return h.store.SetProperty(ctx, id, ss[2], x)
	}

	if ss = getRx.FindStringSubmatch(line); 0 < len(ss) {
		id, err := h.id(ss[1])
		if err != nil {
			return err
		}
		h.say("%s", JS(h.store.GetProperty(id, ss[2])))
		return nil
	}

	if ss = pushRx.FindStringSubmatch(line); 0 < len(ss) {
		id, err := h.id(ss[1])
		if err != nil {
			return err
		}
		a, is := h.store.GetProperty(id, ss[2]).(*core.Array)
		if !is {
			return fmt.Errorf("%s isn't an array", ss[2])
		}
		var x interface{}
		if err = json.Unmarshal([]byte(ss[3]), &x); err != nil {
			return fmt.Errorf("couldn't parse value %s: %w", ss[3], err)
		}
		n, err := a.Push(ctx, x)
		if err != nil {
			return err
		}
		h.say("%s has %d items", ss[2], n)
		return nil
	}

	if ss = bindRx.FindStringSubmatch(line); 0 < len(ss) {
		id, err := h.id(ss[1])
		if err != nil {
			return err
		}
		element := ss[2]
		if old, have := h.handles[element]; have {
			h.store.RemoveElement(old)
			delete(h.labels, old)
		}
		// The first render happens before Bind returns the handle.
		h.pending = element
		handle, err := h.text.Bind(ctx, id, ss[3], h.opts)
		h.pending = ""
		if err != nil {
			return err
		}
		h.labels[handle] = element
		h.handles[element] = handle
		h.say("bound %s", element)
		return nil
	}

	if ss = unbindRx.FindStringSubmatch(line); 0 < len(ss) {
		handle, have := h.handles[ss[1]]
		if !have {
			return fmt.Errorf("no element '%s'", ss[1])
		}
		h.store.RemoveElement(handle)
		delete(h.handles, ss[1])
		delete(h.labels, handle)
		return nil
	}

	if ss = watchRx.FindStringSubmatch(line); 0 < len(ss) {
		id, err := h.id(ss[1])
		if err != nil {
			return err
		}
		key := strconv.Itoa(id) + " " + ss[2]
		if _, have := h.watches[key]; have {
			return nil
		}
		cb := &core.Callback{
			Func: func(ctx context.Context, path string) error {
				h.say("watch %s: %s", key, JS(h.store.GetProperty(id, path)))
				return nil
			},
			Collection: func(ctx context.Context, path string, delta *core.Delta) error {
				h.say("watch %s: %s", key, JS(delta))
				return nil
			},
		}
		h.watches[key] = cb
		h.store.AddCallback(id, ss[2], cb)
		return nil
	}

	if ss = unwatchRx.FindStringSubmatch(line); 0 < len(ss) {
		id, err := h.id(ss[1])
		if err != nil {
			return err
		}
		key := strconv.Itoa(id) + " " + ss[2]
		if cb, have := h.watches[key]; have {
			h.store.RemoveCallback(id, ss[2], cb)
			delete(h.watches, key)
		}
		return nil
	}

	if ss = updateRx.FindStringSubmatch(line); 0 < len(ss) {
		id, err := h.id(ss[1])
		if err != nil {
			return err
		}
		if ss[3] == "" {
			return h.store.UpdateContext(ctx, id)
		}
		return h.store.UpdateUI(ctx, id, ss[3])
	}

	if ss = removeRx.FindStringSubmatch(line); 0 < len(ss) {
		id, err := h.id(ss[2])
		if err != nil {
			return err
		}
		if id == core.GlobalsID {
			return fmt.Errorf("can't remove globals")
		}
		if err = h.store.Remove(ctx, id); err != nil {
			return err
		}
		h.say("removed %d", id)
		return nil
	}

	if ss = printRx.FindStringSubmatch(line); 0 < len(ss) {
		ids := h.store.IDs()
		if ss[2] != "" {
			id, err := h.id(ss[2])
			if err != nil {
				return err
			}
			ids = []int{id}
		}
		for _, id := range ids {
			if err := h.print(id); err != nil {
				return err
			}
		}
		return nil
	}

	if ss = graphRx.FindStringSubmatch(line); 0 < len(ss) {
		g, err := tools.BuildGraph(h.store, h.labels)
		if err != nil {
			return err
		}
		w := nopCloser{h.out}
		if ss[2] == "dot" {
			return tools.Dot(g, w, "")
		}
		return tools.Mermaid(g, w, nil, "")
	}

	return fmt.Errorf("unsupported command: %s", line)
}

func (h *Host) print(id int) error {
	data, err := h.store.Snapshot(id)
	if err != nil {
		return err
	}
	h.say("context %d %s:", id, h.store.Name(id))
	h.say("  data:  %s", JS(data))
	for _, p := range h.store.Paths(id) {
		var subs []string
		for _, sub := range h.store.Subscribers(id, p) {
			if sub.IsHandle() {
				subs = append(subs, h.label(sub.Handle))
			} else {
				subs = append(subs, sub.String())
			}
		}
		h.say("  %s -> %s", p, strings.Join(subs, ", "))
	}
	return nil
}
