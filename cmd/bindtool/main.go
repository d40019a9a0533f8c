// Package main is bindtool, a command-line tool for binding
// expressions, sheets and stores.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Comcast/binder/compiler"
	"github.com/Comcast/binder/core"
	"github.com/Comcast/binder/expr"
	"github.com/Comcast/binder/sheet"
	"github.com/Comcast/binder/tools"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile  string
	contextName string
	debug       bool

	cfg    *Config
	logger *zap.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bindtool",
		Short: "Binding expression and reactive store tool",
		Long: `bindtool tokenizes, sanitizes and evaluates binding expressions,
renders sheets as graphs and HTML, and runs an interactive shell over
a reactive store.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = ReadConfig(configFile); err != nil {
				return err
			}
			if cmd.Flags().Changed("context-name") {
				cfg.ContextName = contextName
			}
			if debug {
				cfg.Debug = true
			}
			if logger, err = cfg.Logger(); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&contextName, "context-name", "", "binding context name in generated code")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	root.AddCommand(
		newTokensCmd(),
		newSanitizeCmd(),
		newEvalCmd(),
		newGraphCmd(),
		newAnalyzeCmd(),
		newHTMLCmd(),
		newReplCmd(),
	)

	return root
}

func printJSON(w io.Writer, x interface{}) error {
	js, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", js)
	return err
}

func newTokensCmd() *cobra.Command {
	var literal, raw bool
	cmd := &cobra.Command{
		Use:   "tokens <expression>",
		Short: "Print the classified tokens of an expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := expr.Tokenize(args[0], literal)
			if !raw {
				ts = expr.Classify(ts, literal)
			}
			for _, t := range ts {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %q\n", t.Type, t.Value)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&literal, "literal", "l", false, "treat the expression as template text")
	cmd.Flags().BoolVar(&raw, "raw", false, "don't classify")
	return cmd
}

func newSanitizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize <expression>",
		Short: "Print generated code and dependency paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := expr.Sanitize(args[0], cfg.ContextName)
			return printJSON(cmd.OutOrStdout(), r)
		},
	}
}

func newEvalCmd() *cobra.Command {
	var data, globals, event string
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against JSON data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			tr, closer, err := cfg.Translator(ctx, logger)
			if err != nil {
				return err
			}
			defer closer()

			s := core.NewStore(core.WithLogger(logger))
			if err = unmarshalInto(globals, s.Globals()); err != nil {
				return err
			}
			m := make(map[string]interface{})
			if err = unmarshalInto(data, m); err != nil {
				return err
			}
			id := s.AddObject("eval", m)

			c := compiler.New(
				compiler.WithLogger(logger),
				compiler.WithData(s),
				compiler.WithTranslator(tr))

			var params []string
			callArgs := []interface{}{s.Container(id).Data}
			if event != "" {
				var x interface{}
				if err = json.Unmarshal([]byte(event), &x); err != nil {
					return fmt.Errorf("parsing event: %w", err)
				}
				params = append(params, "event")
				callArgs = append(callArgs, x)
			}

			e, err := c.Compile(ctx, args[0], params, &compiler.Options{ContextName: cfg.ContextName})
			if err != nil {
				return err
			}
			x, err := e.Call(ctx, callArgs...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), x)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "{}", "binding context data (JSON)")
	cmd.Flags().StringVarP(&globals, "globals", "g", "{}", "globals (JSON)")
	cmd.Flags().StringVarP(&event, "event", "e", "", "event (JSON)")
	return cmd
}

func unmarshalInto(js string, m map[string]interface{}) error {
	if js == "" {
		return nil
	}
	var x map[string]interface{}
	if err := json.Unmarshal([]byte(js), &x); err != nil {
		return fmt.Errorf("parsing %s: %w", js, err)
	}
	for k, v := range x {
		m[k] = v
	}
	return nil
}

func newGraphCmd() *cobra.Command {
	var format, out, highlight string
	cmd := &cobra.Command{
		Use:   "graph <sheet>",
		Short: "Render a sheet's dependency graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := sheet.Read(args[0])
			if err != nil {
				return err
			}
			g, err := tools.LoadGraph(ctx, s)
			if err != nil {
				return err
			}

			var w io.WriteCloser = nopCloser{cmd.OutOrStdout()}
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				w = f
			}

			switch format {
			case "dot":
				return tools.Dot(g, w, highlight)
			case "mermaid":
				return tools.Mermaid(g, w, nil, highlight)
			case "png":
				if out == "" {
					return fmt.Errorf("png needs --out")
				}
				w.Close()
				name, err := tools.PNG(g, out, highlight)
				if err == nil {
					logger.Info("wrote graph", zap.String("file", name))
				}
				return err
			}
			return fmt.Errorf("unknown format %s", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "dot, mermaid, or png")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (basename for png)")
	cmd.Flags().StringVar(&highlight, "highlight", "", "path to highlight")
	return cmd
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <sheet>",
		Short: "Analyze a sheet's bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sheet.Read(args[0])
			if err != nil {
				return err
			}
			a, err := tools.Analyze(s)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a)
		},
	}
}

func newHTMLCmd() *cobra.Command {
	var css []string
	var graph bool
	cmd := &cobra.Command{
		Use:   "html <sheet>",
		Short: "Render a sheet as an HTML page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return tools.ReadAndRenderSheetPage(context.Background(), args[0], css, cmd.OutOrStdout(), graph)
		},
	}
	cmd.Flags().StringSliceVar(&css, "css", nil, "CSS files")
	cmd.Flags().BoolVar(&graph, "graph", false, "include the dependency graph")
	return cmd
}
