package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/clarete/ometa"
)

const (
	formatTree = "tree"
	formatJSON = "json"
	formatYAML = "yaml"
)

type parseParams struct {
	grammarPath string
	rule        string
	format      string
	color       bool
}

var configuredParseParams = parseParams{}

var parseCommand = &cobra.Command{
	Use:   "parse <input>",
	Short: "Run a grammar over an input file",
	Long:  `Run a rule of a grammar over the contents of an input file and print the value it produced.`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input file specified")
		}
		if configuredParseParams.grammarPath == "" {
			return errors.New("no grammar file specified")
		}
		return nil
	},
	Run: func(_ *cobra.Command, args []string) {
		os.Exit(parse(args, &configuredRootParams, &configuredParseParams, os.Stdout, os.Stderr))
	},
}

func parse(args []string, root *rootParams, params *parseParams, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(root)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger, err := newLogger(root, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	g, err := loadGrammar(params.grammarPath, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	evaluator, err := newEvaluator(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	e, err := ometa.NewEngine(g, string(input),
		ometa.WithConfig(cfg),
		ometa.WithLogger(logger.WithField("grammar", g.Name())),
		ometa.WithEvaluator(evaluator),
		ometa.WithEnv(map[string]any{"input": args[0]}),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	value, err := e.Parse(params.rule)
	if err != nil {
		var perr *ometa.ParseError
		if params.color && errors.As(err, &perr) {
			fmt.Fprintln(stderr, ometa.HighlightFailure(perr.Source, perr.Failure))
		} else {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	if err := writeValue(stdout, value, params); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func writeValue(w io.Writer, value any, params *parseParams) error {
	switch params.format {
	case formatJSON:
		bs, err := json.MarshalIndent(plain(value), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(bs))
		return err
	case formatYAML:
		bs, err := yaml.Marshal(plain(value))
		if err != nil {
			return err
		}
		_, err = w.Write(bs)
		return err
	case formatTree:
		if params.color {
			_, err := fmt.Fprintln(w, ometa.HighlightValue(value))
			return err
		}
		_, err := fmt.Fprintln(w, ometa.PrettyValue(value))
		return err
	}
	return fmt.Errorf("unknown output format `%s`", params.format)
}

// plain turns runes into strings so encoders don't print them as
// numbers
func plain(v any) any {
	switch t := v.(type) {
	case rune:
		return string(t)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = plain(item)
		}
		return items
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = plain(item)
		}
		return m
	}
	return v
}

func init() {
	flags := parseCommand.Flags()
	flags.StringVarP(&configuredParseParams.grammarPath, "grammar", "g", "", "path to the grammar file")
	flags.StringVarP(&configuredParseParams.rule, "rule", "r", "grammar", "rule to start parsing from")
	flags.StringVarP(&configuredParseParams.format, "output", "o", formatTree, "output format: tree, json or yaml")
	flags.BoolVar(&configuredParseParams.color, "color", false, "colorize the output")

	RootCommand.AddCommand(parseCommand)
}
