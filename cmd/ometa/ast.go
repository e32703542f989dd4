package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/clarete/ometa"
)

type astParams struct {
	source bool
	color  bool
}

var configuredAstParams = astParams{}

var astCommand = &cobra.Command{
	Use:   "ast <grammar>",
	Short: "Print the tree of a grammar",
	Long:  `Read a grammar file and print its syntax tree, or the grammar source rebuilt from the tree.`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no grammar file specified")
		}
		return nil
	},
	Run: func(_ *cobra.Command, args []string) {
		os.Exit(printAst(args, &configuredAstParams, os.Stdout, os.Stderr))
	},
}

func printAst(args []string, params *astParams, stdout, stderr io.Writer) int {
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	n, err := ometa.ParseGrammar(grammarName(args[0]), string(src))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	switch {
	case params.source:
		fmt.Fprintln(stdout, n.Text())
	case params.color:
		fmt.Fprintln(stdout, ometa.HighlightString(n))
	default:
		fmt.Fprintln(stdout, ometa.PrettyString(n))
	}
	return 0
}

func init() {
	astCommand.Flags().BoolVar(&configuredAstParams.source, "source", false, "print grammar source instead of the tree")
	astCommand.Flags().BoolVar(&configuredAstParams.color, "color", false, "colorize the output")
	RootCommand.AddCommand(astCommand)
}
