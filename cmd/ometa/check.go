package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var checkCommand = &cobra.Command{
	Use:   "check <grammar> [<grammar>...]",
	Short: "Check grammar files for errors",
	Long:  `Read and compile grammar files, reporting syntax errors, undefined rules and invalid ranges.`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no grammar file specified")
		}
		return nil
	},
	Run: func(_ *cobra.Command, args []string) {
		os.Exit(check(args, &configuredRootParams, os.Stdout, os.Stderr))
	},
}

func check(args []string, root *rootParams, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(root)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	code := 0
	for _, grammarPath := range args {
		g, err := loadGrammar(grammarPath, cfg)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %s\n", grammarPath, err)
			code = 1
			continue
		}
		fmt.Fprintf(stdout, "%s: ok (%d rules)\n", grammarPath, len(g.Rules()))
	}
	return code
}

func init() {
	RootCommand.AddCommand(checkCommand)
}
