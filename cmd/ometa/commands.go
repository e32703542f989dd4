package main

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clarete/ometa"
	"github.com/clarete/ometa/jsaction"
)

type rootParams struct {
	configFile string
	logLevel   string
	logFormat  string
	maxDepth   int
	trace      bool
}

var configuredRootParams = rootParams{}

// RootCommand is the base CLI command that all subcommands are added to.
var RootCommand = &cobra.Command{
	Use:           path.Base(os.Args[0]),
	Short:         "OMeta grammar runner",
	Long:          "Reads OMeta grammars and runs them over input files.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return checkEnvironmentVariables(cmd)
	},
}

func init() {
	flags := RootCommand.PersistentFlags()
	flags.StringVarP(&configuredRootParams.configFile, "config", "c", "", "path to a YAML configuration file")
	flags.StringVar(&configuredRootParams.logLevel, "log-level", "info", "set log level: debug, info, warn or error")
	flags.StringVar(&configuredRootParams.logFormat, "log-format", "text", "set log format: text, json or json-pretty")
	flags.IntVar(&configuredRootParams.maxDepth, "max-depth", 0, "maximum nesting of rule applications (0 keeps the configured value)")
	flags.BoolVar(&configuredRootParams.trace, "trace", false, "log every rule application")
}

// loadConfig builds the engine configuration.  The configuration file
// comes first, and flags override it.
func loadConfig(params *rootParams) (*ometa.Config, error) {
	cfg := ometa.NewConfig()
	if params.configFile != "" {
		v := viper.New()
		v.SetConfigFile(params.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("can't read configuration: %w", err)
		}
		for _, key := range v.AllKeys() {
			if err := cfg.Set(key, v.Get(key)); err != nil {
				return nil, err
			}
		}
	}
	if params.maxDepth > 0 {
		cfg.SetInt("engine.max_depth", params.maxDepth)
	}
	if params.trace {
		cfg.SetBool("engine.trace", true)
	}
	return cfg, nil
}

func newLogger(params *rootParams, stderr io.Writer) (*logrus.Logger, error) {
	level, err := getLevel(params.logLevel)
	if err != nil {
		return nil, err
	}
	if params.trace {
		level = logrus.TraceLevel
	}
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(level)
	logger.SetFormatter(getFormatter(params.logFormat))
	return logger, nil
}

// loadGrammar reads and compiles the grammar file at `grammarPath`
func loadGrammar(grammarPath string, cfg *ometa.Config) (*ometa.Grammar, error) {
	src, err := os.ReadFile(grammarPath)
	if err != nil {
		return nil, err
	}
	return ometa.NewGrammarFromSource(grammarName(grammarPath), string(src), nil, cfg)
}

func grammarName(grammarPath string) string {
	base := path.Base(grammarPath)
	return base[:len(base)-len(path.Ext(base))]
}

func newEvaluator(cfg *ometa.Config) (ometa.Evaluator, error) {
	return jsaction.NewFromConfig(cfg)
}
