package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mfateev/smartcalc/internal/config"
	"github.com/mfateev/smartcalc/internal/llm"
	"github.com/mfateev/smartcalc/internal/models"
	"github.com/mfateev/smartcalc/internal/version"
)

// rootOptions holds the global flags. Zero values mean "not set" so that
// lower configuration layers win.
type rootOptions struct {
	configFile   string
	dataDir      string
	storage      string
	storagePath  string
	explainModel string
	solveModel   string
	temporal     bool
	temporalHost string
	namespace    string
	logLevel     string
	noColor      bool
	noMarkdown   bool
	inline       bool
}

// overrides converts the flags into the highest-precedence config layer.
func (o *rootOptions) overrides() *config.Config {
	cfg := &config.Config{
		DataDir: o.dataDir,
		Storage: config.StorageConfig{
			Backend: o.storage,
			Path:    o.storagePath,
		},
		Temporal: config.TemporalConfig{
			Enabled:   o.temporal,
			HostPort:  o.temporalHost,
			Namespace: o.namespace,
		},
		Log: config.LogConfig{Level: o.logLevel},
		UI:  config.UIConfig{NoColor: o.noColor, Inline: o.inline},
	}
	if o.explainModel != "" {
		cfg.Assistant.Explain = models.ModelConfig{Model: o.explainModel, Provider: llm.DetectProvider(o.explainModel)}
	}
	if o.solveModel != "" {
		cfg.Assistant.Solve = models.ModelConfig{Model: o.solveModel, Provider: llm.DetectProvider(o.solveModel)}
	}
	return cfg
}

// load resolves the effective configuration.
func (o *rootOptions) load() (*config.Config, error) {
	if path := strings.TrimSpace(o.configFile); path != "" {
		_ = os.Setenv("SMARTCALC_CONFIG", path)
	}
	return config.Load(o.overrides())
}

// newRootCmd builds the command tree. The bare command runs the TUI.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "smartcalc",
		Short: "Terminal calculator with an AI math tutor",
		Long: `smartcalc is a keyboard-driven calculator for the terminal.

Type digits and operators, press Enter or = to evaluate. Every result is
kept in a history of the last 50 calculations. The assistant explains any
past calculation step by step, or turns a word problem into an expression
and solves it.

Keys:
  0-9 . + - * /   enter the calculation
  enter, =        evaluate
  backspace       delete last character
  esc, c          clear
  %  n            percent, change sign
  h               history (u use, e explain, x clear all)
  w               word problem
  ctrl+c          quit`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Config file (default: .smartcalc.yaml, then ~/.smartcalc/config.yaml)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory for history and logs (default: ~/.smartcalc)")
	flags.StringVar(&opts.storage, "storage", "", "History backend: file, badger, memory")
	flags.StringVar(&opts.storagePath, "storage-path", "", "History store location (overrides the backend default)")
	flags.StringVar(&opts.explainModel, "explain-model", "", "Model used to explain calculations")
	flags.StringVar(&opts.solveModel, "solve-model", "", "Model used to solve word problems")
	flags.BoolVar(&opts.temporal, "temporal", false, "Run assistant calls as Temporal workflows")
	flags.StringVar(&opts.temporalHost, "temporal-host", "", "Temporal server address (overrides envconfig/env vars)")
	flags.StringVar(&opts.namespace, "temporal-namespace", "", "Temporal namespace")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&opts.noMarkdown, "no-markdown", false, "Disable markdown rendering")

	root.Flags().BoolVar(&opts.inline, "inline", false, "Disable alt-screen mode (inline output)")

	root.AddCommand(
		newEvalCmd(opts),
		newHistoryCmd(opts),
		newExplainCmd(opts),
		newSolveCmd(opts),
		newModelsCmd(opts),
		newMCPCmd(opts),
		newConfigCmd(opts),
	)
	return root
}
