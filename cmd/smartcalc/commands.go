package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mfateev/smartcalc/internal/calc"
	"github.com/mfateev/smartcalc/internal/cli"
	"github.com/mfateev/smartcalc/internal/history"
	"github.com/mfateev/smartcalc/internal/llm"
	"github.com/mfateev/smartcalc/internal/mcpserver"
	"github.com/mfateev/smartcalc/internal/models"
	"github.com/mfateev/smartcalc/internal/version"
)

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	asst, err := a.newAssistant()
	if err != nil {
		// The calculator works without an assistant.
		a.logger.Warn("assistant disabled", "error", err)
	}

	return cli.Run(cmd.Context(), cli.Config{
		NoColor:        a.cfg.UI.NoColor,
		NoMarkdown:     opts.noMarkdown,
		Inline:         a.cfg.UI.Inline,
		AssistantLabel: a.assistantLabel(),
	}, cli.Deps{
		History:   a.history,
		Assistant: asst,
		Logger:    a.logger,
	})
}

func newEvalCmd(opts *rootOptions) *cobra.Command {
	var noRecord bool
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an arithmetic expression",
		Long: `Evaluate an expression over + - * /, parentheses and decimals, print
the result and add it to the history.

An expression that starts with "-" must follow "--" so it is not read
as a flag.

Examples:
  smartcalc eval "7 + 3"
  smartcalc eval "(2 + 3) * 4" --no-record
  smartcalc eval -- -5 + 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := strings.TrimSpace(strings.Join(args, " "))
			v, err := calc.Evaluate(expr)
			if err != nil {
				return err
			}
			result := calc.FormatNumber(v)

			if !noRecord {
				a, err := openApp(cmd.Context(), opts)
				if err != nil {
					return err
				}
				defer a.Close()
				a.history.Add(history.NewRecord(expr, result, time.Now()))
				if err := a.persister.LastError(); err != nil {
					return fmt.Errorf("save history: %w", err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Do not add the calculation to the history")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		if strings.Contains(err.Error(), "shorthand flag") {
			return fmt.Errorf("%w (put -- before an expression that starts with \"-\", e.g. smartcalc eval -- -5 + 2)", err)
		}
		return err
	})
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the calculation history",
	}

	var (
		limit  int
		output string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent calculations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			records := a.history.Records()
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			return writeRecords(cmd, records, output)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many records")
	list.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded calculation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			n := a.history.Len()
			a.history.Clear()
			if err := a.persister.LastError(); err != nil {
				return fmt.Errorf("save history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d calculations.\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, clearCmd)
	return cmd
}

func writeRecords(cmd *cobra.Command, records []history.Record, output string) error {
	out := cmd.OutOrStdout()
	switch output {
	case "json":
		if records == nil {
			records = []history.Record{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "text", "":
		if len(records) == 0 {
			fmt.Fprintln(out, "No calculations yet.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, rec := range records {
			fmt.Fprintf(tw, "%s\t%s\t= %s\n", rec.Timestamp.Local().Format("2006-01-02 15:04:05"), rec.Expression, rec.Result)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (supported: text, json)", output)
	}
}

func newExplainCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <expression> <result>",
		Short: "Explain a calculation step by step",
		Example: `  smartcalc explain "12 / 4" 3
  smartcalc explain "7 + 3" 10 --explain-model claude-3-5-haiku-latest`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			asst, err := a.newAssistant()
			if err != nil {
				return err
			}

			var exp *models.Explanation
			err = newSpinner().While(cli.LoadingMessage("explain"), func() error {
				var err error
				exp, err = asst.Explain(cmd.Context(), args[0], args[1])
				return err
			})
			if err != nil {
				a.logger.Error("explain failed", "expression", args[0], "error", err)
				return fmt.Errorf("%s: %w", cli.FailureMessage, err)
			}

			fmt.Fprint(cmd.OutOrStdout(), newRenderer(opts).RenderExplanation(exp))
			return nil
		},
	}
}

func newSolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "solve <problem>",
		Short:   "Turn a word problem into an expression and solve it",
		Example: `  smartcalc solve "Ana has 3 boxes of 25 apples. How many apples does she have?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			problem := strings.Join(args, " ")

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			asst, err := a.newAssistant()
			if err != nil {
				return err
			}

			var sol *models.Solution
			err = newSpinner().While(cli.LoadingMessage("solve"), func() error {
				var err error
				sol, err = asst.Solve(cmd.Context(), problem)
				return err
			})
			if err != nil {
				a.logger.Error("solve failed", "error", err)
				return fmt.Errorf("%s: %w", cli.FailureMessage, err)
			}

			fmt.Fprint(cmd.OutOrStdout(), newRenderer(opts).RenderExplanation(cli.SolutionExplanation(sol)))
			return nil
		},
	}
}

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models that support structured output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			available, err := llm.FetchAvailableModels(cmd.Context(), cfg.Credentials.WithEnvFallback())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tMODEL\tNAME")
			for _, m := range available {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Provider, m.ID, m.DisplayName)
			}
			return tw.Flush()
		},
	}
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the evaluate and list_history tools over MCP (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			a.logger.Info("serving MCP over stdio")
			return mcpserver.New(a.history, version.String(), a.logger).ServeStdio(cmd.Context())
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (credentials omitted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}

// newSpinner animates on stderr when it is a terminal.
func newSpinner() *cli.Spinner {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return cli.NewSpinner(os.Stderr)
	}
	return cli.NewSpinner(io.Discard)
}

func newRenderer(opts *rootOptions) *cli.Renderer {
	noMarkdown := opts.noMarkdown || !term.IsTerminal(int(os.Stdout.Fd()))
	styles := cli.DefaultStyles()
	if opts.noColor {
		styles = cli.NoColorStyles()
	}
	return cli.NewRenderer(0, noMarkdown, styles)
}
