package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/coolbeans/brenda/pkg/brenda"
	"github.com/coolbeans/brenda/pkg/dump"
	"github.com/coolbeans/brenda/pkg/library"
	"github.com/coolbeans/brenda/pkg/watch"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "brenda",
		Short: "BRENDA enzyme database parser",
		Long: `brenda parses the BRENDA flat-file dump into one linked record per
enzyme class (EC number): enzymes with their organisms, tissues and
localizations, reactions, turnover numbers, Km values and literature.

Records are stored in an on-disk library or written as JSON Lines.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default $BRENDA_CONFIG or ./brenda.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file after the run")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(splitCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "BRENDA dump (.txt, .gz, .zip or .tar.gz)")
	cmd.Flags().Int("workers", 0, "Parse blocks in parallel with this many workers")
	cmd.Flags().String("taxonomy", "", "NCBI names.dmp or taxdump archive for organism IDs")
	cmd.Flags().String("taxonomy-cache", "", "JSON cache of organism lookups")
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a BRENDA dump and store the records",
		Long: `Parse a BRENDA dump and store the records in a library directory,
a JSON Lines file, or both.

Example:
  brenda parse --input brenda_download.txt --library brenda-library
  brenda parse --input brenda_2023_1.txt.zip --jsonl brenda.jsonl --workers 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.finish()

			fmt.Printf("Parsing BRENDA dump: %s\n", env.cfg.Input)
			startTime := time.Now()

			records, err := env.parse(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("  Parsed %d enzyme classes in %s\n", records.Len(), time.Since(startTime).Round(time.Millisecond))

			if err := env.store(cmd.Context(), records.Records()); err != nil {
				return err
			}

			printWarningSummary(env.parser.Warnings())
			return nil
		},
	}
	addInputFlags(cmd)
	cmd.Flags().String("library", "", "Library directory to store records in")
	cmd.Flags().String("jsonl", "", "Also write records to this JSON Lines file")
	return cmd
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle = lipgloss.NewStyle().Width(24).Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Parse a BRENDA dump and print totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.finish()

			records, err := env.parse(cmd.Context())
			if err != nil {
				return err
			}

			var totals brenda.RecordStats
			for _, record := range records.Records() {
				stats := record.Stats()
				totals.Enzymes += stats.Enzymes
				totals.Reactions += stats.Reactions
				totals.KcatValues += stats.KcatValues
				totals.KmValues += stats.KmValues
				totals.Tissues += stats.Tissues
				totals.Localizations += stats.Localizations
				totals.References += stats.References
			}

			rows := []struct {
				label string
				value int
			}{
				{"Enzyme classes", records.Len()},
				{"Enzymes", totals.Enzymes},
				{"Reactions", totals.Reactions},
				{"Turnover numbers", totals.KcatValues},
				{"Km values", totals.KmValues},
				{"Tissues", totals.Tissues},
				{"Localizations", totals.Localizations},
				{"References", totals.References},
				{"Warnings", len(env.parser.Warnings())},
			}

			lines := []string{titleStyle.Render(env.cfg.Input)}
			for _, row := range rows {
				lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
					labelStyle.Render(row.label), valueStyle.Render(fmt.Sprintf("%d", row.value))))
			}
			fmt.Println(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
			return nil
		},
	}
	addInputFlags(cmd)
	return cmd
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <ec-number>",
		Short: "Print a stored record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.finish()

			lib, err := library.Open(env.cfg.Library)
			if err != nil {
				return err
			}

			entry := lib.Entry(args[0])
			if entry == nil {
				return fmt.Errorf("record not found: %s", args[0])
			}
			data, err := lib.GetRaw(entry.Code)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
	cmd.Flags().String("library", "", "Library directory")
	return cmd
}

func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "List the blocks of a BRENDA dump without parsing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.finish()

			asJSON, _ := cmd.Flags().GetBool("json")

			input, err := dump.Open(env.cfg.Input)
			if err != nil {
				return err
			}
			defer input.Close()

			type span struct {
				Index     int `json:"index"`
				StartLine int `json:"start_line"`
				EndLine   int `json:"end_line"`
				Bytes     int `json:"bytes"`
			}
			var spans []span
			err = brenda.SplitBlocks(input, func(block brenda.BlockText) error {
				spans = append(spans, span{block.Index, block.StartLine, block.EndLine, len(block.Text)})
				return nil
			})
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(spans, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("%d blocks in %s\n", len(spans), env.cfg.Input)
			for _, s := range spans {
				fmt.Printf("  %6d  lines %d-%d  (%d bytes)\n", s.Index, s.StartLine, s.EndLine, s.Bytes)
			}
			return nil
		},
	}
	cmd.Flags().String("input", "", "BRENDA dump (.txt, .gz, .zip or .tar.gz)")
	cmd.Flags().Bool("json", false, "Print block spans as JSON")
	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-parse a BRENDA dump into the library whenever it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.finish()

			debounce, _ := cmd.Flags().GetDuration("debounce")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher, err := watch.New(env.cfg.Input, func(ctx context.Context, path string) error {
				env.parser.ResetWarnings()
				records, err := env.parse(ctx)
				if err != nil {
					return err
				}
				if err := env.store(ctx, records.Records()); err != nil {
					return err
				}
				env.logger.Info("library updated", "records", records.Len(), "warnings", len(env.parser.Warnings()))
				return nil
			}, watch.WithDebounce(debounce), watch.WithLogger(env.logger))
			if err != nil {
				return err
			}
			return watcher.Run(ctx)
		},
	}
	addInputFlags(cmd)
	cmd.Flags().String("library", "", "Library directory to store records in")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before re-parsing")
	return cmd
}

func printWarningSummary(warnings []brenda.Warning) {
	if len(warnings) == 0 {
		return
	}
	byKind := make(map[brenda.WarningKind]int)
	for _, w := range warnings {
		byKind[w.Kind]++
	}
	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	fmt.Printf("  %d warnings:\n", len(warnings))
	for _, kind := range kinds {
		fmt.Printf("    %-20s %d\n", kind, byKind[brenda.WarningKind(kind)])
	}
}
