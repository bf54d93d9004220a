package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"finsense-go/internal/aggregator"
	"finsense-go/internal/chat"
	"finsense-go/internal/dataset"
	"finsense-go/internal/processor"
	"finsense-go/internal/summarizer"
	"finsense-go/internal/types"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [TICKER YEAR QUARTER]",
	Short: "Write an LLM summary per quarter found in the segment table",
	Long: `Groups the segment table by (ticker, fiscal year, fiscal quarter) and writes
one {TICKER}_{year}_{quarter}_summary.json per group. Pass a ticker, year and
quarter to summarise a single quarter.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("want no arguments or TICKER YEAR QUARTER, got %d", len(args))
		}
		return nil
	},
	RunE: runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
	records, err := dataset.Read(cfg.TranscriptsPath())
	if err != nil {
		return err
	}
	groups := aggregator.GroupByQuarter(records)

	if len(args) == 3 {
		key, err := parseKey(args)
		if err != nil {
			return err
		}
		g, ok := aggregator.Find(groups, key)
		if !ok {
			return fmt.Errorf("no rows for %s in %s", key, cfg.TranscriptsPath())
		}
		groups = []aggregator.QuarterGroup{g}
	}
	if len(groups) == 0 {
		cmd.Println("No quarters with fiscal year and quarter to summarise.")
		return nil
	}

	client, err := newLLM()
	if err != nil {
		return err
	}
	res, err := summarizer.New(client, cfg, log).Run(cmd.Context(), groups)
	if err != nil {
		return err
	}
	cmd.Printf("Summaries: %d written, %d skipped, %d failed (%s)\n", res.Written, res.Skipped, res.Failed, cfg.SummariesDir())
	return nil
}

func parseKey(args []string) (types.QuarterKey, error) {
	year, err := strconv.Atoi(args[1])
	if err != nil {
		return types.QuarterKey{}, fmt.Errorf("year %q: %w", args[1], err)
	}
	q := strings.ToUpper(args[2])
	if !strings.HasPrefix(q, "Q") {
		q = "Q" + q
	}
	return types.QuarterKey{Ticker: strings.ToUpper(args[0]), FiscalYear: year, FiscalQuarter: q}, nil
}

var (
	askPack string
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask --pack FILE QUESTION...",
	Short: "Ask the analyst model a question about one insight pack",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newLLM()
		if err != nil {
			return err
		}
		engine := chat.New(client, cfg.LLM, log)
		res, err := processor.New(engine, cfg.InsightsDir()).Ask(cmd.Context(), askPack, strings.Join(args, " "))
		if askJSON {
			if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
				return perr
			}
			return err
		}
		if err != nil {
			return err
		}
		cmd.Printf("%s\n\n%s\n", res.Label, res.Answer)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askPack, "pack", "", "insight pack file name in the insights dir")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
	_ = askCmd.MarkFlagRequired("pack")

	rootCmd.AddCommand(summarizeCmd, askCmd)
}
