package main

import (
	"github.com/spf13/cobra"

	"finsense-go/internal/dataset"
	"finsense-go/internal/insights"
	"finsense-go/internal/merger"
	"finsense-go/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Parse raw transcripts into the segment table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := pipeline.Ingest(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		if res.Records == 0 {
			cmd.Println("Nothing to ingest.")
			return nil
		}
		cmd.Printf("Ingested %d documents (%d failed) into %d rows: %s\n", res.Documents, res.Failed, res.Records, res.Path)
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Write KPI + sentiment insight packs from the segment table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := pipeline.Extract(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %d insight packs from %d rows (%d failed) to %s\n", res.Packs, res.Rows, res.Failed, cfg.InsightsDir())
		return nil
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Embed quarter summaries into matching insight packs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMerge(cmd)
	},
}

func runMerge(cmd *cobra.Command) error {
	sums, err := merger.LoadSummaries(cfg.SummariesDir(), log)
	if err != nil {
		return err
	}
	res, err := merger.Merge(cfg.InsightsDir(), sums, log)
	if err != nil {
		return err
	}
	cmd.Printf("Merged summaries: %d updated, %d skipped, %d failed\n", res.Updated, res.Skipped, res.Failed)
	return nil
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Move low-quality insight packs into the archive dir",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := insights.Archive(cfg.InsightsDir(), cfg.ArchiveDir(), log)
		if err != nil {
			return err
		}
		cmd.Printf("Archived %d of %d packs; %d remain in %s\n", res.Archived, res.Scanned, res.Remaining(), cfg.InsightsDir())
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print an overview of the segment table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sum, err := dataset.LoadAndSummarize(cfg.TranscriptsPath(), log)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sum)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "ingest, extract and merge in one go",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, step := range []*cobra.Command{ingestCmd, extractCmd} {
			if err := step.RunE(cmd, nil); err != nil {
				return err
			}
		}
		return runMerge(cmd)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd, extractCmd, mergeCmd, cleanCmd, statsCmd, runCmd)
}
