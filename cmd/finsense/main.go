package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"finsense-go/internal/config"
	"finsense-go/internal/llm"
	"finsense-go/internal/logger"
)

var (
	configPath  string
	projectRoot string

	cfg config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "finsense",
	Short: "Earnings-call ingestion, KPI extraction and quarter insight packs",
	Long: `FinSense turns raw earnings-call transcripts (txt/pdf) into a segment table,
extracts heuristic KPIs and sentiment from CFO prepared remarks, and merges
LLM quarter summaries into per-segment insight packs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load() // loads .env

		loaded, err := config.Load(projectRoot, configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		var runID string
		log, runID = logger.NewWithOutput(cmd.ErrOrStderr()).WithRun()
		log.WithFields(map[string]interface{}{
			"command": cmd.Name(),
			"root":    cfg.Root,
			"run_id":  runID,
		}).Debug("starting")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $FINSENSE_CONFIG or configs/finsense.toml)")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", "", "project root (default $FINSENSE_PROJECT_ROOT or working dir)")
}

// newLLM builds the configured provider client with bounded retries.
func newLLM() (llm.Client, error) {
	client, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return llm.WithRetry(client, llm.DefaultRetryOptions(cfg.LLM.MaxRetries), log), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
