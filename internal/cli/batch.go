package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/pipeline"
	"github.com/ppiankov/clausewise/internal/worker"
)

var batchTimeout time.Duration

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <list-file>",
	Short: "Analyze many contracts in parallel",
	Long: `Batch analyzes the documents listed in a file, one path or URL per line:
- Blank lines and lines starting with # are skipped
- Relative paths are resolved against the list file's directory
- Each document's sidecar facts (<document>.facts.json) are used if present
- A JSON report is written per document

Example:
  clausewise batch contracts.txt
  clausewise batch contracts.txt --concurrency 8 --output-dir ./reports
  clausewise batch contracts.txt --profiles-dir ./profiles --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().String("output-dir", "", "output directory for reports")
	_ = viper.BindPFlag("concurrency.workers", batchCmd.Flags().Lookup("concurrency"))
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&profilesDir, "profiles-dir", "", "load rule profiles from this directory instead of the built-in ones")

	addLoaderFlags(batchCmd)
	addLLMFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	listFile := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.Output.Dir = dir
	}
	logger := slog.Default()

	analyzer, err := newAnalyzer(cfg, profilesDir, logger)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n  Input file:   %s\n", listFile)
	fmt.Fprintf(stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintln(stderr)

	processor := worker.NewBatchProcessor(analyzer, cfg.Concurrency.Workers, logger)
	results, err := processor.ProcessFile(ctx, listFile)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	summary := writeBatchReports(cmd, cfg, results)

	fmt.Fprintf(stderr, "\n  Total:     %d documents\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", summary.success)
	fmt.Fprintf(stderr, "  Failures:  %d\n", summary.failure)
	for _, level := range []model.RiskLevel{model.RiskCritical, model.RiskHigh, model.RiskMedium, model.RiskLow} {
		if n := summary.byRisk[level]; n > 0 {
			fmt.Fprintf(stderr, "  %-9s  %d\n", string(level)+":", n)
		}
	}
	fmt.Fprintf(stderr, "  Output:    %s\n\n", cfg.Output.Dir)

	if summary.failure > 0 {
		return fmt.Errorf("%d of %d documents failed", summary.failure, len(results))
	}
	return nil
}

type batchSummary struct {
	success, failure int
	byRisk           map[model.RiskLevel]int
}

func writeBatchReports(cmd *cobra.Command, cfg *model.Config, results []*worker.AnalyzeResult) batchSummary {
	stderr := cmd.ErrOrStderr()
	summary := batchSummary{byRisk: map[model.RiskLevel]int{}}

	for _, result := range results {
		if result.Error != nil {
			summary.failure++
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		path, err := pipeline.SaveReport(result.Report, cfg.Output.Dir, cfg.Output.Pretty)
		if err != nil {
			summary.failure++
			fmt.Fprintf(stderr, "✗ %s: failed to write report: %v\n", result.Path, err)
			continue
		}

		summary.success++
		summary.byRisk[result.Report.Risk.OverallRiskLevel]++
		fmt.Fprintf(stderr, "✓ %s (%s, risk %s) -> %s\n",
			result.Path, result.Report.PackID, result.Report.Risk.OverallRiskLevel, path)
	}
	return summary
}
