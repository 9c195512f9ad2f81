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
)

var (
	profileID    string
	profilesDir  string
	factsPath    string
	printJSON    bool
	saveReport   bool
	timeout      time.Duration
	fetchTimeout time.Duration
	userAgent    string
	maxBytes     int64
	noCache      bool
	llmProvider  string
	llmModel     string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <document>",
	Short: "Analyze a single contract and report its risk",
	Long: `Analyze classifies a contract into a rule profile and evaluates it:
- Select a rule profile from the document's title, keywords and sections
- Run the built-in liability, contract value, fraud and governing law checks
- Evaluate the profile's rules against extracted facts
- Attach page and line citations to every finding
- Rank the findings and derive an overall risk level

The document is a .txt or .html file, or an http(s) URL. Extracted facts
are read from --facts, or from <document>.facts.json next to the file.

Example:
  clausewise analyze contract.txt
  clausewise analyze contract.html --facts facts.json --json
  clausewise analyze contract.txt --profile nda --save --output-dir ./reports
  clausewise analyze contract.txt --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Profile flags
	analyzeCmd.Flags().StringVar(&profileID, "profile", "", "skip classification and use this profile")
	analyzeCmd.Flags().StringVar(&profilesDir, "profiles-dir", "", "load rule profiles from this directory instead of the built-in ones")
	analyzeCmd.Flags().StringVar(&factsPath, "facts", "", "JSON file of extracted facts")

	// Output flags
	analyzeCmd.Flags().BoolVar(&printJSON, "json", false, "print the report as JSON instead of a summary")
	analyzeCmd.Flags().BoolVar(&saveReport, "save", false, "also write the JSON report to the output directory")
	analyzeCmd.Flags().String("output-dir", "", "output directory for saved reports")
	_ = viper.BindPFlag("output.dir", analyzeCmd.Flags().Lookup("output-dir"))

	addLoaderFlags(analyzeCmd)
	addLLMFlags(analyzeCmd)
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
}

func addLoaderFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 30*time.Second, "timeout for fetching URL documents")
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent for URL documents")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 0, "max document bytes to read (default 20MB)")
}

func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "classification fallback provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "classification fallback model")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not cache fallback answers")
}

// effectiveConfig loads the layered config and applies command flags
func effectiveConfig() (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	analyzer, err := newAnalyzer(cfg, profilesDir, logger)
	if err != nil {
		return err
	}

	report, err := analyzeOne(ctx, analyzer, source)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if printJSON {
		if err := pipeline.WriteJSON(out, report, cfg.Output.Pretty); err != nil {
			return err
		}
	} else {
		pipeline.PrintSummary(out, report)
		if cfg.Output.Verbose {
			pipeline.PrintDetails(out, report)
		}
	}

	if saveReport {
		path, err := pipeline.SaveReport(report, cfg.Output.Dir, cfg.Output.Pretty)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Report written to %s\n", path)
	}
	return nil
}

// analyzeOne honours --profile and --facts; otherwise the analyzer
// classifies and picks up sidecar facts itself
func analyzeOne(ctx context.Context, analyzer *pipeline.Analyzer, source string) (*model.Report, error) {
	if profileID == "" && factsPath == "" {
		return analyzer.AnalyzeFile(ctx, source)
	}

	doc, err := analyzer.Load(ctx, source)
	if err != nil {
		return nil, err
	}

	var facts map[string]any
	if factsPath != "" {
		facts, err = pipeline.LoadFacts(factsPath)
	} else {
		facts, err = pipeline.LoadSidecarFacts(source)
	}
	if err != nil {
		return nil, err
	}

	if profileID != "" {
		return analyzer.AnalyzeAs(ctx, doc, facts, profileID)
	}
	return analyzer.Analyze(ctx, doc, facts)
}
