package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clausewise/internal/model"
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <document>",
	Short: "Show which rule profile a document would be analyzed with",
	Long: `Classify scores every rule profile against the document and prints the
candidates, best first, with the reasons behind each score.

Example:
  clausewise classify contract.txt
  clausewise classify contract.txt --profiles-dir ./profiles --json`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(&profilesDir, "profiles-dir", "", "load rule profiles from this directory instead of the built-in ones")
	classifyCmd.Flags().BoolVar(&printJSON, "json", false, "print the classification as JSON")
	addLoaderFlags(classifyCmd)
	addLLMFlags(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}

	analyzer, err := newAnalyzer(cfg, profilesDir, slog.Default())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout+cfg.Classifier.FallbackTimeout)
	defer cancel()

	doc, err := analyzer.Load(ctx, args[0])
	if err != nil {
		return err
	}
	cls := analyzer.Classify(ctx, doc.Text).Classification()

	out := cmd.OutOrStdout()
	if printJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cls)
	}
	printClassification(cmd, cls)
	return nil
}

func printClassification(cmd *cobra.Command, cls model.Classification) {
	out := cmd.OutOrStdout()
	selected := cls.Selected
	if selected == "" {
		selected = "(none)"
	}
	fmt.Fprintf(out, "Selected:   %s (confidence %.2f)\n", selected, cls.Confidence)
	fmt.Fprintf(out, "Reason:     %s\n", cls.Reason)
	if len(cls.Candidates) == 0 {
		return
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROFILE\tDOC TYPE\tSCORE\tREASON")
	for _, c := range cls.Candidates {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", c.PackID, c.DocType, c.Score, c.Reason)
	}
	_ = tw.Flush()
}
