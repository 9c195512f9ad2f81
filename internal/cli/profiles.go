package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/clausewise/internal/profile"
	"github.com/ppiankov/clausewise/internal/validate"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List and validate rule profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available rule profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDOC TYPES\tRULES\tFACTS")
		for _, p := range store.Profiles() {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.ID, strings.Join(p.DocTypeNames, ", "), len(p.Rules), strings.Join(p.FactNames(), ", "))
		}
		return tw.Flush()
	},
}

var profilesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check rule profiles for errors",
	Long: `Validate checks every profile for missing ids, duplicate rules, unknown
severities, conditions that do not parse or use undeclared facts, and
section patterns that do not compile.

Example:
  clausewise profiles validate
  clausewise profiles validate --dir ./profiles`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		workers := viper.GetInt("concurrency.workers")
		results, err := validate.NewValidator(workers).ValidateAll(cmd.Context(), store)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		invalid := 0
		for _, r := range results {
			mark := "✓"
			if !r.Valid {
				mark = "✗"
				invalid++
			}
			fmt.Fprintf(out, "%s %s\n", mark, r.ProfileID)
			for _, issue := range r.Issues {
				fmt.Fprintf(out, "    %s\n", issue)
			}
		}

		if invalid > 0 {
			return fmt.Errorf("%d of %d profiles invalid", invalid, len(results))
		}
		return nil
	},
}

func init() {
	profilesCmd.PersistentFlags().StringVar(&profilesDir, "dir", "", "profile directory (default: built-in profiles)")

	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesValidateCmd)
}

// openStore loads profiles without rejecting invalid ones
func openStore() (profile.Store, error) {
	if profilesDir == "" {
		return profile.Builtin(), nil
	}
	store, err := profile.LoadDir(profilesDir)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return store, nil
}
