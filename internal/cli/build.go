package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build <analysis-file>",
	Short: "Segment and index an analysis file",
	Long: `Build segments the analysis text (or a JSON list of parsed segments),
builds the TF-IDF index, persists it to the configured store and prints the
index metadata with a short overview of the document.

Example:
  contractqa build analysis.md
  contractqa build segments.json --store sqlite`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	s, err := newSession(args[0])
	if err != nil {
		return err
	}
	h, err := s.rebuild()
	if err != nil {
		return err
	}
	meta, err := json.MarshalIndent(h.Meta, "", "  ")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, string(meta))
	if s.location != "" {
		fmt.Fprintf(out, "\nIndex saved to %s (%s, %d terms)\n", s.location, s.cfg.Store.Type, h.Index.VocabularySize())
	}
	if ov := s.overview(h); ov.Text != "" {
		fmt.Fprintf(out, "\nOverview:\n%s\n", ov.Text)
	}
	return nil
}
