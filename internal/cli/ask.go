package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"contractqa/internal/service"
)

var (
	askJSON    bool
	askTimeout time.Duration
)

var askCmd = &cobra.Command{
	Use:   "ask <analysis-file> <question>",
	Short: "Answer one question about a contract",
	Long: `Ask answers a single question with citations. The index is loaded from the
store when it matches the file, and built otherwise.

Example:
  contractqa ask analysis.md "What is the governing law?"
  contractqa ask analysis.md "When can either party terminate?" --json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", time.Minute, "overall timeout")
}

func runAsk(cmd *cobra.Command, args []string) error {
	s, err := newSession(args[0])
	if err != nil {
		return err
	}
	if _, err := s.open(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	res, err := s.Ask(ctx, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if askJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printAnswer(cmd.OutOrStdout(), res)
	return nil
}

func printAnswer(w io.Writer, res service.Result) {
	fmt.Fprintln(w, res.Answer.Text)
	if len(res.Answer.Citations) > 0 {
		fmt.Fprintf(w, "\nSources: %s\n", strings.Join(res.Answer.Citations, ", "))
	}
	fmt.Fprintf(w, "(%s, %.0f ms)\n", res.Answer.Mode, res.Timings.TotalMS)
}
