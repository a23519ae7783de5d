package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"contractqa/internal/bench"
	"contractqa/internal/service"
)

var (
	benchCases   string
	benchOut     string
	benchWorkers int
)

var benchCmd = &cobra.Command{
	Use:   "bench <analysis-file>",
	Short: "Measure retrieval and answer quality",
	Long: `Bench asks every question of a benchmark file and checks the retrieved
segments and the answer against each case's gold pattern.

The benchmark file is a JSON array of {"q": "...", "gold_regex": "...", "k": 8}.
Per-question rows are written as CSV and an aggregate summary is printed:
Hit@k (gold in any selected segment), P@1 (gold in the first) and ExactMatch
(gold in the answer text).

Example:
  contractqa bench analysis.md --bench cases.json --out metrics.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().StringVar(&benchCases, "bench", "", "benchmark cases JSON (required)")
	benchCmd.Flags().StringVar(&benchOut, "out", filepath.Join(".contractqa", "metrics.csv"), "CSV output path")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 4, "questions in flight")
	_ = benchCmd.MarkFlagRequired("bench")
}

func runBench(cmd *cobra.Command, args []string) error {
	cases, err := bench.Load(benchCases)
	if err != nil {
		return err
	}
	s, err := newSession(args[0])
	if err != nil {
		return err
	}
	h, err := s.open()
	if err != nil {
		return err
	}
	lambda := s.engine.Options().Lambda
	ask := func(ctx context.Context, q string, k int) (service.Result, error) {
		return s.engine.AskWith(ctx, h, q, k, lambda)
	}
	report, err := bench.Run(cmd.Context(), ask, cases, benchWorkers)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(benchOut), 0o755); err != nil {
		return err
	}
	f, err := os.Create(benchOut)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", benchOut, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report.Summary())
}
