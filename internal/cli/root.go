// Package cli wires configuration, the engine and its collaborators into the
// contractqa command tree.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"contractqa/internal/logger"
)

// Version is overridden at build time with -ldflags.
var Version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "contractqa",
	Short: "Grounded question answering over a contract analysis",
	Long: `contractqa indexes the analysis text of one contract and answers
free-form questions with citations to the segments the answer came from.

Narrow questions (governing law, dates, amounts, notice periods) are answered
directly from the text. Everything else goes to a generative model with the
retrieved context, and falls back to quoting excerpts when the model is
unavailable.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "contractqa "+Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./contractqa.yaml, then ~/.config/contractqa/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("store", "", "index store: file, sqlite or none")
	flags.String("store-dir", "", "directory for persisted indexes")
	flags.String("llm", "", "generative provider: openai, ollama or none")
	flags.String("model", "", "generative model name")
	flags.Int("k", 0, "segments selected per question")
	flags.Float64("lambda", 0, "MMR relevance/diversity trade-off in [0,1]")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("store.type", flags.Lookup("store"))
	_ = viper.BindPFlag("store.dir", flags.Lookup("store-dir"))
	_ = viper.BindPFlag("llm.provider", flags.Lookup("llm"))
	_ = viper.BindPFlag("llm.model", flags.Lookup("model"))
	_ = viper.BindPFlag("retrieval.k", flags.Lookup("k"))
	_ = viper.BindPFlag("retrieval.lambda", flags.Lookup("lambda"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig enables CONTRACTQA_* environment overrides, e.g.
// CONTRACTQA_RETRIEVAL_K=8 or CONTRACTQA_LLM_PROVIDER=none.
func initConfig() {
	viper.SetEnvPrefix("CONTRACTQA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range overrideKeys {
		_ = viper.BindEnv(key)
	}
	logger.SetVerbose(viper.GetBool("verbose"))
}
