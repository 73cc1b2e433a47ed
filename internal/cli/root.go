// Package cli implements the tradecoach commands.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "tradecoach",
	Short: "Grounded company news and reasoning feedback for beginner traders",
	Long: "tradecoach answers questions about companies from a local notes corpus and scores\n" +
		"written investment reasoning against a fixed rubric. Models are reached through Ollama\n" +
		"or an OpenAI-compatible API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to YAML config (default: ./config.yaml or ~/.config/tradecoach/config.yaml)")
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
