package cli

import (
	"os"

	"github.com/spf13/cobra"

	"tradecoach/internal/summarizer"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics and a corpus overview",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}

	cmd.Flags().IntP("sentences", "n", 3, "Highlight sentences in the overview")
	cmd.Flags().Int("terms", 10, "Top terms in the overview")

	RootCmd.AddCommand(cmd)
}

type statsReport struct {
	Corpus    string              `json:"corpus"`
	Chunks    int                 `json:"chunks"`
	Dim       int                 `json:"dim"`
	Restored  bool                `json:"restored"`
	Embedder  string              `json:"embedder"`
	Generator string              `json:"generator"`
	Overview  summarizer.Overview `json:"overview"`
}

func runStats(cmd *cobra.Command, args []string) error {
	sentences, _ := cmd.Flags().GetInt("sentences")
	terms, _ := cmd.Flags().GetInt("terms")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	text, err := os.ReadFile(a.paths.Corpus)
	if err != nil {
		return err
	}

	snap := a.holder.Current()
	return printJSON(cmd, statsReport{
		Corpus:    a.paths.Corpus,
		Chunks:    len(snap.Chunks),
		Dim:       snap.Index.Dim(),
		Restored:  snap.Restored,
		Embedder:  snap.Embedder.Name(),
		Generator: a.generator.Name(),
		Overview:  summarizer.NewFrequencySummarizer().Overview(string(text), sentences, terms),
	})
}
