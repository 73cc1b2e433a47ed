package cli

import (
	"github.com/spf13/cobra"

	"tradecoach/internal/indexer"
)

func init() {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or restore the corpus index",
		Long:  "Restores the persisted index when both artifacts exist, otherwise chunks and embeds the corpus and persists it. --force always rebuilds.",
		Args:  cobra.NoArgs,
		RunE:  runIndex,
	}

	cmd.Flags().Bool("force", false, "Rebuild even when artifacts exist")

	RootCmd.AddCommand(cmd)
}

type indexReport struct {
	Corpus   string `json:"corpus"`
	Chunks   int    `json:"chunks"`
	Dim      int    `json:"dim"`
	Restored bool   `json:"restored"`
	Embedder string `json:"embedder"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	var snap *indexer.Snapshot
	if force {
		snap, err = a.holder.Rebuild(cmd.Context(), a.builder, a.paths)
	} else {
		snap, err = a.loadIndex(cmd.Context())
	}
	if err != nil {
		return err
	}

	report := indexReport{
		Corpus:   a.paths.Corpus,
		Chunks:   len(snap.Chunks),
		Dim:      snap.Index.Dim(),
		Restored: snap.Restored,
		Embedder: snap.Embedder.Name(),
	}
	return printJSON(cmd, report)
}
