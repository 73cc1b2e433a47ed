package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"tradecoach/internal/summarizer"
	"tradecoach/internal/tui"
)

func init() {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive pre-trade and reflection console",
		Args:  cobra.NoArgs,
		RunE:  runConsole,
	}

	RootCmd.AddCommand(cmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	text, err := os.ReadFile(a.paths.Corpus)
	if err != nil {
		return err
	}
	snap := a.holder.Current()
	header := fmt.Sprintf("%d chunks · %s · %s: %s",
		len(snap.Chunks), snap.Embedder.Name(), a.generator.Name(),
		summarizer.NewFrequencySummarizer().Summarize(string(text), 1))

	m := tui.New(cmd.Context(), a.coach, header)
	_, err = tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithAltScreen()).Run()
	return err
}
