package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "news <company>",
		Short: "Summarize what the corpus says about a company",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runNews,
	}

	RootCmd.AddCommand(cmd)
}

func runNews(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	digest := a.coach.CompanyNews(cmd.Context(), strings.Join(args, " "))
	return printJSON(cmd, digest)
}
