package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reflect <text>",
		Short: "Score reasoning written after a trade",
		Long:  "Classifies the reasoning with the generation model and scores it. The index is not needed.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runReflect,
	}

	RootCmd.AddCommand(cmd)
}

func runReflect(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	res := a.coach.ReflectionCheck(cmd.Context(), strings.Join(args, " "))
	return printJSON(cmd, res)
}
