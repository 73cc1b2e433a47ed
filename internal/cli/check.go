package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"tradecoach/internal/service"
)

func init() {
	cmd := &cobra.Command{
		Use:   "check <company>",
		Short: "Pre-trade check: grounded news plus feedback on your reasoning",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}

	cmd.Flags().StringP("reasoning", "r", "", "Why you want to make this trade")
	cmd.Flags().StringP("session", "s", "", "Session ID (default: a new ULID)")

	RootCmd.AddCommand(cmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	reasoningText, _ := cmd.Flags().GetString("reasoning")
	session, _ := cmd.Flags().GetString("session")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	res := a.coach.PreTradeCheck(cmd.Context(), service.PreTradeRequest{
		SessionID:     session,
		Company:       strings.Join(args, " "),
		UserReasoning: reasoningText,
	})
	return printJSON(cmd, res)
}
