package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance ID",
	Short: "Show the unreported balance of an advance payment",
	Long: `Show how much of an advance payment is still unreported, that is
the issued amount minus the sum of posted expense reports against it.

Examples:
  ledgerctl balance 17`,
	Args: cobra.ExactArgs(1),
	RunE: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	balance, err := a.client.UnreportedBalance(ctx, id)
	if err != nil {
		return err
	}

	cmd.Println(balance)
	return nil
}
