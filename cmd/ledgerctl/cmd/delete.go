package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerdesk/ledgerdesk/internal/store"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

var deleteCmd = &cobra.Command{
	Use:   "delete TYPE ID",
	Short: "Delete a record",
	Long: `Delete a record by resource type and id.

Deletion asks for confirmation unless --force is given. Posted
documents are typically rejected by the server; unpost them first.

Examples:
  ledgerctl delete advances 17
  ledgerctl delete currencies 3 --force`,
	Args: cobra.ExactArgs(2),
	RunE: runDelete,
}

var deleteForce bool

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	info, err := ledger.ResolveResource(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[1])
	}

	if !deleteForce {
		fmt.Printf("Delete %s %d? (y/N): ", info.Kind, id)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext()
	defer cancel()

	switch info.Kind {
	case ledger.KindCurrency:
		err = deleteRecord(ctx, a.client.Currencies(), id)
	case ledger.KindCashRegister:
		err = deleteRecord(ctx, a.client.CashRegisters(), id)
	case ledger.KindIncomeExpenseItem:
		err = deleteRecord(ctx, a.client.Items(), id)
	case ledger.KindEmployee:
		err = deleteRecord(ctx, a.client.Employees(), id)
	case ledger.KindCurrencyRate:
		err = deleteRecord(ctx, a.client.CurrencyRates(), id)
	case ledger.KindAdvancePayment:
		err = deleteRecord(ctx, a.client.AdvancePayments(), id)
	case ledger.KindIncomeDocument:
		err = deleteRecord(ctx, a.client.IncomeDocuments(), id)
	default:
		return fmt.Errorf("unsupported resource kind: %s", info.Kind)
	}
	if err != nil {
		return err
	}

	cmd.Printf("Deleted %s %d\n", info.Kind, id)
	return nil
}

func deleteRecord[T any](ctx context.Context, st *store.Store[T], id int64) error {
	return st.Delete(ctx, id)
}
